// Package domain contains the core entities and value objects of sketchreel.
//
// It has no dependencies on infrastructure concerns (rendering, encoding,
// file system, logging) and holds only the data model and its rules.
//
// # Entities
//
//   - [Point]: A pixel coordinate in working resolution
//   - [EdgeSet]: Unordered edge points of one image
//   - [OrderedPath]: The drawing order of one image's points
//   - [Stroke]: A run of contiguous points drawn as one line
//   - [Settings]: Externally adjustable animation and mix parameters
//   - [Artifact]: A finished, encoded recording
//
// # Errors
//
// Errors are grouped into four categories, checked with errors.Is:
// [ErrInvalidInput] (returned to the caller), [ErrResourceUnavailable] and
// [ErrEmptyRecording] (reported as warnings), and [ErrTeardown] (logged only).
package domain

// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// The controller in internal/app drives a drawing surface, an encoder and an
// artifact store without knowing whether they are backed by gogpu/gg, an
// ffmpeg subprocess and the local file system, or by test doubles.
//
// # Port Interfaces
//
//   - [Surface]: Raster target that strokes are drawn onto
//   - [Encoder], [EncodeSession]: Turns frames and PCM into an encoded stream
//   - [ArtifactStore]: Persists a finished recording
//   - [ImageSource]: Supplies decoded images for a session
//   - [Narrator]: Synthesizes narration audio from text
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
package ports

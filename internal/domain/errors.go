package domain

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors below wrap one of these.
var (
	// ErrInvalidInput is returned when images, audio or settings are rejected
	// before entering the pipeline.
	ErrInvalidInput = errors.New("sketchreel: invalid input")

	// ErrResourceUnavailable is reported when recording or audio cannot be
	// set up. The animation continues without the feature.
	ErrResourceUnavailable = errors.New("sketchreel: resource unavailable")

	// ErrEmptyRecording is reported when a recording stopped with no data.
	ErrEmptyRecording = errors.New("sketchreel: recording produced no data")

	// ErrTeardown marks a failure while releasing a handle. It is logged and
	// never returned from controller operations.
	ErrTeardown = errors.New("sketchreel: teardown failed")
)

// Input validation errors.
var (
	ErrNoImages          = fmt.Errorf("%w: at least one image is required", ErrInvalidInput)
	ErrTooManyImages     = fmt.Errorf("%w: too many images", ErrInvalidInput)
	ErrUnsupportedImage  = fmt.Errorf("%w: unsupported image type", ErrInvalidInput)
	ErrImageTooLarge     = fmt.Errorf("%w: image file too large", ErrInvalidInput)
	ErrUnsupportedAudio  = fmt.Errorf("%w: unsupported audio type", ErrInvalidInput)
	ErrAudioTooLarge     = fmt.Errorf("%w: audio file too large", ErrInvalidInput)
	ErrNarrationRequired = fmt.Errorf("%w: narration text is required", ErrInvalidInput)
	ErrNarrationTooLong  = fmt.Errorf("%w: narration text too long", ErrInvalidInput)
	ErrUnknownVoice      = fmt.Errorf("%w: unknown voice", ErrInvalidInput)
	ErrInvalidSettings   = fmt.Errorf("%w: invalid settings", ErrInvalidInput)
)

// Controller errors.
var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current playback state.
	ErrInvalidTransition = errors.New("sketchreel: invalid state transition")

	// ErrClosed is returned when the controller is no longer running.
	ErrClosed = errors.New("sketchreel: controller closed")
)

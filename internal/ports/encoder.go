package ports

import (
	"context"
	"image"
	"io"
)

// EncodeSpec describes the stream an encoder session must produce.
type EncodeSpec struct {
	Width     int
	Height    int
	FrameRate int
	Bitrate   int // bits per second

	// Audio is false for video-only sessions.
	Audio      bool
	SampleRate int
	Channels   int
}

// Encoder opens encode sessions.
type Encoder interface {
	// Open starts a session. It fails with domain.ErrResourceUnavailable
	// when the backing encoder cannot be used.
	Open(ctx context.Context, spec EncodeSpec) (EncodeSession, error)
}

// EncodeSession accepts raw media and yields an encoded byte stream.
//
// WriteFrame and WriteAudio may be called from different goroutines, but
// each from only one. Output must be drained until EOF for Close to return.
type EncodeSession interface {
	// WriteFrame writes one frame with exactly the EncodeSpec dimensions.
	WriteFrame(img *image.RGBA) error

	// WriteAudio writes interleaved signed 16-bit samples.
	WriteAudio(samples []int16) error

	// Output is the encoded stream.
	Output() io.Reader

	// MIMEType of the encoded stream, e.g. "video/webm".
	MIMEType() string

	// Close ends the inputs and waits for the encoder to flush.
	Close() error

	// Abort stops the encoder without flushing. Safe to call repeatedly.
	Abort() error
}

package ports

import (
	"context"
	"image"
)

// ImageSource supplies the decoded images of a session, in order.
type ImageSource interface {
	Images(ctx context.Context) ([]image.Image, error)
}

// Narrator turns text into encoded speech audio (for example MP3 bytes).
type Narrator interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

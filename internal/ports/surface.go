package ports

import (
	"image"
	"image/color"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// StrokeStyle is the pen used for one DrawStroke call.
type StrokeStyle struct {
	Color color.Color
	Width float64
}

// Surface is the raster target of the animation.
// All methods are called from the controller goroutine only.
type Surface interface {
	// Resize sets the working dimensions and clears to the background.
	Resize(width, height int)

	// Clear fills the surface with the background colour.
	Clear()

	// DrawStroke renders points as one connected polyline with round caps
	// and joins. Fewer than two points draw nothing.
	DrawStroke(points []domain.Point, style StrokeStyle)

	// Frame returns the current pixels. The image must not be retained
	// across later draw calls.
	Frame() image.Image

	// Size reports the current dimensions.
	Size() (width, height int)
}

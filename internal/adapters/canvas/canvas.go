// Package canvas implements ports.Surface on a software-rendered gogpu/gg
// context.
package canvas

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// Canvas draws pencil strokes on a white background.
type Canvas struct {
	dc         *gg.Context
	background gg.RGBA
	width      int
	height     int
}

// New creates a blank canvas.
func New(width, height int) *Canvas {
	c := &Canvas{background: gg.White}
	c.Resize(width, height)
	return c
}

// Resize replaces the backing context when the size changes and clears it.
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if c.dc == nil || width != c.width || height != c.height {
		if c.dc != nil {
			_ = c.dc.Close()
		}
		c.dc = gg.NewContext(width, height)
		c.width, c.height = width, height
	}
	c.Clear()
}

// Clear fills the canvas with the background colour.
func (c *Canvas) Clear() {
	c.dc.ClearWithColor(c.background)
}

// DrawStroke renders points as a round-capped polyline.
func (c *Canvas) DrawStroke(points []domain.Point, style ports.StrokeStyle) {
	if !domain.Stroke(points).Drawable() {
		return
	}
	c.dc.SetColor(style.Color)
	c.dc.SetLineWidth(style.Width)
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineJoin(gg.LineJoinRound)

	c.dc.MoveTo(float64(points[0].X), float64(points[0].Y))
	for _, p := range points[1:] {
		c.dc.LineTo(float64(p.X), float64(p.Y))
	}
	_ = c.dc.Stroke()
}

// Frame returns the rendered pixels.
func (c *Canvas) Frame() image.Image {
	return c.dc.Image()
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Close releases the backing context.
func (c *Canvas) Close() error {
	if c.dc == nil {
		return nil
	}
	err := c.dc.Close()
	c.dc = nil
	return err
}

var _ ports.Surface = (*Canvas)(nil)

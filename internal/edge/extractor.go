// Package edge finds contour points in raster images.
//
// Images are first bounded to [MaxWidth]x[MaxHeight] (aspect preserved), then
// every interior pixel is compared with its right and bottom neighbours. A
// pixel whose summed absolute grey difference exceeds the threshold is an
// edge point.
package edge

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// Working resolution bounds.
const (
	MaxWidth  = 800
	MaxHeight = 600
)

// Extract returns the edge points of img at the given threshold.
// Points are in row-major order. ctx is checked once per row.
func Extract(ctx context.Context, img image.Image, threshold float64) (domain.EdgeSet, error) {
	if img == nil {
		return domain.EdgeSet{}, fmt.Errorf("%w: nil image", domain.ErrInvalidInput)
	}
	px := Normalize(img)
	w, h := px.Rect.Dx(), px.Rect.Dy()

	set := domain.EdgeSet{Width: w, Height: h}
	for y := 1; y < h-1; y++ {
		if err := ctx.Err(); err != nil {
			return domain.EdgeSet{}, err
		}
		for x := 1; x < w-1; x++ {
			g := grey(px, x, y)
			gradient := math.Abs(g-grey(px, x+1, y)) + math.Abs(g-grey(px, x, y+1))
			if gradient > threshold {
				set.Points = append(set.Points, domain.Point{X: x, Y: y})
			}
		}
	}
	return set, nil
}

// WorkingSize returns the dimensions an image of w x h is processed at.
func WorkingSize(w, h int) (int, int) {
	if w <= MaxWidth && h <= MaxHeight {
		return w, h
	}
	ratio := math.Min(float64(MaxWidth)/float64(w), float64(MaxHeight)/float64(h))
	return int(float64(w) * ratio), int(float64(h) * ratio)
}

// Normalize converts img to a zero-origin NRGBA at working resolution.
func Normalize(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := WorkingSize(b.Dx(), b.Dy())
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

func grey(px *image.NRGBA, x, y int) float64 {
	i := px.PixOffset(x, y)
	s := px.Pix[i : i+3 : i+3]
	return (float64(s[0]) + float64(s[1]) + float64(s[2])) / 3
}

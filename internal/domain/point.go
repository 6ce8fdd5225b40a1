package domain

import "gonum.org/v1/gonum/spatial/r2"

// Point is a pixel coordinate in working resolution.
type Point struct {
	X, Y int
}

// Vec returns p as a gonum vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return r2.Norm(r2.Sub(p.Vec(), q.Vec()))
}

// Dist2 returns the squared Euclidean distance between p and q.
func (p Point) Dist2(q Point) int {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// EdgeSet is the unordered set of edge points found in one image, together
// with the working dimensions they were found in.
type EdgeSet struct {
	Points []Point
	Width  int
	Height int
}

// Len returns the number of points.
func (e EdgeSet) Len() int { return len(e.Points) }

// OrderedPath is the drawing order of one image's edge points.
// It is a permutation of the EdgeSet it was built from.
type OrderedPath struct {
	Points []Point
	Width  int
	Height int
}

// Len returns the number of points.
func (p OrderedPath) Len() int { return len(p.Points) }

// Stroke is a run of contiguous points rendered as one connected line.
type Stroke []Point

// Drawable reports whether the stroke has enough points to produce a line.
func (s Stroke) Drawable() bool { return len(s) >= 2 }

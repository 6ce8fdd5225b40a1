// Package tour orders edge points into a drawing path.
//
// The path is a greedy nearest-neighbour tour: it starts at the first input
// point and repeatedly moves to the closest remaining point. Ties go to the
// point that appears earliest in the input. For edge sets produced by
// internal/edge, the first point is the top-most, then left-most, edge pixel.
//
// Two strategies produce identical output. [Naive] is the quadratic reference
// scan. [Grid] buckets points into square cells and searches outward ring by
// ring, which keeps each step close to constant time for the dense contour
// sets typical of sketches (a few thousand points, up to tens of thousands on
// noisy images at low thresholds).
package tour

import (
	"context"
	"fmt"
	"slices"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// Strategy selects the nearest-neighbour search.
type Strategy int

const (
	// Grid uses a uniform bucket grid.
	Grid Strategy = iota
	// Naive scans every remaining point on each step.
	Naive
)

// DefaultCellSize is the grid cell edge in pixels.
const DefaultCellSize = 8

// cancelCheck is how many steps run between context checks.
const cancelCheck = 256

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Grid:
		return "grid"
	case Naive:
		return "naive"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "grid" or "naive".
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "grid", "":
		return Grid, nil
	case "naive":
		return Naive, nil
	default:
		return Grid, fmt.Errorf("%w: unknown sequencer %q", domain.ErrInvalidInput, name)
	}
}

// Sequence returns points in greedy nearest-neighbour order.
// The input slice is not modified.
func Sequence(ctx context.Context, points []domain.Point, s Strategy) ([]domain.Point, error) {
	if len(points) < 2 {
		return slices.Clone(points), nil
	}
	switch s {
	case Naive:
		return naive(ctx, points)
	default:
		return grid(ctx, points, DefaultCellSize)
	}
}

// Path builds the OrderedPath of an edge set.
func Path(ctx context.Context, set domain.EdgeSet, s Strategy) (domain.OrderedPath, error) {
	pts, err := Sequence(ctx, set.Points, s)
	if err != nil {
		return domain.OrderedPath{}, err
	}
	return domain.OrderedPath{Points: pts, Width: set.Width, Height: set.Height}, nil
}

func naive(ctx context.Context, points []domain.Point) ([]domain.Point, error) {
	out := make([]domain.Point, 0, len(points))
	cur := points[0]
	out = append(out, cur)

	remaining := slices.Clone(points[1:])
	for step := 0; len(remaining) > 0; step++ {
		if step%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		best, bestD := 0, cur.Dist(remaining[0])
		for i := 1; i < len(remaining); i++ {
			if d := cur.Dist(remaining[i]); d < bestD {
				best, bestD = i, d
			}
		}
		cur = remaining[best]
		out = append(out, cur)
		remaining = slices.Delete(remaining, best, best+1)
	}
	return out, nil
}

package tour

import (
	"context"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// cellIndex buckets remaining point indices by cell. Bucket order is not
// meaningful; ties are broken on the point's input index.
type cellIndex struct {
	points     []domain.Point
	size       int
	minX, minY int
	cols, rows int
	cells      [][]int
	left       int
}

func newCellIndex(points []domain.Point, size int) *cellIndex {
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	g := &cellIndex{
		points: points,
		size:   size,
		minX:   minX,
		minY:   minY,
		cols:   (maxX-minX)/size + 1,
		rows:   (maxY-minY)/size + 1,
	}
	g.cells = make([][]int, g.cols*g.rows)
	for i, p := range points {
		c := g.cellOf(p)
		g.cells[c] = append(g.cells[c], i)
	}
	g.left = len(points)
	return g
}

func (g *cellIndex) coords(p domain.Point) (int, int) {
	return (p.X - g.minX) / g.size, (p.Y - g.minY) / g.size
}

func (g *cellIndex) cellOf(p domain.Point) int {
	cx, cy := g.coords(p)
	return cy*g.cols + cx
}

func (g *cellIndex) remove(i int) {
	c := g.cellOf(g.points[i])
	bucket := g.cells[c]
	for k, idx := range bucket {
		if idx == i {
			last := len(bucket) - 1
			bucket[k] = bucket[last]
			g.cells[c] = bucket[:last]
			g.left--
			return
		}
	}
}

// nearest returns the index of the closest remaining point to p, breaking
// ties on the lowest index, or -1 when none remain.
func (g *cellIndex) nearest(p domain.Point) int {
	if g.left == 0 {
		return -1
	}
	cx, cy := g.coords(p)
	best, bestD2 := -1, 0
	maxRing := max(g.cols, g.rows)

	for r := 0; r <= maxRing; r++ {
		for y := cy - r; y <= cy+r; y++ {
			if y < 0 || y >= g.rows {
				continue
			}
			edgeRow := y == cy-r || y == cy+r
			for x := cx - r; x <= cx+r; x++ {
				if x < 0 || x >= g.cols {
					continue
				}
				if !edgeRow && x != cx-r && x != cx+r {
					continue
				}
				for _, idx := range g.cells[y*g.cols+x] {
					d2 := p.Dist2(g.points[idx])
					if best < 0 || d2 < bestD2 || (d2 == bestD2 && idx < best) {
						best, bestD2 = idx, d2
					}
				}
			}
		}
		if best >= 0 {
			// Every point in ring r+1 is at least r*size+1 away on one axis.
			bound := r*g.size + 1
			if bound*bound > bestD2 {
				break
			}
		}
	}
	return best
}

func grid(ctx context.Context, points []domain.Point, size int) ([]domain.Point, error) {
	idx := newCellIndex(points, size)
	out := make([]domain.Point, 0, len(points))

	cur := 0
	idx.remove(cur)
	out = append(out, points[cur])

	for step := 0; ; step++ {
		if step%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cur = idx.nearest(points[cur])
		if cur < 0 {
			break
		}
		idx.remove(cur)
		out = append(out, points[cur])
	}
	return out, nil
}

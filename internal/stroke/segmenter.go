// Package stroke splits an ordered path into pen strokes.
package stroke

import "github.com/bft-labs/sketchreel/internal/domain"

// DefaultGap is the pen-lift distance. Consecutive points closer than this
// share a stroke; at or beyond it a new stroke begins.
const DefaultGap = 10.0

// Segmenter groups consecutive points into strokes.
// The zero value is not usable; use New.
type Segmenter struct {
	gap     float64
	current domain.Stroke
}

// New returns a Segmenter that breaks strokes at gap.
func New(gap float64) *Segmenter {
	if gap <= 0 {
		gap = DefaultGap
	}
	return &Segmenter{gap: gap}
}

// Add appends p to the current stroke, or, when p is at least gap away from
// the stroke's last point, returns the finished stroke and starts a new one
// with p.
func (s *Segmenter) Add(p domain.Point) (domain.Stroke, bool) {
	if len(s.current) == 0 {
		s.current = append(s.current, p)
		return nil, false
	}
	last := s.current[len(s.current)-1]
	if last.Dist(p) < s.gap {
		s.current = append(s.current, p)
		return nil, false
	}
	done := s.current
	s.current = domain.Stroke{p}
	return done, true
}

// Current returns the stroke in progress. The slice is shared with the
// segmenter and is only valid until the next Add.
func (s *Segmenter) Current() domain.Stroke {
	return s.current
}

// Flush returns the stroke in progress and clears it.
func (s *Segmenter) Flush() domain.Stroke {
	done := s.current
	s.current = nil
	return done
}

// Reset discards the stroke in progress.
func (s *Segmenter) Reset() {
	s.current = nil
}

// Split segments a whole path at once.
func Split(points []domain.Point, gap float64) []domain.Stroke {
	s := New(gap)
	var out []domain.Stroke
	for _, p := range points {
		if done, ok := s.Add(p); ok {
			out = append(out, done)
		}
	}
	if last := s.Flush(); len(last) > 0 {
		out = append(out, last)
	}
	return out
}

package app

import (
	"image"
	"testing"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// recordingSurface implements ports.Surface and records draw calls.
type recordingSurface struct {
	strokes [][]domain.Point
	clears  int
	w, h    int
}

func (s *recordingSurface) Resize(width, height int) {
	s.w, s.h = width, height
	s.clears++
}

func (s *recordingSurface) Clear() { s.clears++ }

func (s *recordingSurface) DrawStroke(points []domain.Point, style ports.StrokeStyle) {
	s.strokes = append(s.strokes, append([]domain.Point(nil), points...))
}

func (s *recordingSurface) Frame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, max(s.w, 1), max(s.h, 1)))
}

func (s *recordingSurface) Size() (int, int) { return s.w, s.h }

func line(n int) domain.OrderedPath {
	pts := make([]domain.Point, n)
	for i := range pts {
		pts[i] = domain.Point{X: i, Y: 0}
	}
	return domain.OrderedPath{Points: pts, Width: n, Height: 1}
}

func TestSchedulerTickConsumesSpeed(t *testing.T) {
	s := NewScheduler(1)
	s.Load(line(25))
	surf := &recordingSurface{}

	res := s.Tick(surf, 10, ports.StrokeStyle{})
	if res.Consumed != 10 || res.ImageDone {
		t.Fatalf("tick = %+v, want 10 consumed, not done", res)
	}
	if s.Cursor() != 10 {
		t.Errorf("cursor = %d, want 10", s.Cursor())
	}
	if got := s.ImageProgress(); got != 40 {
		t.Errorf("image progress = %v, want 40", got)
	}

	s.Tick(surf, 10, ports.StrokeStyle{})
	res = s.Tick(surf, 10, ports.StrokeStyle{})
	if res.Consumed != 5 || !res.ImageDone {
		t.Fatalf("last tick = %+v, want 5 consumed, done", res)
	}
	if s.ImageProgress() != 100 {
		t.Errorf("image progress = %v, want 100", s.ImageProgress())
	}
}

func TestSchedulerDrawsPartialStroke(t *testing.T) {
	s := NewScheduler(1)
	s.Load(line(5))
	surf := &recordingSurface{}

	s.Tick(surf, 3, ports.StrokeStyle{})
	if len(surf.strokes) != 1 || len(surf.strokes[0]) != 3 {
		t.Fatalf("strokes = %v, want one partial stroke of 3 points", surf.strokes)
	}
}

func TestSchedulerBreaksStrokesOnGap(t *testing.T) {
	path := domain.OrderedPath{
		Points: []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 50, Y: 0}, {X: 51, Y: 0}},
		Width:  60, Height: 1,
	}
	s := NewScheduler(1)
	s.Load(path)
	surf := &recordingSurface{}

	s.Tick(surf, 4, ports.StrokeStyle{})
	// Closed stroke {0,1} then the partial stroke {50,51}.
	if len(surf.strokes) != 2 {
		t.Fatalf("got %d strokes, want 2", len(surf.strokes))
	}
	if surf.strokes[0][1] != (domain.Point{X: 1, Y: 0}) || surf.strokes[1][0] != (domain.Point{X: 50, Y: 0}) {
		t.Errorf("strokes = %v", surf.strokes)
	}
}

func TestSchedulerEmptyPath(t *testing.T) {
	s := NewScheduler(2)
	s.Load(domain.OrderedPath{})
	res := s.Tick(&recordingSurface{}, 5, ports.StrokeStyle{})
	if !res.ImageDone || res.Consumed != 0 {
		t.Fatalf("tick = %+v, want done with nothing consumed", res)
	}
	if s.ImageProgress() != 100 {
		t.Errorf("image progress = %v, want 100", s.ImageProgress())
	}
	if s.OverallProgress() != 50 {
		t.Errorf("overall = %v, want 50", s.OverallProgress())
	}
}

func TestSchedulerNotLoaded(t *testing.T) {
	s := NewScheduler(1)
	surf := &recordingSurface{}
	if res := s.Tick(surf, 5, ports.StrokeStyle{}); res != (TickResult{}) {
		t.Errorf("tick without path = %+v", res)
	}
	if len(surf.strokes) != 0 {
		t.Error("drew without a path")
	}
}

func TestSchedulerOverallProgress(t *testing.T) {
	const images = 3
	s := NewScheduler(images)
	surf := &recordingSurface{}

	last := -1.0
	for i := range images {
		s.Load(line(7))
		if i > 0 && s.ImageProgress() != 0 {
			t.Fatalf("image %d: progress not reset at transition", i)
		}
		for {
			res := s.Tick(surf, 3, ports.StrokeStyle{})
			got := s.OverallProgress()
			if got < last {
				t.Fatalf("overall progress went backwards: %v after %v", got, last)
			}
			last = got
			if res.ImageDone {
				break
			}
		}
		if i < images-1 {
			if s.OverallProgress() >= 100 {
				t.Fatalf("overall reached 100 before the last image")
			}
			if !s.Advance() {
				t.Fatalf("advance after image %d returned false", i)
			}
			if s.Index() != i+1 || s.Loaded() {
				t.Fatalf("after advance: index %d loaded %v", s.Index(), s.Loaded())
			}
		}
	}

	if got := s.OverallProgress(); got >= 100 || got < pendingProgressCap {
		t.Errorf("overall after drawing the last image = %v, want %v until finish", got, pendingProgressCap)
	}
	if !s.Last() {
		t.Fatal("expected last image")
	}
	if s.Advance() {
		t.Fatal("advance past last image")
	}
	s.Finish()
	if s.OverallProgress() != 100 {
		t.Errorf("overall after finish = %v, want 100", s.OverallProgress())
	}
}

func TestSchedulerSingleImageHoldsBelowComplete(t *testing.T) {
	tests := []struct {
		name string
		path domain.OrderedPath
	}{
		{"drawn path", line(4)},
		{"empty path", domain.OrderedPath{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(1)
			s.Load(tt.path)
			for {
				if res := s.Tick(&recordingSurface{}, 10, ports.StrokeStyle{}); res.ImageDone {
					break
				}
			}
			if s.ImageProgress() != 100 {
				t.Errorf("image progress = %v, want 100", s.ImageProgress())
			}
			if s.OverallProgress() >= 100 {
				t.Errorf("overall = %v before finish, want below 100", s.OverallProgress())
			}
			s.Finish()
			if s.OverallProgress() != 100 {
				t.Errorf("overall after finish = %v, want 100", s.OverallProgress())
			}
		})
	}
}

func TestSchedulerRestartImage(t *testing.T) {
	s := NewScheduler(1)
	s.Load(line(10))
	s.Tick(&recordingSurface{}, 6, ports.StrokeStyle{})
	s.RestartImage()
	if s.Cursor() != 0 || s.ImageProgress() != 0 || len(s.CurrentStroke()) != 0 {
		t.Errorf("restart left cursor %d progress %v stroke %d", s.Cursor(), s.ImageProgress(), len(s.CurrentStroke()))
	}
	if !s.Loaded() || s.PathLen() != 10 {
		t.Error("restart dropped the path")
	}

	s.Unload()
	if s.Loaded() || s.PathLen() != 0 {
		t.Error("unload kept the path")
	}
}

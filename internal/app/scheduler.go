package app

import (
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
	"github.com/bft-labs/sketchreel/internal/stroke"
)

// pendingProgressCap bounds overall progress until Finish, so 100 is only
// reported once the session is complete.
const pendingProgressCap = 99.9

// TickResult reports what one tick did.
type TickResult struct {
	Consumed  int
	ImageDone bool
}

// Scheduler paces consumption of one image's path per tick and tracks
// progress across all images of a session.
type Scheduler struct {
	total     int
	index     int
	completed int

	path    domain.OrderedPath
	loaded  bool
	cursor  int
	seg     *stroke.Segmenter
	imagePc float64
	overall float64
}

// NewScheduler creates a scheduler for total images, positioned on image 0
// with no path loaded.
func NewScheduler(total int) *Scheduler {
	return &Scheduler{total: total, seg: stroke.New(stroke.DefaultGap)}
}

// Load installs the path of the current image and rewinds to its start.
func (s *Scheduler) Load(p domain.OrderedPath) {
	s.path = p
	s.loaded = true
	s.RestartImage()
}

// RestartImage rewinds the current image without changing the path.
func (s *Scheduler) RestartImage() {
	s.cursor = 0
	s.seg.Reset()
	s.imagePc = 0
	s.updateOverall()
}

// Unload drops the current path, for example after a threshold change.
func (s *Scheduler) Unload() {
	s.path = domain.OrderedPath{}
	s.loaded = false
	s.RestartImage()
}

// Tick consumes up to speed points, draws every stroke closed along the way
// and then the stroke still in progress.
func (s *Scheduler) Tick(surface ports.Surface, speed int, style ports.StrokeStyle) TickResult {
	var res TickResult
	if !s.loaded {
		return res
	}
	n := s.path.Len()
	for res.Consumed < speed && s.cursor < n {
		if done, ok := s.seg.Add(s.path.Points[s.cursor]); ok {
			surface.DrawStroke(done, style)
		}
		s.cursor++
		res.Consumed++
	}
	if cur := s.seg.Current(); len(cur) > 0 {
		surface.DrawStroke(cur, style)
	}

	if n == 0 {
		s.imagePc = 100
	} else {
		s.imagePc = float64(s.cursor) / float64(n) * 100
	}
	s.updateOverall()

	if s.cursor >= n {
		s.seg.Flush()
		res.ImageDone = true
	}
	return res
}

// Last reports whether the current image is the final one.
func (s *Scheduler) Last() bool { return s.index >= s.total-1 }

// Advance moves to the next image. It returns false after the last image.
func (s *Scheduler) Advance() bool {
	if s.Last() {
		return false
	}
	s.completed++
	s.index++
	s.Unload()
	return true
}

// Finish marks the whole session as drawn.
func (s *Scheduler) Finish() {
	s.completed = s.total
	s.imagePc = 100
	s.overall = 100
}

func (s *Scheduler) updateOverall() {
	if s.total == 0 {
		s.overall = 0
		return
	}
	s.overall = min((float64(s.completed)*100+s.imagePc)/float64(s.total), pendingProgressCap)
}

func (s *Scheduler) Index() int { return s.index }
func (s *Scheduler) Total() int { return s.total }
func (s *Scheduler) Loaded() bool { return s.loaded }
func (s *Scheduler) Cursor() int { return s.cursor }
func (s *Scheduler) PathLen() int { return s.path.Len() }
func (s *Scheduler) ImageProgress() float64 { return s.imagePc }
func (s *Scheduler) OverallProgress() float64 { return s.overall }
func (s *Scheduler) CurrentStroke() domain.Stroke { return s.seg.Current() }

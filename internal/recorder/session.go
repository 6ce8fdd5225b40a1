package recorder

import (
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/bft-labs/sketchreel/internal/ports"
)

// EventKind identifies a session event.
type EventKind int

const (
	// EventData carries one time slice of encoded output.
	EventData EventKind = iota
	// EventStopped is the last event of a session that was stopped.
	EventStopped
	// EventError reports a write or encode failure. The session keeps
	// going until stopped or aborted.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventStopped:
		return "stopped"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered on Session.Events.
type Event struct {
	Session uuid.UUID
	Kind    EventKind
	Chunk   []byte
	Err     error
}

const (
	framePool  = 4
	audioQueue = 64
	readSize   = 32 << 10
)

// Session is one recording. WriteFrame, WriteAudio, Stop and Abort must be
// called from a single goroutine.
type Session struct {
	id     uuid.UUID
	enc    ports.EncodeSession
	cfg    Config
	logger ports.Logger

	frames chan *image.RGBA
	free   chan *image.RGBA
	audio  chan []int16
	events chan Event

	quit     chan struct{}
	writers  sync.WaitGroup
	closeErr chan error

	stopped   bool
	abortOnce sync.Once
	dropped   atomic.Int64
	withAudio bool
}

func newSession(id uuid.UUID, enc ports.EncodeSession, cfg Config, withAudio bool, logger ports.Logger) *Session {
	s := &Session{
		id:        id,
		enc:       enc,
		cfg:       cfg,
		logger:    logger,
		frames:    make(chan *image.RGBA, framePool),
		free:      make(chan *image.RGBA, framePool),
		audio:     make(chan []int16, audioQueue),
		events:    make(chan Event, 16),
		quit:      make(chan struct{}),
		closeErr:  make(chan error, 1),
		withAudio: withAudio,
	}
	for range framePool {
		s.free <- image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// MIMEType of the encoded output.
func (s *Session) MIMEType() string { return s.enc.MIMEType() }

// Events delivers data, stop and error events.
func (s *Session) Events() <-chan Event { return s.events }

// HasAudio reports whether the stream carries audio.
func (s *Session) HasAudio() bool { return s.withAudio }

// Dropped returns the number of frames and audio blocks dropped because the
// encoder fell behind.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

func (s *Session) start() {
	s.writers.Add(2)
	go s.writeFrames()
	go s.writeAudio()

	raw := make(chan []byte, 8)
	go s.read(raw)
	go s.slice(raw)

	go func() {
		s.writers.Wait()
		select {
		case <-s.quit:
			return
		default:
		}
		s.closeErr <- s.enc.Close()
	}()
}

// WriteFrame letterboxes img into the output size and queues it. It returns
// false when the frame was dropped.
func (s *Session) WriteFrame(img image.Image) bool {
	if s.stopped {
		return false
	}
	var buf *image.RGBA
	select {
	case buf = <-s.free:
	default:
		s.dropped.Add(1)
		return false
	}
	Letterbox(buf, img)
	s.frames <- buf
	return true
}

// WriteAudio queues a copy of samples. It returns false when the block was
// dropped or the session has no audio.
func (s *Session) WriteAudio(samples []int16) bool {
	if s.stopped || !s.withAudio {
		return false
	}
	block := make([]int16, len(samples))
	copy(block, samples)
	select {
	case s.audio <- block:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Stop ends the inputs and lets the encoder flush. The session emits its
// remaining data followed by EventStopped.
func (s *Session) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.frames)
	close(s.audio)
}

// Abort kills the encoder without finalizing. No further events are
// guaranteed after Abort. Safe to call repeatedly and after Stop.
func (s *Session) Abort() error {
	var err error
	s.abortOnce.Do(func() {
		close(s.quit)
		s.Stop()
		err = s.enc.Abort()
	})
	return err
}

func (s *Session) emit(ev Event) {
	ev.Session = s.id
	select {
	case s.events <- ev:
	case <-s.quit:
	}
}

func (s *Session) writeFrames() {
	defer s.writers.Done()
	for buf := range s.frames {
		err := s.enc.WriteFrame(buf)
		s.free <- buf
		if err != nil {
			s.emit(Event{Kind: EventError, Err: err})
			s.drainFrames()
			return
		}
	}
}

func (s *Session) drainFrames() {
	for buf := range s.frames {
		s.free <- buf
	}
}

func (s *Session) writeAudio() {
	defer s.writers.Done()
	for block := range s.audio {
		if err := s.enc.WriteAudio(block); err != nil {
			s.emit(Event{Kind: EventError, Err: err})
			for range s.audio {
			}
			return
		}
	}
}

func (s *Session) read(raw chan<- []byte) {
	defer close(raw)
	out := s.enc.Output()
	for {
		buf := make([]byte, readSize)
		n, err := out.Read(buf)
		if n > 0 {
			select {
			case raw <- buf[:n]:
			case <-s.quit:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case <-s.quit:
				default:
					s.emit(Event{Kind: EventError, Err: err})
				}
			}
			return
		}
	}
}

// slice batches raw output into one chunk per timeslice.
func (s *Session) slice(raw <-chan []byte) {
	ticker := time.NewTicker(s.cfg.Timeslice)
	defer ticker.Stop()

	var pending []byte
	flush := func() {
		if len(pending) == 0 {
			return
		}
		s.emit(Event{Kind: EventData, Chunk: pending})
		pending = nil
	}

	for {
		select {
		case <-s.quit:
			return
		case b, ok := <-raw:
			if !ok {
				flush()
				s.finish()
				return
			}
			pending = append(pending, b...)
		case <-ticker.C:
			flush()
		}
	}
}

func (s *Session) finish() {
	select {
	case <-s.quit:
		return
	case err := <-s.closeErr:
		if err != nil {
			s.emit(Event{Kind: EventError, Err: err})
		}
		if n := s.dropped.Load(); n > 0 {
			s.logger.Warn("recorder dropped input", ports.Int64("dropped", n))
		}
		s.emit(Event{Kind: EventStopped})
	}
}

// Letterbox scales src into dst preserving aspect ratio, centred on white.
func Letterbox(dst *image.RGBA, src image.Image) {
	db, sb := dst.Bounds(), src.Bounds()
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() {
		draw.Draw(dst, db, src, sb.Min, draw.Src)
		return
	}
	draw.Draw(dst, db, image.NewUniform(color.White), image.Point{}, draw.Src)
	if sb.Empty() {
		return
	}

	scale := min(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	x0 := db.Min.X + (db.Dx()-w)/2
	y0 := db.Min.Y + (db.Dy()-h)/2
	draw.ApproxBiLinear.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), src, sb, draw.Over, nil)
}

package app

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/sketchreel/internal/audio"
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
	"github.com/bft-labs/sketchreel/internal/recorder"
	"github.com/bft-labs/sketchreel/internal/tour"
)

// DefaultTickRate is the animation rate in ticks per second.
const DefaultTickRate = 60

// Track names on the mixer.
const (
	NarrationTrack  = "narration"
	BackgroundTrack = "background"
)

// Config holds controller options.
type Config struct {
	Settings  domain.Settings
	Sequencer tour.Strategy
	TickRate  int
	// Record arms the recorder on every Start.
	Record bool
}

// DefaultConfig returns a Config with default settings, grid sequencing and
// recording enabled.
func DefaultConfig() Config {
	return Config{
		Settings:  domain.DefaultSettings(),
		Sequencer: tour.Grid,
		TickRate:  DefaultTickRate,
		Record:    true,
	}
}

// Media is the input of one session.
type Media struct {
	Images    []image.Image
	Narration string

	// NarrationTrack and Background are optional. A nil track is skipped.
	NarrationTrack *audio.Track
	Background     *audio.Track
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdPause
	cmdResume
	cmdReset
	cmdSettings
)

type command struct {
	kind     commandKind
	media    Media
	settings domain.Settings
	reply    chan error
}

// Controller owns playback of one session at a time. A single goroutine,
// started by Run, owns the scheduler, surface, recorder session and mixer;
// the exported methods hand commands to it and wait for the result.
type Controller struct {
	cfg       Config
	surface   ports.Surface
	rec       *recorder.Recorder
	store     ports.ArtifactStore
	logger    ports.Logger
	observer  Observer
	lifecycle *Lifecycle

	cmds     chan command
	prepared chan prepared
	done     chan struct{}

	statusMu sync.RWMutex
	status   Status

	// Owned by the Run goroutine.
	runCtx     context.Context
	prepCtx    context.Context
	prepCancel context.CancelFunc
	generation int
	cache      map[int]domain.OrderedPath
	pending    map[int]bool

	settings domain.Settings
	media    Media
	sched    *Scheduler

	hold          *time.Timer
	holdC         <-chan time.Time
	holdDeadline  time.Time
	holdRemaining time.Duration

	session  *recorder.Session
	chunks   [][]byte
	artifact string

	mixer    *audio.Mixer
	tracks   []*audio.Track
	resume   []*audio.Track
	audioBuf []int16
}

// NewController creates a controller. rec and store may be nil, in which case
// sessions run without recording. observer may be nil.
func NewController(cfg Config, surface ports.Surface, rec *recorder.Recorder, store ports.ArtifactStore, logger ports.Logger, observer Observer) *Controller {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if observer == nil {
		observer = noopObserver{}
	}
	c := &Controller{
		cfg:      cfg,
		surface:  surface,
		rec:      rec,
		store:    store,
		logger:   logger,
		observer: observer,
		cmds:     make(chan command),
		prepared: make(chan prepared),
		done:     make(chan struct{}),
		cache:    make(map[int]domain.OrderedPath),
		pending:  make(map[int]bool),
		settings: cfg.Settings,
		sched:    NewScheduler(0),
		audioBuf: make([]int16, audio.FrameSamples),
	}
	c.lifecycle = NewLifecycle(logger, observer)
	c.status = Status{State: StateIdle, Settings: cfg.Settings}
	return c
}

// Run drives the controller until ctx is canceled. Any active session is torn
// down before Run returns. Run must be called once.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	c.prepCtx, c.prepCancel = context.WithCancel(ctx)
	defer close(c.done)

	frame := time.NewTicker(time.Second / time.Duration(c.cfg.TickRate))
	defer frame.Stop()
	captureEvery := recorder.DefaultConfig().FrameInterval()
	if c.rec != nil {
		captureEvery = c.rec.Config().FrameInterval()
	}
	capture := time.NewTicker(captureEvery)
	defer capture.Stop()
	pump := time.NewTicker(audio.FrameDuration)
	defer pump.Stop()

	c.logger.Info("controller started",
		ports.Int("tick_rate", c.cfg.TickRate),
		ports.String("sequencer", c.cfg.Sequencer.String()),
		ports.Bool("record", c.cfg.Record))

	for {
		playing := c.lifecycle.State() == StatePlaying

		// Nil channels disable the corresponding case.
		var frameC, captureC, pumpC, holdC <-chan time.Time
		var events <-chan recorder.Event
		if playing && c.sched.Loaded() && c.holdC == nil {
			frameC = frame.C
		}
		if playing && c.session != nil {
			captureC = capture.C
		}
		if playing && c.mixer != nil {
			pumpC = pump.C
		}
		if playing {
			holdC = c.holdC
		}
		if c.session != nil {
			events = c.session.Events()
		}

		select {
		case <-ctx.Done():
			c.teardown("shutdown")
			c.prepCancel()
			c.lifecycle.WaitWithTimeout(ShutdownTimeout)
			c.logger.Info("controller stopped")
			return ctx.Err()
		case cmd := <-c.cmds:
			cmd.reply <- c.handle(cmd)
		case p := <-c.prepared:
			c.onPrepared(p)
		case <-frameC:
			c.tick()
		case <-holdC:
			c.onHold()
		case <-captureC:
			c.capture()
		case <-pumpC:
			c.pumpAudio()
		case ev := <-events:
			c.onRecorderEvent(ev)
		}
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Start begins a new session, replacing any active one. Images and narration
// text are validated before anything is torn down.
func (c *Controller) Start(m Media) error {
	if len(m.Images) == 0 {
		return domain.ErrNoImages
	}
	if strings.TrimSpace(m.Narration) == "" {
		return domain.ErrNarrationRequired
	}
	return c.send(command{kind: cmdStart, media: m})
}

// Pause suspends drawing, audio and capture. It is a no-op unless playing.
func (c *Controller) Pause() error { return c.send(command{kind: cmdPause}) }

// Resume continues a paused session.
func (c *Controller) Resume() error { return c.send(command{kind: cmdResume}) }

// Reset discards the active session without producing an artifact.
func (c *Controller) Reset() error { return c.send(command{kind: cmdReset}) }

// UpdateSettings validates and applies s. A changed edge threshold restarts
// the current image.
func (c *Controller) UpdateSettings(s domain.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return c.send(command{kind: cmdSettings, settings: s})
}

// Status returns the latest published snapshot.
func (c *Controller) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

func (c *Controller) send(cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return domain.ErrClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		return domain.ErrClosed
	}
}

func (c *Controller) handle(cmd command) error {
	switch cmd.kind {
	case cmdStart:
		return c.start(cmd.media)
	case cmdPause:
		return c.pause()
	case cmdResume:
		return c.resumePlayback()
	case cmdReset:
		c.teardown("reset")
		return nil
	case cmdSettings:
		c.applySettings(cmd.settings)
		return nil
	default:
		return fmt.Errorf("unknown command %d", cmd.kind)
	}
}

func (c *Controller) start(m Media) error {
	c.teardown("restart")

	c.media = m
	c.sched = NewScheduler(len(m.Images))
	c.artifact = ""
	c.chunks = nil

	if m.NarrationTrack != nil || m.Background != nil {
		c.mixer = audio.NewMixer()
		if m.NarrationTrack != nil {
			c.mixer.Connect(NarrationTrack, m.NarrationTrack, c.settings.NarrationGain)
			c.tracks = append(c.tracks, m.NarrationTrack)
		}
		if m.Background != nil {
			c.mixer.Connect(BackgroundTrack, m.Background, c.settings.BackgroundGain)
			c.tracks = append(c.tracks, m.Background)
		}
	}

	// The recorder is armed before audio starts so the stream has no
	// leading gap.
	if c.cfg.Record {
		c.armRecording(c.mixer != nil)
	}
	for _, t := range c.tracks {
		t.Rewind()
		if err := t.Play(); err != nil {
			c.warn(err, "audio track unavailable", ports.String("track", t.Name()))
		}
	}

	if err := c.lifecycle.TransitionTo(StatePlaying, "start"); err != nil {
		return err
	}
	c.logger.Info("session started",
		ports.Int("images", len(m.Images)),
		ports.Int("tracks", len(c.tracks)),
		ports.Bool("recording", c.session != nil))

	c.requestPath(0)
	c.requestPath(1)
	c.publish()
	return nil
}

func (c *Controller) armRecording(withAudio bool) {
	if c.rec == nil {
		c.warn(fmt.Errorf("%w: no recorder configured", domain.ErrResourceUnavailable), "recording unavailable, continuing without")
		return
	}
	s, err := c.rec.Start(c.runCtx, withAudio)
	if err != nil {
		c.warn(err, "recording unavailable, continuing without")
		return
	}
	c.session = s
}

func (c *Controller) pause() error {
	if c.lifecycle.State() != StatePlaying {
		return nil
	}
	c.resume = c.resume[:0]
	for _, t := range c.tracks {
		if t.Playing() {
			c.resume = append(c.resume, t)
			t.Pause()
		}
	}
	if c.hold != nil {
		c.holdRemaining = max(time.Until(c.holdDeadline), 0)
		c.hold.Stop()
		c.hold = nil
	}
	err := c.lifecycle.TransitionTo(StatePaused, "pause")
	c.publish()
	return err
}

func (c *Controller) resumePlayback() error {
	switch c.lifecycle.State() {
	case StatePlaying:
		return nil
	case StatePaused:
	default:
		return fmt.Errorf("%w: cannot resume from %s", domain.ErrInvalidTransition, c.lifecycle.State())
	}
	for _, t := range c.resume {
		if err := t.Play(); err != nil {
			c.warn(err, "audio track unavailable", ports.String("track", t.Name()))
		}
	}
	c.resume = c.resume[:0]
	if c.holdC != nil {
		c.startHold(c.holdRemaining)
	}
	err := c.lifecycle.TransitionTo(StatePlaying, "resume")
	c.publish()
	return err
}

func (c *Controller) applySettings(s domain.Settings) {
	prev := c.settings
	c.settings = s
	if c.mixer != nil {
		c.mixer.SetGain(NarrationTrack, s.NarrationGain)
		c.mixer.SetGain(BackgroundTrack, s.BackgroundGain)
	}
	c.logger.Debug("settings updated",
		ports.Int("speed", s.Speed),
		ports.Float64("thickness", s.StrokeThickness),
		ports.Float64("threshold", s.EdgeThreshold),
		ports.String("color", s.StrokeColor))

	state := c.lifecycle.State()
	if s.EdgeThreshold != prev.EdgeThreshold && (state == StatePlaying || state == StatePaused) {
		c.logger.Info("edge threshold changed, restarting image",
			ports.Int("image", c.sched.Index()),
			ports.Float64("threshold", s.EdgeThreshold))
		c.invalidatePaths()
		c.clearHold()
		c.sched.Unload()
		c.surface.Clear()
		c.requestPath(c.sched.Index())
		c.requestPath(c.sched.Index() + 1)
	}
	c.publish()
}

func (c *Controller) style() ports.StrokeStyle {
	return ports.StrokeStyle{Color: c.settings.Color(), Width: c.settings.StrokeThickness}
}

func (c *Controller) tick() {
	res := c.sched.Tick(c.surface, c.settings.Speed, c.style())
	if res.ImageDone {
		c.logger.Debug("image drawn",
			ports.Int("image", c.sched.Index()),
			ports.Int("points", c.sched.PathLen()))
		c.startHold(c.settings.HoldDuration)
	}
	c.publish()
}

func (c *Controller) startHold(d time.Duration) {
	c.hold = time.NewTimer(d)
	c.holdC = c.hold.C
	c.holdDeadline = time.Now().Add(d)
}

func (c *Controller) clearHold() {
	if c.hold != nil {
		c.hold.Stop()
	}
	c.hold = nil
	c.holdC = nil
	c.holdRemaining = 0
}

func (c *Controller) onHold() {
	c.clearHold()
	if !c.sched.Advance() {
		c.complete()
		return
	}
	c.surface.Clear()
	c.loadCurrent()
	c.publish()
}

func (c *Controller) complete() {
	c.sched.Finish()
	for _, t := range c.tracks {
		t.Pause()
	}
	if c.session != nil {
		c.session.Stop()
		_ = c.lifecycle.TransitionTo(StateFinalizing, "drawing complete")
		c.publish()
		return
	}
	c.releaseAudio()
	_ = c.lifecycle.TransitionTo(StateComplete, "drawing complete")
	c.publish()
}

func (c *Controller) capture() {
	if !c.session.WriteFrame(c.surface.Frame()) {
		c.logger.Debug("frame dropped", ports.Int64("dropped", c.session.Dropped()))
	}
}

func (c *Controller) pumpAudio() {
	c.mixer.Mix(c.audioBuf)
	if c.session != nil {
		c.session.WriteAudio(c.audioBuf)
	}
}

func (c *Controller) onRecorderEvent(ev recorder.Event) {
	switch ev.Kind {
	case recorder.EventData:
		c.chunks = append(c.chunks, ev.Chunk)
	case recorder.EventError:
		c.warn(ev.Err, "recording error")
	case recorder.EventStopped:
		c.finalize()
	}
}

func (c *Controller) finalize() {
	mime := c.session.MIMEType()
	id := c.session.ID().String()
	art, err := recorder.Assemble(c.chunks, mime, time.Now())
	c.chunks = nil
	c.session = nil

	switch {
	case err != nil:
		c.warn(err, "recording discarded", ports.String("session", id))
	case c.store == nil:
		c.warn(fmt.Errorf("%w: no artifact store configured", domain.ErrResourceUnavailable), "recording discarded", ports.String("session", id))
	default:
		location, err := c.store.Save(c.runCtx, art)
		if err != nil {
			c.warn(err, "failed to save recording", ports.String("session", id))
			break
		}
		c.artifact = location
		c.logger.Info("recording saved",
			ports.String("session", id),
			ports.String("location", location),
			ports.Int("bytes", len(art.Data)))
		c.observer.OnArtifact(location, len(art.Data))
	}

	c.releaseAudio()
	_ = c.lifecycle.TransitionTo(StateComplete, "recording finalized")
	c.publish()
}

// teardown releases every handle of the active session and returns to Idle.
// Calling it with nothing active only clears the surface.
func (c *Controller) teardown(reason string) {
	c.clearHold()
	c.invalidatePaths()

	for _, t := range c.tracks {
		t.Pause()
		t.Rewind()
	}
	c.resume = c.resume[:0]

	if c.session != nil {
		if err := c.session.Abort(); err != nil {
			c.logger.Warn("recording abort failed",
				ports.String("session", c.session.ID().String()),
				ports.Err(fmt.Errorf("%w: %v", domain.ErrTeardown, err)))
		}
		c.session = nil
		c.chunks = nil
	}
	c.releaseAudio()

	c.sched = NewScheduler(0)
	c.media = Media{}
	c.surface.Clear()

	if c.lifecycle.State() != StateIdle {
		_ = c.lifecycle.TransitionTo(StateIdle, reason)
	}
	c.publish()
}

func (c *Controller) releaseAudio() {
	if c.mixer != nil {
		n := c.mixer.Close()
		c.logger.Debug("audio released", ports.Int("inputs", n))
		c.mixer = nil
	}
	c.tracks = nil
}

func (c *Controller) warn(err error, msg string, fields ...ports.Field) {
	c.logger.Warn(msg, append(fields, ports.Err(err))...)
	c.observer.OnWarning(err)
}

// publish snapshots the loop-owned state for Status and the observer.
func (c *Controller) publish() {
	st := Status{
		State:           c.lifecycle.State(),
		ImageIndex:      c.sched.Index(),
		Images:          c.sched.Total(),
		Cursor:          c.sched.Cursor(),
		PathLen:         c.sched.PathLen(),
		StrokeLen:       len(c.sched.CurrentStroke()),
		ImageProgress:   c.sched.ImageProgress(),
		OverallProgress: c.sched.OverallProgress(),
		Recording:       c.session != nil,
		Audio:           c.mixer != nil,
		Artifact:        c.artifact,
		Settings:        c.settings,
	}
	if c.session != nil {
		st.Session = c.session.ID().String()
	}
	c.statusMu.Lock()
	c.status = st
	c.statusMu.Unlock()
	c.observer.OnProgress(st)
}

package sketchreel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bft-labs/sketchreel/internal/adapters/canvas"
	"github.com/bft-labs/sketchreel/internal/adapters/ffmpeg"
	"github.com/bft-labs/sketchreel/internal/adapters/fs"
	"github.com/bft-labs/sketchreel/internal/adapters/imagefile"
	"github.com/bft-labs/sketchreel/internal/adapters/tts"
	"github.com/bft-labs/sketchreel/internal/app"
	"github.com/bft-labs/sketchreel/internal/audio"
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/recorder"
	"github.com/bft-labs/sketchreel/internal/tour"
	"github.com/bft-labs/sketchreel/pkg/log"
)

// Reel animates a set of images as pencil sketches and records the result.
type Reel struct {
	cfg      Config
	logger   Logger
	handler  EventHandler
	surface  Surface
	images   ImageSource
	narrator Narrator
	decoder  audio.Decoder
	plugins  []Plugin
	ctrl     *app.Controller

	cancel context.CancelFunc

	mu          sync.Mutex
	initialized bool
	closed      bool

	// completed is replaced on every start and closed on completion. It is
	// only touched from controller callbacks and Completed.
	sessMu    sync.Mutex
	completed chan struct{}
}

// New creates a Reel and starts its playback goroutine. Call Close to release
// it.
func New(cfg Config, opts ...Option) (*Reel, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	strategy, _ := tour.ParseStrategy(cfg.Sequencer)

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.eventHandler == nil {
		o.eventHandler = BaseEventHandler{}
	}
	if o.surface == nil {
		o.surface = canvas.New(cfg.Video.Width, cfg.Video.Height)
	}
	if o.encoder == nil {
		o.encoder = ffmpeg.New(cfg.FFmpeg, o.logger)
	}
	if o.store == nil {
		o.store = fs.NewArtifactStore(cfg.OutputDir)
	}
	if o.images == nil {
		o.images = imagefile.New(cfg.Images, cfg.MinImages, o.logger)
	}
	if o.narrator == nil {
		client := o.httpClient
		if client == nil {
			client = &http.Client{Timeout: cfg.TTSTimeout}
		}
		o.narrator = tts.New(client, tts.Config{URL: cfg.TTSURL}, o.logger)
	}

	r := &Reel{
		cfg:       cfg,
		logger:    o.logger,
		handler:   o.eventHandler,
		surface:   o.surface,
		images:    o.images,
		narrator:  o.narrator,
		decoder:   audio.Decoder{FFmpeg: cfg.FFmpeg},
		plugins:   o.plugins,
		completed: make(chan struct{}),
	}

	rec := recorder.New(o.encoder, recorder.Config{
		Width:     cfg.Video.Width,
		Height:    cfg.Video.Height,
		FrameRate: cfg.Video.FrameRate,
		Bitrate:   cfg.Video.Bitrate,
		Timeslice: cfg.Video.Timeslice,
	}, o.logger)
	r.ctrl = app.NewController(app.Config{
		Settings:  cfg.Settings,
		Sequencer: strategy,
		TickRate:  cfg.TickRate,
		Record:    cfg.Record,
	}, o.surface, rec, o.store, o.logger, &observer{r: r})

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() {
		if err := r.ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("controller exited", log.Err(err))
		}
	}()
	return r, nil
}

// Start loads the configured media and begins a new session, tearing down any
// session in progress. Invalid images, narration text or background files are
// returned as errors wrapping ErrInvalidInput. Audio that fails to synthesize
// or decode is reported as a warning and the session runs without that track.
func (r *Reel) Start(ctx context.Context) error {
	if r.isClosed() {
		return ErrClosed
	}
	if err := r.initPlugins(ctx); err != nil {
		return err
	}
	media, err := r.loadMedia(ctx)
	if err != nil {
		return err
	}
	return r.ctrl.Start(media)
}

// Pause suspends the current session. It is a no-op unless playing.
func (r *Reel) Pause() error { return r.ctrl.Pause() }

// Resume continues a paused session.
func (r *Reel) Resume() error { return r.ctrl.Resume() }

// Reset discards the current session and its recording.
func (r *Reel) Reset() error { return r.ctrl.Reset() }

// UpdateSettings applies new settings. A threshold change restarts the image
// being drawn.
func (r *Reel) UpdateSettings(s Settings) error { return r.ctrl.UpdateSettings(s) }

// Status returns a snapshot of the Reel.
func (r *Reel) Status() Status { return convertStatus(r.ctrl.Status()) }

// Done is closed once the Reel has been closed and its goroutine has exited.
func (r *Reel) Done() <-chan struct{} { return r.ctrl.Done() }

// Completed returns a channel closed when the most recently started session
// completes. A session that is reset never completes.
func (r *Reel) Completed() <-chan struct{} {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	return r.completed
}

// Close stops playback, discards any open recording and shuts plugins down in
// reverse registration order. Close is safe to call more than once.
func (r *Reel) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	initialized := r.initialized
	r.mu.Unlock()

	r.cancel()
	select {
	case <-r.ctrl.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	var errs []error
	if initialized {
		for i := len(r.plugins) - 1; i >= 0; i-- {
			p := r.plugins[i]
			if err := p.Shutdown(ctx); err != nil {
				r.logger.Error("plugin shutdown failed",
					log.String("plugin", p.Name()),
					log.Err(err))
				errs = append(errs, fmt.Errorf("plugin %s: %w", p.Name(), err))
			}
		}
	}
	if c, ok := r.surface.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reel) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Reel) initPlugins(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return nil
	}
	pcfg := PluginConfig{
		ConfigPath: r.cfg.ConfigPath,
		Logger:     r.logger,
		Controller: r,
	}
	for i, p := range r.plugins {
		r.logger.Info("initializing plugin", log.String("plugin", p.Name()))
		if err := p.Initialize(ctx, pcfg); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = r.plugins[j].Shutdown(ctx)
			}
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
	}
	r.initialized = true
	return nil
}

func (r *Reel) loadMedia(ctx context.Context) (app.Media, error) {
	imgs, err := r.images.Images(ctx)
	if err != nil {
		return app.Media{}, err
	}
	m := app.Media{Images: imgs, Narration: r.cfg.Narration}

	// A missing or non-audio background is rejected like a bad image; a
	// decode failure on a real audio file only drops the track.
	if r.cfg.Background != "" {
		if _, err := audio.CheckFile(r.cfg.Background); err != nil {
			return app.Media{}, fmt.Errorf("background audio: %w", err)
		}
	}

	start := time.Now()
	if data, err := r.narrator.Synthesize(ctx, r.cfg.Narration, r.cfg.Voice); err != nil {
		r.warn(err, "narration audio unavailable")
	} else if samples, err := r.decoder.DecodeBytes(ctx, data); err != nil {
		r.warn(fmt.Errorf("%w: decode narration: %v", ErrResourceUnavailable, err), "narration audio unavailable")
	} else {
		m.NarrationTrack = audio.NewTrack(app.NarrationTrack, samples, false)
		r.logger.Debug("narration ready",
			log.Duration("length", m.NarrationTrack.Duration()),
			log.Duration("estimated", domain.EstimateNarration(r.cfg.Narration)),
			log.Duration("took", time.Since(start)))
	}

	if r.cfg.Background != "" {
		if samples, err := r.decoder.DecodeFile(ctx, r.cfg.Background); err != nil {
			r.warn(fmt.Errorf("%w: decode background: %v", ErrResourceUnavailable, err), "background audio unavailable",
				log.String("path", r.cfg.Background))
		} else {
			m.Background = audio.NewTrack(app.BackgroundTrack, samples, true)
		}
	}
	return m, nil
}

func (r *Reel) warn(err error, msg string, fields ...LogField) {
	r.logger.Warn(msg, append(fields, log.Err(err))...)
	r.handler.OnWarning(WarningEvent{Err: err})
}

// observer adapts controller callbacks to the EventHandler.
type observer struct {
	r *Reel
}

func (o *observer) OnStateChange(previous, current app.State, reason string) {
	prev, cur := convertState(previous), convertState(current)
	switch {
	case cur == StatePlaying && (prev == StateIdle || prev == StateComplete):
		o.r.sessMu.Lock()
		select {
		case <-o.r.completed:
			o.r.completed = make(chan struct{})
		default:
		}
		o.r.sessMu.Unlock()
	case cur == StateComplete:
		o.r.sessMu.Lock()
		select {
		case <-o.r.completed:
		default:
			close(o.r.completed)
		}
		o.r.sessMu.Unlock()
	}
	o.r.handler.OnStateChange(StateChangeEvent{Previous: prev, Current: cur, Reason: reason})
}

func (o *observer) OnProgress(st app.Status) {
	o.r.handler.OnProgress(ProgressEvent{Status: convertStatus(st)})
}

func (o *observer) OnWarning(err error) {
	o.r.handler.OnWarning(WarningEvent{Err: err})
}

func (o *observer) OnArtifact(location string, size int) {
	o.r.handler.OnArtifact(ArtifactEvent{Location: location, Size: size, SavedAt: time.Now()})
}

type noNarrator struct{}

func (noNarrator) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return nil, fmt.Errorf("%w: narration audio disabled", ErrResourceUnavailable)
}

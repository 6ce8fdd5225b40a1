// Package recorder captures the animation into an encoded stream.
//
// A [Session] feeds letterboxed frames and mixed PCM into a
// [ports.EncodeSession] from its own goroutines and slices the encoded
// output into chunks every [Config.Timeslice]. Progress is reported as
// [Event] values on [Session.Events]; the controller collects the chunks and
// assembles them into an artifact once the session reports [EventStopped].
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/sketchreel/internal/audio"
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// Config describes the recorded stream.
type Config struct {
	Width     int
	Height    int
	FrameRate int
	Bitrate   int
	Timeslice time.Duration
}

// DefaultConfig returns 800x600 at 30 fps, 2.5 Mbps, sliced every 100ms.
func DefaultConfig() Config {
	return Config{
		Width:     800,
		Height:    600,
		FrameRate: 30,
		Bitrate:   2_500_000,
		Timeslice: 100 * time.Millisecond,
	}
}

// FrameInterval is the capture period.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// Recorder opens recording sessions on an encoder.
type Recorder struct {
	enc    ports.Encoder
	cfg    Config
	logger ports.Logger
}

// New creates a Recorder. Zero fields of cfg take their defaults.
func New(enc ports.Encoder, cfg Config, logger ports.Logger) *Recorder {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = def.FrameRate
	}
	if cfg.Bitrate <= 0 {
		cfg.Bitrate = def.Bitrate
	}
	if cfg.Timeslice <= 0 {
		cfg.Timeslice = def.Timeslice
	}
	return &Recorder{enc: enc, cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (r *Recorder) Config() Config { return r.cfg }

// Start opens an encode session. withAudio selects a video+audio stream.
// Failures wrap domain.ErrResourceUnavailable.
func (r *Recorder) Start(ctx context.Context, withAudio bool) (*Session, error) {
	if r.enc == nil {
		return nil, fmt.Errorf("%w: no encoder configured", domain.ErrResourceUnavailable)
	}
	spec := ports.EncodeSpec{
		Width:     r.cfg.Width,
		Height:    r.cfg.Height,
		FrameRate: r.cfg.FrameRate,
		Bitrate:   r.cfg.Bitrate,
		Audio:     withAudio,
	}
	if withAudio {
		spec.SampleRate = audio.SampleRate
		spec.Channels = audio.Channels
	}

	es, err := r.enc.Open(ctx, spec)
	if err != nil {
		if !errors.Is(err, domain.ErrResourceUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrResourceUnavailable, err)
		}
		return nil, err
	}

	id := uuid.New()
	s := newSession(id, es, r.cfg, withAudio, r.logger.With(ports.String("session", id.String())))
	s.start()
	r.logger.Info("recording started",
		ports.String("session", id.String()),
		ports.Int("width", r.cfg.Width),
		ports.Int("height", r.cfg.Height),
		ports.Bool("audio", withAudio))
	return s, nil
}

// Assemble concatenates chunks into one artifact named after now.
// It returns domain.ErrEmptyRecording when no data was captured.
func Assemble(chunks [][]byte, mimeType string, now time.Time) (domain.Artifact, error) {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	if size == 0 {
		return domain.Artifact{}, domain.ErrEmptyRecording
	}

	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return domain.Artifact{
		Name:     domain.ArtifactName(now, Extension(mimeType)),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// Extension maps a container MIME type to a file extension.
func Extension(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return "mp4"
	case "video/x-matroska":
		return "mkv"
	default:
		return "webm"
	}
}

package sketchreel

import (
	"time"

	"github.com/bft-labs/sketchreel/internal/adapters/imagefile"
	"github.com/bft-labs/sketchreel/internal/adapters/tts"
	"github.com/bft-labs/sketchreel/internal/app"
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/recorder"
	"github.com/bft-labs/sketchreel/internal/tour"
)

// VideoConfig describes the recorded stream.
type VideoConfig struct {
	Width     int
	Height    int
	FrameRate int
	Bitrate   int
	// Timeslice is how often encoded data is flushed to the Reel.
	Timeslice time.Duration
}

// Config configures a Reel.
type Config struct {
	// Images are the image files to animate, in order. Ignored when an
	// ImageSource is supplied with WithImageSource.
	Images    []string
	MinImages int

	// Narration is the text to speak. It is required.
	Narration string
	Voice     string

	// Background is an optional audio file looped under the narration.
	Background string

	// OutputDir receives recordings. Ignored with WithArtifactStore.
	OutputDir string

	Settings  Settings
	Sequencer string
	TickRate  int
	Record    bool
	Video     VideoConfig

	FFmpeg     string
	TTSURL     string
	TTSTimeout time.Duration

	// ConfigPath is handed to plugins such as the settings watcher.
	ConfigPath string
}

// DefaultConfig returns a Config with defaults and recording enabled.
func DefaultConfig() Config {
	cfg := Config{Record: true}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	rc := recorder.DefaultConfig()
	if c.MinImages <= 0 {
		c.MinImages = imagefile.DefaultMinImages
	}
	if c.Voice == "" {
		c.Voice = domain.DefaultVoice
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Settings == (Settings{}) {
		c.Settings = domain.DefaultSettings()
	}
	if c.Sequencer == "" {
		c.Sequencer = tour.Grid.String()
	}
	if c.TickRate <= 0 {
		c.TickRate = app.DefaultTickRate
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		c.Video.Width, c.Video.Height = rc.Width, rc.Height
	}
	if c.Video.FrameRate <= 0 {
		c.Video.FrameRate = rc.FrameRate
	}
	if c.Video.Bitrate <= 0 {
		c.Video.Bitrate = rc.Bitrate
	}
	if c.Video.Timeslice <= 0 {
		c.Video.Timeslice = rc.Timeslice
	}
	if c.FFmpeg == "" {
		c.FFmpeg = "ffmpeg"
	}
	if c.TTSURL == "" {
		c.TTSURL = tts.DefaultURL
	}
	if c.TTSTimeout <= 0 {
		c.TTSTimeout = 15 * time.Second
	}
}

// Validate checks the narration, settings and sequencer.
func (c Config) Validate() error {
	if err := domain.ValidateNarration(c.Narration, c.Voice); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if _, err := tour.ParseStrategy(c.Sequencer); err != nil {
		return err
	}
	return nil
}

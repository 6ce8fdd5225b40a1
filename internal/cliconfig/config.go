package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/sketchreel/internal/adapters/imagefile"
	"github.com/bft-labs/sketchreel/internal/adapters/tts"
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/recorder"
	"github.com/bft-labs/sketchreel/internal/tour"
)

// Config holds CLI configuration for sketchreel.
type Config struct {
	Images     []string
	Narration  string
	Voice      string
	Background string
	OutputDir  string

	Speed          int
	Thickness      float64
	Threshold      float64
	Color          string
	Hold           time.Duration
	NarrationGain  float64
	BackgroundGain float64

	TickRate     int
	CaptureRate  int
	VideoWidth   int
	VideoHeight  int
	VideoBitrate int
	Sequencer    string
	Record       bool
	FFmpeg       string
	TTSURL       string
	TTSTimeout   time.Duration
	MinImages    int
	Watch        bool
	LogLevel     string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	s := domain.DefaultSettings()
	rc := recorder.DefaultConfig()
	return Config{
		Voice:          domain.DefaultVoice,
		OutputDir:      ".",
		Speed:          s.Speed,
		Thickness:      s.StrokeThickness,
		Threshold:      s.EdgeThreshold,
		Color:          s.StrokeColor,
		Hold:           s.HoldDuration,
		NarrationGain:  s.NarrationGain,
		BackgroundGain: s.BackgroundGain,
		TickRate:       60,
		CaptureRate:    rc.FrameRate,
		VideoWidth:     rc.Width,
		VideoHeight:    rc.Height,
		VideoBitrate:   rc.Bitrate,
		Sequencer:      tour.Grid.String(),
		Record:         true,
		FFmpeg:         "ffmpeg",
		TTSURL:         tts.DefaultURL,
		TTSTimeout:     15 * time.Second,
		MinImages:      imagefile.DefaultMinImages,
		LogLevel:       "info",
	}
}

// Settings returns the animation settings part of the configuration.
func (c Config) Settings() domain.Settings {
	return domain.Settings{
		Speed:           c.Speed,
		StrokeThickness: c.Thickness,
		EdgeThreshold:   c.Threshold,
		StrokeColor:     c.Color,
		HoldDuration:    c.Hold,
		NarrationGain:   c.NarrationGain,
		BackgroundGain:  c.BackgroundGain,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if err := imagefile.ValidateCount(len(c.Images), c.MinImages); err != nil {
		return err
	}
	if c.Voice == "" {
		c.Voice = domain.DefaultVoice
	}
	if err := domain.ValidateNarration(c.Narration, c.Voice); err != nil {
		return err
	}
	if err := c.Settings().Validate(); err != nil {
		return err
	}
	if _, err := tour.ParseStrategy(c.Sequencer); err != nil {
		return err
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive")
	}
	if c.CaptureRate <= 0 {
		return fmt.Errorf("capture rate must be positive")
	}
	if c.VideoWidth <= 0 || c.VideoHeight <= 0 {
		return fmt.Errorf("video size must be positive")
	}
	if c.TTSTimeout <= 0 {
		return fmt.Errorf("tts timeout must be positive")
	}
	return nil
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloatPtr sets a float64 that may legitimately be zero, such as a gain.
func (s *configSetter) setFloatPtr(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination.
// Zero is accepted so gains can be muted from the environment.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f < 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

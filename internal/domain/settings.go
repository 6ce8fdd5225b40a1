package domain

import (
	"fmt"
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Settings bounds.
const (
	MinSpeed     = 1
	MaxSpeed     = 10
	MinThickness = 0.5
	MaxThickness = 3.0
	MinThreshold = 10.0
	MaxThreshold = 100.0
)

// Settings are the externally adjustable animation and mix parameters.
// They are read, never mutated, by the pipeline stages.
type Settings struct {
	// Speed is the number of path points consumed per tick.
	Speed int

	// StrokeThickness is the line width in working-resolution pixels.
	StrokeThickness float64

	// EdgeThreshold is the minimum gradient for a pixel to be an edge point.
	EdgeThreshold float64

	// StrokeColor is a hex colour such as "#2d3748".
	StrokeColor string

	// HoldDuration is the pause after an image is fully drawn.
	HoldDuration time.Duration

	NarrationGain  float64
	BackgroundGain float64
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Speed:           5,
		StrokeThickness: 1.5,
		EdgeThreshold:   50,
		StrokeColor:     "#2d3748",
		HoldDuration:    500 * time.Millisecond,
		NarrationGain:   0.8,
		BackgroundGain:  0.3,
	}
}

// Validate checks every field against its range.
func (s Settings) Validate() error {
	if s.Speed < MinSpeed || s.Speed > MaxSpeed {
		return fmt.Errorf("%w: speed %d outside [%d, %d]", ErrInvalidSettings, s.Speed, MinSpeed, MaxSpeed)
	}
	if s.StrokeThickness < MinThickness || s.StrokeThickness > MaxThickness {
		return fmt.Errorf("%w: stroke thickness %g outside [%g, %g]", ErrInvalidSettings, s.StrokeThickness, MinThickness, MaxThickness)
	}
	if s.EdgeThreshold < MinThreshold || s.EdgeThreshold > MaxThreshold {
		return fmt.Errorf("%w: edge threshold %g outside [%g, %g]", ErrInvalidSettings, s.EdgeThreshold, MinThreshold, MaxThreshold)
	}
	if _, err := colorful.Hex(s.StrokeColor); err != nil {
		return fmt.Errorf("%w: stroke color %q: %v", ErrInvalidSettings, s.StrokeColor, err)
	}
	if s.HoldDuration <= 0 {
		return fmt.Errorf("%w: hold duration must be positive", ErrInvalidSettings)
	}
	if s.NarrationGain < 0 || s.NarrationGain > 1 {
		return fmt.Errorf("%w: narration gain %g outside [0, 1]", ErrInvalidSettings, s.NarrationGain)
	}
	if s.BackgroundGain < 0 || s.BackgroundGain > 1 {
		return fmt.Errorf("%w: background gain %g outside [0, 1]", ErrInvalidSettings, s.BackgroundGain)
	}
	return nil
}

// Color returns the parsed stroke colour. Invalid values fall back to black;
// call Validate first to reject them.
func (s Settings) Color() color.Color {
	c, err := colorful.Hex(s.StrokeColor)
	if err != nil {
		return color.Black
	}
	return c.Clamped()
}

package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Images     []string `toml:"images"`
	Narration  string   `toml:"narration"`
	Voice      string   `toml:"voice"`
	Background string   `toml:"background"`
	OutputDir  string   `toml:"output_dir"`

	TickRate     int    `toml:"tick_rate"`
	CaptureRate  int    `toml:"capture_rate"`
	VideoWidth   int    `toml:"video_width"`
	VideoHeight  int    `toml:"video_height"`
	VideoBitrate int    `toml:"video_bitrate"`
	Sequencer    string `toml:"sequencer"`
	Record       *bool  `toml:"record"`
	FFmpeg       string `toml:"ffmpeg"`
	TTSURL       string `toml:"tts_url"`
	TTSTimeout   string `toml:"tts_timeout"`
	MinImages    int    `toml:"min_images"`
	Watch        *bool  `toml:"watch"`
	LogLevel     string `toml:"log_level"`

	Settings SettingsFile `toml:"settings"`
}

// SettingsFile is the [settings] table. It is the only part of the file
// that is re-read while running.
type SettingsFile struct {
	Speed          int      `toml:"speed"`
	Thickness      float64  `toml:"thickness"`
	Threshold      float64  `toml:"threshold"`
	Color          string   `toml:"color"`
	Hold           string   `toml:"hold"`
	NarrationGain  *float64 `toml:"narration_gain"`
	BackgroundGain *float64 `toml:"background_gain"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.sketchreel/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".sketchreel", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStrings("image", fc.Images, &cfg.Images)
	s.setString("narration", fc.Narration, &cfg.Narration)
	s.setString("voice", fc.Voice, &cfg.Voice)
	s.setString("background", fc.Background, &cfg.Background)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("sequencer", fc.Sequencer, &cfg.Sequencer)
	s.setString("ffmpeg", fc.FFmpeg, &cfg.FFmpeg)
	s.setString("tts-url", fc.TTSURL, &cfg.TTSURL)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("tts-timeout", fc.TTSTimeout, &cfg.TTSTimeout); err != nil {
		return err
	}

	s.setInt("tick-rate", fc.TickRate, &cfg.TickRate)
	s.setInt("capture-rate", fc.CaptureRate, &cfg.CaptureRate)
	s.setInt("video-width", fc.VideoWidth, &cfg.VideoWidth)
	s.setInt("video-height", fc.VideoHeight, &cfg.VideoHeight)
	s.setInt("video-bitrate", fc.VideoBitrate, &cfg.VideoBitrate)
	s.setInt("min-images", fc.MinImages, &cfg.MinImages)

	s.setBool("record", fc.Record, &cfg.Record)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return applySettingsFile(s, cfg, fc.Settings)
}

func applySettingsFile(s *configSetter, cfg *Config, sf SettingsFile) error {
	s.setInt("speed", sf.Speed, &cfg.Speed)
	s.setFloat("thickness", sf.Thickness, &cfg.Thickness)
	s.setFloat("threshold", sf.Threshold, &cfg.Threshold)
	s.setString("color", sf.Color, &cfg.Color)
	if err := s.setDuration("hold", sf.Hold, &cfg.Hold); err != nil {
		return err
	}
	s.setFloatPtr("narration-gain", sf.NarrationGain, &cfg.NarrationGain)
	s.setFloatPtr("background-gain", sf.BackgroundGain, &cfg.BackgroundGain)
	return nil
}

// LoadSettings re-reads the [settings] table of path on top of base.
// Keys missing from the file keep their value in base. Flags do not take
// precedence here: an edit to the file always wins while running.
func LoadSettings(path string, base domain.Settings) (domain.Settings, error) {
	fc, err := LoadFileConfig(path)
	if err != nil {
		return base, err
	}
	cfg := Config{
		Speed:          base.Speed,
		Thickness:      base.StrokeThickness,
		Threshold:      base.EdgeThreshold,
		Color:          base.StrokeColor,
		Hold:           base.HoldDuration,
		NarrationGain:  base.NarrationGain,
		BackgroundGain: base.BackgroundGain,
	}
	if err := applySettingsFile(newConfigSetter(nil), &cfg, fc.Settings); err != nil {
		return base, err
	}
	s := cfg.Settings()
	if err := s.Validate(); err != nil {
		return base, err
	}
	return s, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SKETCHREEL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStrings("image", splitList(os.Getenv("SKETCHREEL_IMAGES")), &cfg.Images)
	s.setString("narration", os.Getenv("SKETCHREEL_NARRATION"), &cfg.Narration)
	s.setString("voice", os.Getenv("SKETCHREEL_VOICE"), &cfg.Voice)
	s.setString("background", os.Getenv("SKETCHREEL_BACKGROUND"), &cfg.Background)
	s.setString("output-dir", os.Getenv("SKETCHREEL_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("color", os.Getenv("SKETCHREEL_COLOR"), &cfg.Color)
	s.setString("sequencer", os.Getenv("SKETCHREEL_SEQUENCER"), &cfg.Sequencer)
	s.setString("ffmpeg", os.Getenv("SKETCHREEL_FFMPEG"), &cfg.FFmpeg)
	s.setString("tts-url", os.Getenv("SKETCHREEL_TTS_URL"), &cfg.TTSURL)
	s.setString("log-level", os.Getenv("SKETCHREEL_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("hold", os.Getenv("SKETCHREEL_HOLD"), &cfg.Hold); err != nil {
		return err
	}
	if err := s.setDuration("tts-timeout", os.Getenv("SKETCHREEL_TTS_TIMEOUT"), &cfg.TTSTimeout); err != nil {
		return err
	}

	if err := s.setFloatFromString("thickness", os.Getenv("SKETCHREEL_THICKNESS"), &cfg.Thickness); err != nil {
		return err
	}
	if err := s.setFloatFromString("threshold", os.Getenv("SKETCHREEL_THRESHOLD"), &cfg.Threshold); err != nil {
		return err
	}
	if err := s.setFloatFromString("narration-gain", os.Getenv("SKETCHREEL_NARRATION_GAIN"), &cfg.NarrationGain); err != nil {
		return err
	}
	if err := s.setFloatFromString("background-gain", os.Getenv("SKETCHREEL_BACKGROUND_GAIN"), &cfg.BackgroundGain); err != nil {
		return err
	}

	ints := []struct {
		flag, env string
		dst       *int
	}{
		{"speed", "SKETCHREEL_SPEED", &cfg.Speed},
		{"tick-rate", "SKETCHREEL_TICK_RATE", &cfg.TickRate},
		{"capture-rate", "SKETCHREEL_CAPTURE_RATE", &cfg.CaptureRate},
		{"video-width", "SKETCHREEL_VIDEO_WIDTH", &cfg.VideoWidth},
		{"video-height", "SKETCHREEL_VIDEO_HEIGHT", &cfg.VideoHeight},
		{"video-bitrate", "SKETCHREEL_VIDEO_BITRATE", &cfg.VideoBitrate},
		{"min-images", "SKETCHREEL_MIN_IMAGES", &cfg.MinImages},
	}
	for _, v := range ints {
		if err := s.setIntFromString(v.flag, os.Getenv(v.env), v.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("record", os.Getenv("SKETCHREEL_RECORD"), &cfg.Record)
	s.setBoolFromString("watch", os.Getenv("SKETCHREEL_WATCH"), &cfg.Watch)

	return nil
}

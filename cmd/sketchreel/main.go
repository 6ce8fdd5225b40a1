package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/sketchreel/internal/cliconfig"
	logAdapter "github.com/bft-labs/sketchreel/pkg/log"
	"github.com/bft-labs/sketchreel/pkg/sketchreel"
	"github.com/bft-labs/sketchreel/plugins/settingswatcher"
)

const helpDescription = `
Turn still images into a narrated pencil-sketch video.

Each image is traced edge by edge as if drawn by hand, one after another,
while the narration and an optional background track play underneath. The
result is written to a WebM file in the output directory.

Highlights:
  - Adjustable speed, stroke thickness, colour and edge threshold.
  - Settings in the config file are picked up live with --watch.
  - Configure via file, env (SKETCHREEL_*), or flags.
  - Requires ffmpeg on PATH for recording and audio decoding.
`

var exampleUsage = strings.TrimSpace(`
  sketchreel --narration "A day at the beach" beach1.jpg beach2.png
  sketchreel --config $HOME/.sketchreel/config.toml --watch
  sketchreel --speed 8 --color "#1a202c" --background music.mp3 --narration "Hello" a.png
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "sketchreel [flags] IMAGE...",
		Short:   "Turn still images into a narrated pencil-sketch video",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if len(args) > 0 {
				cfg.Images = append(cfg.Images, args...)
				changed["image"] = true
			}

			hasFile := cfgFile != "" && cliconfig.FileExists(cfgFile)
			if hasFile {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// SKETCHREEL_* override the file but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cliconfig.SetLogLevel(cfg.LogLevel); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log.Debug().Interface("config", cfg).Msg("configuration")

			libCfg := sketchreel.Config{
				Images:     cfg.Images,
				MinImages:  cfg.MinImages,
				Narration:  cfg.Narration,
				Voice:      cfg.Voice,
				Background: cfg.Background,
				OutputDir:  cfg.OutputDir,
				Settings:   cfg.Settings(),
				Sequencer:  cfg.Sequencer,
				TickRate:   cfg.TickRate,
				Record:     cfg.Record,
				Video: sketchreel.VideoConfig{
					Width:     cfg.VideoWidth,
					Height:    cfg.VideoHeight,
					FrameRate: cfg.CaptureRate,
					Bitrate:   cfg.VideoBitrate,
				},
				FFmpeg:     cfg.FFmpeg,
				TTSURL:     cfg.TTSURL,
				TTSTimeout: cfg.TTSTimeout,
			}

			opts := []sketchreel.Option{
				sketchreel.WithLogger(logAdapter.NewZerologAdapterWithLogger(log)),
				sketchreel.WithEventHandler(newProgressHandler(log)),
			}
			if cfg.Watch {
				if hasFile {
					libCfg.ConfigPath = cfgFile
					opts = append(opts, settingswatcher.WithDefaultSettingsWatcher())
				} else {
					log.Warn().Str("path", cfgFile).Msg("--watch needs a config file, ignoring")
				}
			}

			r, err := sketchreel.New(libCfg, opts...)
			if err != nil {
				return fmt.Errorf("create sketchreel: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := r.Close(ctx); err != nil {
					log.Error().Err(err).Msg("shutdown")
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := r.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start: %w", err)
			}

			select {
			case <-sigCh:
				fmt.Fprintln(os.Stderr)
				log.Info().Msg("received signal, discarding session...")
				if err := r.Reset(); err != nil && !errors.Is(err, sketchreel.ErrClosed) {
					log.Error().Err(err).Msg("reset")
				}
			case <-r.Completed():
				st := r.Status()
				if st.Artifact != "" {
					log.Info().Str("file", st.Artifact).Msg("done")
				} else {
					log.Info().Msg("done, nothing recorded")
				}
			case <-r.Done():
			}
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.sketchreel/config.toml)")
	root.Flags().StringSliceVar(&cfg.Images, "image", cfg.Images, "image file to animate (repeatable; positional arguments are appended)")
	root.Flags().StringVar(&cfg.Narration, "narration", cfg.Narration, "narration text (required)")
	root.Flags().StringVar(&cfg.Voice, "voice", cfg.Voice, "narration voice")
	root.Flags().StringVar(&cfg.Background, "background", cfg.Background, "background audio file, looped")
	root.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for the recorded video")

	root.Flags().IntVar(&cfg.Speed, "speed", cfg.Speed, "path points drawn per tick (1-10)")
	root.Flags().Float64Var(&cfg.Thickness, "thickness", cfg.Thickness, "stroke thickness in pixels (0.5-3)")
	root.Flags().Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "edge detection threshold (10-100)")
	root.Flags().StringVar(&cfg.Color, "color", cfg.Color, "stroke colour as #rrggbb")
	root.Flags().DurationVar(&cfg.Hold, "hold", cfg.Hold, "pause after each finished image")
	root.Flags().Float64Var(&cfg.NarrationGain, "narration-gain", cfg.NarrationGain, "narration volume (0-1)")
	root.Flags().Float64Var(&cfg.BackgroundGain, "background-gain", cfg.BackgroundGain, "background volume (0-1)")

	root.Flags().IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "animation ticks per second")
	root.Flags().IntVar(&cfg.CaptureRate, "capture-rate", cfg.CaptureRate, "recorded frames per second")
	root.Flags().IntVar(&cfg.VideoWidth, "video-width", cfg.VideoWidth, "recorded video width")
	root.Flags().IntVar(&cfg.VideoHeight, "video-height", cfg.VideoHeight, "recorded video height")
	root.Flags().IntVar(&cfg.VideoBitrate, "video-bitrate", cfg.VideoBitrate, "recorded video bitrate in bits per second")
	root.Flags().StringVar(&cfg.Sequencer, "sequencer", cfg.Sequencer, "path ordering: grid or naive")
	root.Flags().BoolVar(&cfg.Record, "record", cfg.Record, "record the animation to a file")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload [settings] from the config file while running")
	root.Flags().IntVar(&cfg.MinImages, "min-images", cfg.MinImages, "minimum number of images")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.Flags().StringVar(&cfg.FFmpeg, "ffmpeg", cfg.FFmpeg, "ffmpeg binary")
	root.Flags().StringVar(&cfg.TTSURL, "tts-url", cfg.TTSURL, "speech synthesis endpoint")
	if err := root.Flags().MarkHidden("tts-url"); err != nil {
		log.Info().Err(err).Msg("failed to hide tts-url flag")
	}
	root.Flags().DurationVar(&cfg.TTSTimeout, "tts-timeout", cfg.TTSTimeout, "speech synthesis HTTP timeout")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("sketchreel")
		os.Exit(1)
	}
}

// progressHandler renders overall progress as a terminal bar.
type progressHandler struct {
	sketchreel.BaseEventHandler

	log zerolog.Logger

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgressHandler(log zerolog.Logger) *progressHandler {
	return &progressHandler{log: log}
}

func (h *progressHandler) OnStateChange(e sketchreel.StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch e.Current {
	case sketchreel.StatePlaying:
		if h.bar == nil {
			h.bar = progressbar.Default(100, "Sketching")
		}
	case sketchreel.StateFinalizing:
		if h.bar != nil {
			h.bar.Describe("Saving")
		}
	case sketchreel.StateComplete, sketchreel.StateIdle:
		if h.bar != nil {
			_ = h.bar.Finish()
			h.bar = nil
		}
	}
}

func (h *progressHandler) OnProgress(e sketchreel.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bar != nil {
		_ = h.bar.Set(int(e.Status.OverallProgress))
	}
}

func (h *progressHandler) OnWarning(e sketchreel.WarningEvent) {
	h.log.Warn().Err(e.Err).Msg("continuing without feature")
}

func (h *progressHandler) OnArtifact(e sketchreel.ArtifactEvent) {
	h.log.Info().Str("file", e.Location).Int("bytes", e.Size).Msg("recording saved")
}

package settingswatcher

import "github.com/bft-labs/sketchreel/pkg/sketchreel"

// WithSettingsWatcher returns a sketchreel Option that reloads settings from
// the Reel's config file whenever it changes.
//
// Usage:
//
//	cfg.ConfigPath = "/home/me/.sketchreel/config.toml"
//	r, err := sketchreel.New(cfg,
//	    settingswatcher.WithSettingsWatcher(settingswatcher.Config{
//	        DebounceDelay: 200 * time.Millisecond,
//	    }),
//	)
func WithSettingsWatcher(cfg Config) sketchreel.Option {
	return sketchreel.WithPlugin(New(cfg))
}

// WithDefaultSettingsWatcher enables the watcher with a 100ms debounce.
func WithDefaultSettingsWatcher() sketchreel.Option {
	return WithSettingsWatcher(DefaultConfig())
}

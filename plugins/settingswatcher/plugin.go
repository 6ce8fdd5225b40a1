// Package settingswatcher applies edits to the [settings] table of a
// sketchreel config file while a Reel is running.
package settingswatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/sketchreel/internal/cliconfig"
	"github.com/bft-labs/sketchreel/pkg/log"
	"github.com/bft-labs/sketchreel/pkg/sketchreel"
)

// Plugin watches the Reel's config file and pushes changed settings to it.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	path       string
	logger     sketchreel.Logger
	controller sketchreel.Controller
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
	applied    int
}

// Config holds configuration options for the settings watcher plugin.
type Config struct {
	// DebounceDelay is how long to wait after the last change before
	// reloading. Editors often write a file in several steps.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with a 100ms debounce.
func DefaultConfig() Config {
	return Config{DebounceDelay: 100 * time.Millisecond}
}

// New creates a settings watcher.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "settingswatcher"
}

// Initialize starts watching cfg.ConfigPath. Without a config path the plugin
// stays idle.
func (p *Plugin) Initialize(ctx context.Context, cfg sketchreel.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.ConfigPath
	p.logger = cfg.Logger
	p.controller = cfg.Controller
	p.mu.Unlock()

	if p.path == "" || p.controller == nil {
		p.logger.Warn("settings watcher disabled: no config file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// The directory is watched so that editors replacing the file by rename
	// are still seen.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	// Initialize's ctx only covers startup; the loop runs until Shutdown.
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel

	p.logger.Info("settings watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and any pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Applied returns how many reloads changed the Reel's settings.
func (p *Plugin) Applied() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applied
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("settings watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

func (p *Plugin) reload() {
	current := p.controller.Status().Settings
	next, err := cliconfig.LoadSettings(p.path, current)
	if err != nil {
		p.logger.Warn("ignoring config change", log.String("path", p.path), log.Err(err))
		return
	}
	if next == current {
		return
	}
	if err := p.controller.UpdateSettings(next); err != nil {
		p.logger.Warn("settings update rejected", log.Err(err))
		return
	}

	p.mu.Lock()
	p.applied++
	p.mu.Unlock()
	p.logger.Info("settings reloaded",
		log.Int("speed", next.Speed),
		log.Float64("threshold", next.EdgeThreshold),
		log.String("color", next.StrokeColor))
}

// Ensure Plugin implements sketchreel.Plugin.
var _ sketchreel.Plugin = (*Plugin)(nil)

package sketchreel

import (
	"context"
	"time"

	"github.com/bft-labs/sketchreel/internal/app"
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
	"github.com/bft-labs/sketchreel/pkg/log"
)

// Re-exported types so callers can supply their own adapters.
type (
	Settings      = domain.Settings
	Point         = domain.Point
	Artifact      = domain.Artifact
	StrokeStyle   = ports.StrokeStyle
	Surface       = ports.Surface
	Encoder       = ports.Encoder
	EncodeSession = ports.EncodeSession
	EncodeSpec    = ports.EncodeSpec
	ArtifactStore = ports.ArtifactStore
	ImageSource   = ports.ImageSource
	Narrator      = ports.Narrator
	HTTPClient    = ports.HTTPClient
	Logger        = log.Logger
	LogField      = log.Field
)

// Errors returned by Reel operations. Use errors.Is to match them.
var (
	ErrInvalidInput        = domain.ErrInvalidInput
	ErrResourceUnavailable = domain.ErrResourceUnavailable
	ErrEmptyRecording      = domain.ErrEmptyRecording
	ErrInvalidTransition   = domain.ErrInvalidTransition
	ErrClosed              = domain.ErrClosed
)

// DefaultSettings returns the default animation settings.
func DefaultSettings() Settings { return domain.DefaultSettings() }

// State is the playback state of a Reel.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateFinalizing
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateFinalizing:
		return "Finalizing"
	case StateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StatePlaying:
		return StatePlaying
	case app.StatePaused:
		return StatePaused
	case app.StateFinalizing:
		return StateFinalizing
	case app.StateComplete:
		return StateComplete
	default:
		return StateIdle
	}
}

// Status is a snapshot of a Reel.
type Status struct {
	State           State
	ImageIndex      int
	Images          int
	ImageProgress   float64
	OverallProgress float64
	Recording       bool
	Artifact        string
	Settings        Settings
}

func convertStatus(st app.Status) Status {
	return Status{
		State:           convertState(st.State),
		ImageIndex:      st.ImageIndex,
		Images:          st.Images,
		ImageProgress:   st.ImageProgress,
		OverallProgress: st.OverallProgress,
		Recording:       st.Recording,
		Artifact:        st.Artifact,
		Settings:        st.Settings,
	}
}

// StateChangeEvent is delivered when the playback state changes.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ProgressEvent is delivered after every animation tick.
type ProgressEvent struct {
	Status Status
}

// WarningEvent reports a degraded feature, such as a missing encoder or a
// failed narration request. Playback continues.
type WarningEvent struct {
	Err error
}

// ArtifactEvent is delivered when a recording has been saved.
type ArtifactEvent struct {
	Location string
	Size     int
	SavedAt  time.Time
}

// EventHandler receives Reel notifications. Methods are called synchronously
// from the playback goroutine and should return quickly. OnWarning may also be
// called from the goroutine running Start while audio is loaded.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnProgress(ProgressEvent)
	OnWarning(WarningEvent)
	OnArtifact(ArtifactEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnProgress(ProgressEvent)       {}
func (BaseEventHandler) OnWarning(WarningEvent)         {}
func (BaseEventHandler) OnArtifact(ArtifactEvent)       {}

// Controller is the part of a Reel exposed to plugins.
type Controller interface {
	UpdateSettings(Settings) error
	Status() Status
}

// PluginConfig is passed to Plugin.Initialize.
type PluginConfig struct {
	// ConfigPath is the configuration file the Reel was built from, if any.
	ConfigPath string
	Logger     Logger
	Controller Controller
}

// Plugin extends a Reel. Plugins are initialized on the first Start in
// registration order and shut down by Close in reverse order.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

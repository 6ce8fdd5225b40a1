package app

import "github.com/bft-labs/sketchreel/internal/domain"

// Observer receives controller notifications. Methods are called from the
// controller goroutine and must not call back into the controller.
type Observer interface {
	EventEmitter

	// OnProgress is called after every tick and image change.
	OnProgress(status Status)

	// OnWarning reports a non-fatal problem such as an unavailable recorder,
	// a failed audio source or an empty recording.
	OnWarning(err error)

	// OnArtifact is called when a recording has been saved.
	OnArtifact(location string, size int)
}

type noopObserver struct{}

func (noopObserver) OnStateChange(previous, current State, reason string) {}
func (noopObserver) OnProgress(status Status)                             {}
func (noopObserver) OnWarning(err error)                                  {}
func (noopObserver) OnArtifact(location string, size int)                 {}

// Status is a snapshot of the playback state.
type Status struct {
	State      State
	ImageIndex int
	Images     int

	Cursor          int
	PathLen         int
	StrokeLen       int
	ImageProgress   float64
	OverallProgress float64

	// Recording is set while an encode session is open.
	Recording bool
	Session   string
	// Audio is set while the mixer holds the session's tracks.
	Audio    bool
	Artifact string

	Settings domain.Settings
}

package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// ShutdownTimeout bounds how long Run waits for preparation workers on exit.
const ShutdownTimeout = 5 * time.Second

// State represents the transport state of a session.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	// StateFinalizing means drawing is done and the recording is flushing.
	StateFinalizing
	StateComplete
)

// String returns a human-readable representation of the state.
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

// Active reports whether a session holds resources in this state.
func (s State) Active() bool {
	return s == StatePlaying || s == StatePaused || s == StateFinalizing
}

// Lifecycle manages the transport state machine.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	wg           sync.WaitGroup
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when the transport state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a lifecycle in StateIdle.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// allowed lists the valid targets of each state.
var allowed = map[State][]State{
	StateIdle:       {StatePlaying},
	StatePlaying:    {StatePaused, StateFinalizing, StateComplete, StateIdle},
	StatePaused:     {StatePlaying, StateIdle},
	StateFinalizing: {StateComplete, StateIdle},
	StateComplete:   {StatePlaying, StateIdle},
}

// CanTransition reports whether from -> to is a valid transition.
func CanTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTo attempts to transition to a new state.
// Returns an error wrapping domain.ErrInvalidTransition if it is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if !CanTransition(oldState, newState) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, oldState, newState)
	}
	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)
	return nil
}

// AddWorker increments the worker count.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for all workers to finish with a timeout.
// Returns false if the timeout expired.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		l.logger.Warn("workers still running at shutdown",
			ports.Duration("timeout", timeout),
		)
		return false
	}
}

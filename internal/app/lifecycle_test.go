package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}
func (m mockLogger) With(fields ...ports.Field) ports.Logger {
	return m
}

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l.State() != StateIdle {
		t.Errorf("initial state = %v, want StateIdle", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateFinalizing, "Finalizing"},
		{StateComplete, "Complete"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestState_Active(t *testing.T) {
	for _, s := range []State{StatePlaying, StatePaused, StateFinalizing} {
		if !s.Active() {
			t.Errorf("%v should be active", s)
		}
	}
	for _, s := range []State{StateIdle, StateComplete} {
		if s.Active() {
			t.Errorf("%v should not be active", s)
		}
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to playing", StateIdle, StatePlaying},
		{"playing to paused", StatePlaying, StatePaused},
		{"playing to finalizing", StatePlaying, StateFinalizing},
		{"playing to complete without recording", StatePlaying, StateComplete},
		{"playing to idle on reset", StatePlaying, StateIdle},
		{"paused to playing", StatePaused, StatePlaying},
		{"paused to idle on reset", StatePaused, StateIdle},
		{"finalizing to complete", StateFinalizing, StateComplete},
		{"finalizing to idle on reset", StateFinalizing, StateIdle},
		{"complete to playing on restart", StateComplete, StatePlaying},
		{"complete to idle on reset", StateComplete, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Fatalf("TransitionTo() error = %v", err)
			}
			if l.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to paused", StateIdle, StatePaused},
		{"idle to complete", StateIdle, StateComplete},
		{"idle to idle", StateIdle, StateIdle},
		{"paused to finalizing", StatePaused, StateFinalizing},
		{"paused to complete", StatePaused, StateComplete},
		{"finalizing to playing", StateFinalizing, StatePlaying},
		{"finalizing to paused", StateFinalizing, StatePaused},
		{"complete to paused", StateComplete, StatePaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")

			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("TransitionTo() error = %v, want ErrInvalidTransition", err)
			}
			// State should not change on invalid transition
			if l.State() != tt.from {
				t.Errorf("state changed to %v on invalid transition, want %v", l.State(), tt.from)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.TransitionTo(StatePlaying, "start")
	_ = l.TransitionTo(StatePaused, "pause")
	_ = l.TransitionTo(StateComplete, "not allowed")

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].previous != StateIdle || events[0].current != StatePlaying {
		t.Errorf("event 0: got %v->%v, want Idle->Playing", events[0].previous, events[0].current)
	}
	if events[1].previous != StatePlaying || events[1].current != StatePaused || events[1].reason != "pause" {
		t.Errorf("event 1: got %+v", events[1])
	}
}

func TestLifecycle_WaitWithTimeout_Success(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	l.AddWorker()
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.WorkerDone()
	}()

	if !l.WaitWithTimeout(time.Second) {
		t.Error("WaitWithTimeout() = false, want true")
	}
}

func TestLifecycle_WaitWithTimeout_Timeout(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	l.AddWorker()
	// Never call WorkerDone

	if l.WaitWithTimeout(10 * time.Millisecond) {
		t.Error("WaitWithTimeout() = true, want false")
	}

	// Clean up
	l.WorkerDone()
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wg sync.WaitGroup

	// Concurrent state reads
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = l.State()
			}
		}()
	}

	// Concurrent transitions (some will fail, which is expected)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(StatePlaying, "test")
			_ = l.TransitionTo(StatePaused, "test")
		}()
	}

	wg.Wait()
}

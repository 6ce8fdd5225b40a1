package audio

import (
	"fmt"
	"time"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// Track is a decoded clip with playback state. It only advances while
// playing, and yields silence when paused or finished.
//
// A Track is not safe for concurrent use; the controller goroutine owns it.
type Track struct {
	name    string
	samples []int16
	loop    bool
	pos     int
	playing bool
}

// NewTrack creates a stopped track at position zero.
func NewTrack(name string, samples []int16, loop bool) *Track {
	// Keep whole stereo frames only.
	samples = samples[:len(samples)-len(samples)%Channels]
	return &Track{name: name, samples: samples, loop: loop}
}

// Name returns the track name.
func (t *Track) Name() string { return t.name }

// Play starts or continues playback.
func (t *Track) Play() error {
	if len(t.samples) == 0 {
		return fmt.Errorf("%w: track %s has no audio", domain.ErrResourceUnavailable, t.name)
	}
	t.playing = true
	return nil
}

// Pause halts playback at the current position.
func (t *Track) Pause() { t.playing = false }

// Rewind moves to the start without changing the play state.
func (t *Track) Rewind() { t.pos = 0 }

// Playing reports whether the track is advancing.
func (t *Track) Playing() bool { return t.playing }

// Position returns the elapsed play time.
func (t *Track) Position() time.Duration { return SamplesDuration(t.pos) }

// Duration returns the clip length.
func (t *Track) Duration() time.Duration { return SamplesDuration(len(t.samples)) }

// Read fills dst with the next samples and returns how many came from the
// clip. The rest of dst is silence. A non-looping track stops at its end.
func (t *Track) Read(dst []int16) int {
	n := 0
	for n < len(dst) && t.playing && len(t.samples) > 0 {
		if t.pos >= len(t.samples) {
			if !t.loop {
				t.playing = false
				break
			}
			t.pos = 0
		}
		c := copy(dst[n:], t.samples[t.pos:])
		t.pos += c
		n += c
	}
	clear(dst[n:])
	return n
}

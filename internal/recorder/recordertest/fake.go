// Package recordertest provides an in-memory ports.Encoder for tests.
package recordertest

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"

	"github.com/bft-labs/sketchreel/internal/ports"
)

// ErrAborted is the read error seen on the output of an aborted session.
var ErrAborted = errors.New("recordertest: aborted")

// Encoder records every session it opens.
type Encoder struct {
	// Fail, when set, is returned by Open.
	Fail error
	// Silent sessions produce no output bytes.
	Silent bool
	// OnOpen, when set, runs inside Open before the session is returned.
	OnOpen func(spec ports.EncodeSpec)

	mu       sync.Mutex
	sessions []*Session
}

// Open implements ports.Encoder.
func (e *Encoder) Open(ctx context.Context, spec ports.EncodeSpec) (ports.EncodeSession, error) {
	if e.OnOpen != nil {
		e.OnOpen(spec)
	}
	if e.Fail != nil {
		return nil, e.Fail
	}
	pr, pw := io.Pipe()
	s := &Session{Spec: spec, pr: pr, pw: pw, silent: e.Silent}
	e.mu.Lock()
	e.sessions = append(e.sessions, s)
	e.mu.Unlock()
	return s, nil
}

// Sessions returns the sessions opened so far.
func (e *Encoder) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Session(nil), e.sessions...)
}

// Session writes one byte of output per frame: 'f'.
type Session struct {
	Spec ports.EncodeSpec

	pr     *io.PipeReader
	pw     *io.PipeWriter
	silent bool

	mu     sync.Mutex
	frames int
	audio  int
	first  []int16
	closes int
	aborts int
	ended  bool
}

func (s *Session) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	if s.silent {
		return nil
	}
	_, err := s.pw.Write([]byte{'f'})
	return err
}

func (s *Session) WriteAudio(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == 0 {
		s.first = append([]int16(nil), samples...)
	}
	s.audio++
	return nil
}

func (s *Session) Output() io.Reader { return s.pr }

func (s *Session) MIMEType() string { return "video/webm" }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	if !s.ended {
		s.ended = true
		s.pw.Close()
	}
	return nil
}

func (s *Session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborts++
	if !s.ended {
		s.ended = true
		s.pw.CloseWithError(ErrAborted)
	}
	return nil
}

// Frames returns the number of frames written.
func (s *Session) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// AudioBlocks returns the number of audio writes.
func (s *Session) AudioBlocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// FirstAudio returns a copy of the first audio block written, or nil.
func (s *Session) FirstAudio() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int16(nil), s.first...)
}

// Closes returns how often Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Aborts returns how often Abort was called.
func (s *Session) Aborts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborts
}

// Released reports whether the session ended through Close or Abort.
func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

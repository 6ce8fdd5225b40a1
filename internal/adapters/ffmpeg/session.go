package ffmpeg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/bft-labs/sketchreel/internal/audio"
	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

type session struct {
	cmd    *exec.Cmd
	spec   ports.EncodeSpec
	logger ports.Logger

	stdin  io.WriteCloser
	audioW *os.File
	output *os.File
	stderr bytes.Buffer

	mu     sync.Mutex
	ended  bool
	waited chan struct{}
	err    error
}

func start(binary string, spec ports.EncodeSpec, c Codecs, logger ports.Logger) (*session, error) {
	cmd := exec.Command(binary, Args(spec, c)...)
	s := &session{cmd: cmd, spec: spec, logger: logger, waited: make(chan struct{})}
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", domain.ErrResourceUnavailable, err)
	}
	s.stdin = stdin

	// stdout is a plain os.Pipe so Wait does not close it under the reader.
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", domain.ErrResourceUnavailable, err)
	}
	cmd.Stdout = outW
	s.output = outR

	var audioR *os.File
	if spec.Audio {
		audioR, s.audioW, err = os.Pipe()
		if err != nil {
			outR.Close()
			outW.Close()
			return nil, fmt.Errorf("%w: audio pipe: %v", domain.ErrResourceUnavailable, err)
		}
		cmd.ExtraFiles = []*os.File{audioR}
	}

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		if audioR != nil {
			audioR.Close()
			s.audioW.Close()
		}
		return nil, fmt.Errorf("%w: start ffmpeg: %v", domain.ErrResourceUnavailable, err)
	}
	// The child holds its own copies.
	outW.Close()
	if audioR != nil {
		audioR.Close()
	}

	go func() {
		s.err = cmd.Wait()
		close(s.waited)
	}()

	logger.Debug("ffmpeg started", ports.Int("pid", cmd.Process.Pid), ports.Bool("audio", spec.Audio))
	return s, nil
}

func (s *session) WriteFrame(img *image.RGBA) error {
	if img.Rect.Dx() != s.spec.Width || img.Rect.Dy() != s.spec.Height {
		return fmt.Errorf("frame is %dx%d, want %dx%d", img.Rect.Dx(), img.Rect.Dy(), s.spec.Width, s.spec.Height)
	}
	row := s.spec.Width * 4
	if img.Stride == row {
		_, err := s.stdin.Write(img.Pix[:row*s.spec.Height])
		return err
	}
	for y := range s.spec.Height {
		off := y * img.Stride
		if _, err := s.stdin.Write(img.Pix[off : off+row]); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) WriteAudio(samples []int16) error {
	if s.audioW == nil {
		return nil
	}
	_, err := s.audioW.Write(audio.SamplesToBytes(samples))
	return err
}

func (s *session) Output() io.Reader { return closeOnEOF{s.output} }

// closeOnEOF releases the pipe once the reader has drained it.
type closeOnEOF struct{ f *os.File }

func (r closeOnEOF) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err != nil {
		r.f.Close()
	}
	return n, err
}

func (s *session) MIMEType() string { return "video/webm" }

// closeInputs ends both input streams once.
func (s *session) closeInputs() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	s.stdin.Close()
	if s.audioW != nil {
		s.audioW.Close()
	}
	return true
}

func (s *session) Close() error {
	s.closeInputs()
	<-s.waited
	if s.err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", s.err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}

func (s *session) Abort() error {
	s.closeInputs()
	select {
	case <-s.waited:
		s.output.Close()
		return nil
	default:
	}
	err := s.cmd.Process.Kill()
	<-s.waited
	s.output.Close()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("%w: kill ffmpeg: %v", domain.ErrTeardown, err)
	}
	return nil
}

// Package ffmpeg implements ports.Encoder with an ffmpeg subprocess.
//
// Raw RGBA frames are written to the child's stdin and s16le PCM to an extra
// pipe on fd 3. The child writes WebM to stdout.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// Video codecs in order of preference.
var videoCodecs = []string{"libvpx-vp9", "libvpx"}

// Audio codecs in order of preference.
var audioCodecs = []string{"libopus", "libvorbis"}

// Codecs is the pair chosen for a session.
type Codecs struct {
	Video string
	Audio string
}

// Encoder launches ffmpeg per session. The codec probe runs once.
type Encoder struct {
	binary string
	logger ports.Logger

	probeOnce sync.Once
	codecs    Codecs
	probeErr  error
}

// New creates an Encoder. An empty binary means "ffmpeg" on PATH.
func New(binary string, logger ports.Logger) *Encoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Encoder{binary: binary, logger: logger}
}

// Probe returns the best available codecs.
func (e *Encoder) Probe(ctx context.Context) (Codecs, error) {
	e.probeOnce.Do(func() {
		e.codecs, e.probeErr = e.probe(ctx)
		if e.probeErr == nil {
			e.logger.Info("ffmpeg encoders selected",
				ports.String("video", e.codecs.Video),
				ports.String("audio", e.codecs.Audio))
		}
	})
	return e.codecs, e.probeErr
}

func (e *Encoder) probe(ctx context.Context) (Codecs, error) {
	bin, err := exec.LookPath(e.binary)
	if err != nil {
		return Codecs{}, fmt.Errorf("%w: ffmpeg not found: %v", domain.ErrResourceUnavailable, err)
	}
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		return Codecs{}, fmt.Errorf("%w: list ffmpeg encoders: %v", domain.ErrResourceUnavailable, err)
	}
	return SelectCodecs(ParseEncoders(out))
}

// ParseEncoders extracts encoder names from `ffmpeg -encoders` output.
func ParseEncoders(out []byte) map[string]bool {
	names := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	listing := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !listing {
			listing = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			names[fields[1]] = true
		}
	}
	return names
}

// SelectCodecs picks the preferred available video and audio encoders.
// A missing audio encoder leaves Audio empty; the stream is then video only.
func SelectCodecs(available map[string]bool) (Codecs, error) {
	var c Codecs
	for _, v := range videoCodecs {
		if available[v] {
			c.Video = v
			break
		}
	}
	if c.Video == "" {
		return Codecs{}, fmt.Errorf("%w: no webm video encoder (want one of %s)",
			domain.ErrResourceUnavailable, strings.Join(videoCodecs, ", "))
	}
	for _, a := range audioCodecs {
		if available[a] {
			c.Audio = a
			break
		}
	}
	return c, nil
}

// Args builds the ffmpeg command line for spec.
func Args(spec ports.EncodeSpec, c Codecs) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-framerate", fmt.Sprint(spec.FrameRate),
		"-i", "pipe:0",
	}
	withAudio := spec.Audio && c.Audio != ""
	if withAudio {
		args = append(args,
			"-f", "s16le",
			"-ar", fmt.Sprint(spec.SampleRate),
			"-ac", fmt.Sprint(spec.Channels),
			"-i", "pipe:3",
		)
	}
	args = append(args,
		"-c:v", c.Video,
		"-b:v", fmt.Sprint(spec.Bitrate),
		"-pix_fmt", "yuv420p",
		"-deadline", "realtime",
	)
	if withAudio {
		args = append(args, "-c:a", c.Audio)
	} else {
		args = append(args, "-an")
	}
	return append(args, "-f", "webm", "pipe:1")
}

// Open implements ports.Encoder.
func (e *Encoder) Open(ctx context.Context, spec ports.EncodeSpec) (ports.EncodeSession, error) {
	codecs, err := e.Probe(ctx)
	if err != nil {
		return nil, err
	}
	if spec.Audio && codecs.Audio == "" {
		e.logger.Warn("no audio encoder available, recording video only")
		spec.Audio = false
	}
	return start(e.binary, spec, codecs, e.logger)
}

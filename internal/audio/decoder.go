package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// Decoder turns audio files into 48 kHz stereo PCM.
//
// WAV files already at 48 kHz are read in-process; everything else, and WAV
// files needing resampling, go through ffmpeg.
type Decoder struct {
	// FFmpeg is the ffmpeg binary. Empty means "ffmpeg" on PATH.
	FFmpeg string
}

func (d Decoder) binary() string {
	if d.FFmpeg == "" {
		return "ffmpeg"
	}
	return d.FFmpeg
}

// DecodeFile decodes the file at path.
func (d Decoder) DecodeFile(ctx context.Context, path string) ([]int16, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, err := decodeWAV(path)
		if err == nil {
			return samples, nil
		}
		if !errors.Is(err, errNeedsResample) {
			return nil, err
		}
	}
	return d.run(ctx, nil, "-i", path)
}

// DecodeBytes decodes an in-memory file such as synthesized speech.
func (d Decoder) DecodeBytes(ctx context.Context, data []byte) ([]int16, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty audio", domain.ErrInvalidInput)
	}
	if bytes.HasPrefix(data, []byte("RIFF")) {
		samples, err := readWAV(bytes.NewReader(data), "in-memory audio")
		if err == nil {
			return samples, nil
		}
		if !errors.Is(err, errNeedsResample) {
			return nil, err
		}
	}
	return d.run(ctx, bytes.NewReader(data), "-i", "pipe:0")
}

func (d Decoder) run(ctx context.Context, stdin *bytes.Reader, input ...string) ([]int16, error) {
	bin, err := exec.LookPath(d.binary())
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found: %v", domain.ErrResourceUnavailable, err)
	}

	args := append(input,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		"-loglevel", "error",
		"pipe:1",
	)
	cmd := exec.CommandContext(ctx, bin, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return BytesToSamples(out), nil
}

var errNeedsResample = errors.New("wav needs resampling")

func decodeWAV(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readWAV(f, path)
}

func readWAV(r io.ReadSeeker, name string) ([]int16, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid wav file", domain.ErrInvalidInput, name)
	}
	if dec.SampleRate != SampleRate || dec.NumChans < 1 || dec.NumChans > 2 || dec.BitDepth < 16 {
		return nil, errNeedsResample
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav %s: %w", name, err)
	}
	return toStereo16(buf, int(dec.BitDepth)), nil
}

// toStereo16 scales samples to 16 bits and duplicates mono to both channels.
func toStereo16(buf *goaudio.IntBuffer, bitDepth int) []int16 {
	shift := bitDepth - 16
	channels := buf.Format.NumChannels

	frames := len(buf.Data) / channels
	out := make([]int16, 0, frames*Channels)
	for i := range frames {
		l := int16(buf.Data[i*channels] >> shift)
		r := l
		if channels == 2 {
			r = int16(buf.Data[i*channels+1] >> shift)
		}
		out = append(out, l, r)
	}
	return out
}

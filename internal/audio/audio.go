// Package audio holds the PCM side of a session: decoding narration and
// background files, playable tracks, and the gain mixer whose output is
// recorded alongside the video.
//
// All PCM is interleaved signed 16-bit stereo at 48 kHz.
package audio

import (
	"encoding/binary"
	"time"
)

// PCM format shared by decoder, mixer and encoder.
const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond

	// FrameSize is samples per channel in one frame.
	FrameSize = SampleRate * int(FrameDuration) / int(time.Second)

	// FrameSamples is interleaved samples in one frame.
	FrameSamples = FrameSize * Channels
)

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// BytesToSamples converts little-endian bytes to int16 samples. A trailing
// odd byte is dropped.
func BytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return samples
}

// SamplesDuration returns the play time of n interleaved samples.
func SamplesDuration(n int) time.Duration {
	return time.Duration(n/Channels) * time.Second / SampleRate
}

func clip(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

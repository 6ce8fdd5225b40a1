package audio

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// MaxFileBytes bounds audio files accepted as input.
const MaxFileBytes = 50 << 20

// CheckFile verifies that path is a readable audio file of acceptable size
// and returns its sniffed content type. It does not decode the file.
func CheckFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > MaxFileBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrAudioTooLarge, path, MaxFileBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrInvalidInput, path, err)
	}
	ct, ok := sniff(head[:n])
	if !ok {
		return "", fmt.Errorf("%w: %s is %s", domain.ErrUnsupportedAudio, path, ct)
	}
	return ct, nil
}

// sniff extends http.DetectContentType with the audio containers it does
// not recognise.
func sniff(head []byte) (string, bool) {
	ct := http.DetectContentType(head)
	switch {
	case strings.HasPrefix(ct, "audio/"), ct == "application/ogg":
		return ct, true
	case bytes.HasPrefix(head, []byte("fLaC")):
		return "audio/flac", true
	case len(head) >= 12 && string(head[4:8]) == "ftyp" && string(head[8:11]) == "M4A":
		return "audio/mp4", true
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		// MPEG audio frame sync without an ID3 tag.
		return "audio/mpeg", true
	}
	return ct, false
}

// Package imagefile loads and validates the still images of a session.
package imagefile

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"slices"

	_ "golang.org/x/image/webp"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// Limits on the image set.
const (
	MaxImageBytes    = 10 << 20
	MaxImagePixels   = 50_000_000
	MaxImages        = 20
	DefaultMinImages = 1
)

// SupportedTypes lists the accepted content types.
var SupportedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Source implements ports.ImageSource over a list of files.
type Source struct {
	paths     []string
	minImages int
	logger    ports.Logger
}

// New creates a Source. minImages below 1 means DefaultMinImages.
func New(paths []string, minImages int, logger ports.Logger) *Source {
	if minImages < 1 {
		minImages = DefaultMinImages
	}
	return &Source{paths: paths, minImages: minImages, logger: logger}
}

// Images validates the count, then reads, sniffs and decodes each file in
// order. The first failing file aborts the load.
func (s *Source) Images(ctx context.Context) ([]image.Image, error) {
	if err := ValidateCount(len(s.paths), s.minImages); err != nil {
		return nil, err
	}

	out := make([]image.Image, 0, len(s.paths))
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := Load(path)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		s.logger.Debug("image loaded",
			ports.String("path", path),
			ports.Int("width", b.Dx()),
			ports.Int("height", b.Dy()))
		out = append(out, img)
	}
	return out, nil
}

// ValidateCount checks n against [minImages, MaxImages].
func ValidateCount(n, minImages int) error {
	if n == 0 {
		return domain.ErrNoImages
	}
	if n < minImages {
		return fmt.Errorf("%w: %d images, need at least %d", domain.ErrInvalidInput, n, minImages)
	}
	if n > MaxImages {
		return fmt.Errorf("%w: %d images, limit %d", domain.ErrTooManyImages, n, MaxImages)
	}
	return nil
}

// Load reads one image file.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrImageTooLarge, path, MaxImageBytes)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode sniffs data and decodes it if it is a supported type.
func Decode(data []byte) (image.Image, error) {
	ct := http.DetectContentType(data)
	if !slices.Contains(SupportedTypes, ct) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, ct)
	}
	// Compressed formats can declare far more pixels than their byte size
	// suggests; check the header before allocating.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrUnsupportedImage, ct, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", domain.ErrImageTooLarge, cfg.Width, cfg.Height, MaxImagePixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrUnsupportedImage, ct, err)
	}
	return img, nil
}

package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// ArtifactStore implements ports.ArtifactStore by writing recordings into a
// directory.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates an ArtifactStore for the given directory. The
// directory is created on first save.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Save writes the artifact atomically and returns its path.
// Uses atomic write (write to temp file, then rename) so a crash never
// leaves a truncated video under the final name.
func (s *ArtifactStore) Save(ctx context.Context, a domain.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.Name == "" || filepath.Base(a.Name) != a.Name {
		return "", fmt.Errorf("%w: artifact name %q", domain.ErrInvalidInput, a.Name)
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, a.Name)
	tmp := path + ".tmp"

	// Write to temp file
	if err := os.WriteFile(tmp, a.Data, 0o644); err != nil {
		return "", err
	}

	// Atomic rename
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// Dir returns the output directory.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

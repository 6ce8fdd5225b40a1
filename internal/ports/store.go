package ports

import (
	"context"

	"github.com/bft-labs/sketchreel/internal/domain"
)

// ArtifactStore persists finished recordings.
type ArtifactStore interface {
	// Save stores the artifact and returns where it was written.
	Save(ctx context.Context, a domain.Artifact) (string, error)
}

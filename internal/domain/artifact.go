package domain

import "time"

// ArtifactPrefix is the filename prefix of saved recordings.
const ArtifactPrefix = "sketch-video-"

// Artifact is a finished, encoded recording.
type Artifact struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ArtifactName builds "sketch-video-<timestamp>.<ext>" with a filesystem safe
// timestamp such as 2024-05-01T13-04-05.
func ArtifactName(t time.Time, ext string) string {
	return ArtifactPrefix + t.UTC().Format("2006-01-02T15-04-05") + "." + ext
}

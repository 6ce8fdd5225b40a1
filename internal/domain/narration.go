package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNarrationLength is the narration text limit in characters.
const MaxNarrationLength = 500

// DefaultVoice is used when no voice is configured.
const DefaultVoice = "Brian"

// Voices lists the accepted narration voices.
var Voices = []string{
	"Brian", "Amy", "Emma", "Russell", "Nicole", "Joey",
	"Justin", "Matthew", "Ivy", "Joanna", "Kendra", "Kimberly",
}

// ValidateNarration checks text length and voice name.
// Empty text is reported as ErrNarrationRequired.
func ValidateNarration(text, voice string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNarrationRequired
	}
	if n := utf8.RuneCountInString(text); n > MaxNarrationLength {
		return fmt.Errorf("%w: %d characters, limit %d", ErrNarrationTooLong, n, MaxNarrationLength)
	}
	if !slices.Contains(Voices, voice) {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, voice)
	}
	return nil
}

// EstimateNarration approximates spoken duration at 0.6s per word.
func EstimateNarration(text string) time.Duration {
	words := len(strings.Fields(text))
	return time.Duration(words) * 600 * time.Millisecond
}

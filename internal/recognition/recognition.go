package recognition

import (
	"context"

	"scrawl/internal/textutil"
)

// Backend transcribes one image rendition into text. Implementations live in
// internal/services and must be safe for concurrent use.
type Backend interface {
	// Name identifies the backend in logs and diagnostics.
	Name() string
	// Transcribe reads the image preprocessed with the named variant.
	Transcribe(ctx context.Context, image []byte, variant string) (Candidate, error)
}

// Candidate is one backend's reading of one preprocessing variant.
type Candidate struct {
	Backend    string
	Variant    string
	Text       string
	Confidence float64
}

// Transcript is the selected reading of a document image.
type Transcript struct {
	Text          string
	Confidence    float64
	Backend       string
	Variant       string
	LowConfidence bool
	Reinterpreted bool
}

// betterThan reports whether c should be preferred over other. Higher
// confidence wins; on equal confidence the longer substantive text wins.
func (c Candidate) betterThan(other Candidate) bool {
	if c.Confidence != other.Confidence {
		return c.Confidence > other.Confidence
	}
	return textutil.NonWhitespaceLen(c.Text) > textutil.NonWhitespaceLen(other.Text)
}

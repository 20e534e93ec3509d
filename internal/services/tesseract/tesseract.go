// Package tesseract transcribes document images with a local Tesseract
// installation through gosseract. Preprocessing variants map onto page
// segmentation modes so the same image yields genuinely different readings.
package tesseract

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"scrawl/internal/recognition"
	"scrawl/internal/services"
)

// BackendName identifies this backend in logs and diagnostics.
const BackendName = "tesseract"

var variantModes = map[string]gosseract.PageSegMode{
	"adaptive":   gosseract.PSM_AUTO,
	"otsu":       gosseract.PSM_SINGLE_BLOCK,
	"gaussian":   gosseract.PSM_SPARSE_TEXT,
	"morphology": gosseract.PSM_SINGLE_COLUMN,
}

// Backend implements recognition.Backend with a local Tesseract engine.
// Each Transcribe call uses a fresh client; gosseract clients are not safe
// for concurrent use.
type Backend struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract backend reading the supplied languages.
func New(languages []string) *Backend {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Backend{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (b *Backend) Name() string { return BackendName }

// Transcribe runs OCR over the image using the page segmentation mode mapped
// from variant. Confidence is the mean word confidence reported by Tesseract.
func (b *Backend) Transcribe(ctx context.Context, image []byte, variant string) (recognition.Candidate, error) {
	var empty recognition.Candidate
	if err := ctx.Err(); err != nil {
		return empty, services.Wrap(services.ErrTimeout, BackendName, "transcribe", "context done", err)
	}
	mode, ok := variantModes[variant]
	if !ok {
		return empty, services.Wrap(services.ErrValidation, BackendName, "transcribe", "unknown variant "+variant, nil)
	}

	client := b.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, BackendName, "transcribe", "set image", err)
	}
	if err := client.SetLanguage(b.languages...); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, BackendName, "transcribe", "set languages", err)
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, BackendName, "transcribe", "set page mode", err)
	}

	text, err := client.Text()
	if err != nil {
		return empty, services.Wrap(services.ErrExternalTool, BackendName, "transcribe", "recognize text", err)
	}

	return recognition.Candidate{
		Text:       strings.TrimSpace(text),
		Confidence: meanWordConfidence(client),
	}, nil
}

// meanWordConfidence averages Tesseract's per-word confidences onto [0,1].
// A reading with no word boxes scores zero.
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}

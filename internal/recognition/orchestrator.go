package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"scrawl/internal/deadline"
	"scrawl/internal/gate"
	"scrawl/internal/logging"
	"scrawl/internal/services"
	"scrawl/internal/textutil"
)

// Reinterpreter produces a cleaned reading of a low-confidence raw transcript.
type Reinterpreter interface {
	Reinterpret(ctx context.Context, rawText string) (string, error)
}

// Options configures an Orchestrator.
type Options struct {
	Backends            []Backend
	Variants            []string
	Reinterpreter       Reinterpreter
	Gate                *gate.Gate
	Supervisor          *deadline.Supervisor
	ConfidenceThreshold float64
	MinTranscriptChars  int
	Logger              *slog.Logger
}

// Orchestrator fans a document image out across every backend and
// preprocessing variant, then selects the strongest candidate transcript.
type Orchestrator struct {
	backends      []Backend
	variants      []string
	reinterpreter Reinterpreter
	gate          *gate.Gate
	supervisor    *deadline.Supervisor
	threshold     float64
	minChars      int
	logger        *slog.Logger
}

// NewOrchestrator validates opts and builds an Orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if len(opts.Backends) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "recognition", "new", "at least one backend required", nil)
	}
	if opts.Gate == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recognition", "new", "gate required", nil)
	}
	if opts.Supervisor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "recognition", "new", "supervisor required", nil)
	}
	variants := opts.Variants
	if len(variants) == 0 {
		variants = []string{"adaptive"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		backends:      opts.Backends,
		variants:      variants,
		reinterpreter: opts.Reinterpreter,
		gate:          opts.Gate,
		supervisor:    opts.Supervisor,
		threshold:     opts.ConfidenceThreshold,
		minChars:      opts.MinTranscriptChars,
		logger:        logger,
	}, nil
}

// Recognize transcribes the image with every backend and variant and returns
// the selected transcript. When every candidate fails the error carries
// ErrRecognition and the document cannot proceed.
func (o *Orchestrator) Recognize(ctx context.Context, image []byte) (Transcript, error) {
	if len(image) == 0 {
		return Transcript{}, services.Wrap(services.ErrValidation, "recognition", "recognize", "empty image", nil)
	}

	total := len(o.backends) * len(o.variants)
	results := make(chan candidateResult, total)
	var wg sync.WaitGroup
	for _, backend := range o.backends {
		for _, variant := range o.variants {
			wg.Add(1)
			go func(backend Backend, variant string) {
				defer wg.Done()
				results <- o.runBackend(ctx, backend, variant, image)
			}(backend, variant)
		}
	}
	wg.Wait()
	close(results)

	var best Candidate
	found := false
	failures := 0
	for res := range results {
		if res.err != nil {
			failures++
			o.logger.Warn("backend candidate failed",
				logging.String(logging.FieldBackend, res.backend),
				logging.String(logging.FieldVariant, res.variant),
				logging.Error(res.err))
			continue
		}
		if !found || res.candidate.betterThan(best) {
			best = res.candidate
			found = true
		}
	}
	if !found {
		return Transcript{}, services.Wrap(services.ErrRecognition, "recognition", "recognize",
			fmt.Sprintf("no usable candidate from %d attempts (%d failed)", total, failures), nil)
	}

	transcript := Transcript{
		Text:       textutil.NormalizeTranscript(best.Text),
		Confidence: best.Confidence,
		Backend:    best.Backend,
		Variant:    best.Variant,
	}
	// A short selected transcript is as suspect as a sub-threshold one and
	// takes the same re-reading path.
	if best.Confidence >= o.threshold && textutil.NonWhitespaceLen(transcript.Text) >= o.minChars {
		return transcript, nil
	}

	transcript.LowConfidence = true
	if o.reinterpreter == nil {
		return transcript, nil
	}
	cleaned, err := deadline.Run(ctx, o.supervisor, "reinterpret transcript", func(ctx context.Context) (string, error) {
		return o.reinterpreter.Reinterpret(ctx, transcript.Text)
	})
	if err != nil {
		// Keep the raw low-confidence reading rather than failing the run.
		o.logger.Warn("reinterpretation failed, keeping raw transcript", logging.Error(err))
		return transcript, nil
	}
	transcript.Text = textutil.NormalizeTranscript(cleaned)
	transcript.Reinterpreted = true
	// A re-read never restores full trust in the transcript.
	if ceiling := o.threshold - 0.01; transcript.Confidence > ceiling {
		transcript.Confidence = ceiling
	}
	return transcript, nil
}

type candidateResult struct {
	backend   string
	variant   string
	candidate Candidate
	err       error
}

func (o *Orchestrator) runBackend(ctx context.Context, backend Backend, variant string, image []byte) candidateResult {
	res := candidateResult{backend: backend.Name(), variant: variant}
	if err := o.gate.Acquire(ctx); err != nil {
		res.err = err
		return res
	}
	defer o.gate.Release()

	op := fmt.Sprintf("transcribe %s/%s", backend.Name(), variant)
	candidate, err := deadline.Run(ctx, o.supervisor, op, func(ctx context.Context) (Candidate, error) {
		return backend.Transcribe(ctx, image, variant)
	})
	if err != nil {
		res.err = err
		return res
	}
	candidate.Backend = backend.Name()
	candidate.Variant = variant
	res.candidate = candidate
	return res
}

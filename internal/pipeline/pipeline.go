// Package pipeline runs one document end to end: recognition, segmentation,
// tiered extraction, and verification. The run carries an overall deadline;
// stages derive sub-budgets from it and an exhausted budget yields partial
// results rather than a failed run.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"scrawl/internal/config"
	"scrawl/internal/deadline"
	"scrawl/internal/extract"
	"scrawl/internal/gate"
	"scrawl/internal/logging"
	"scrawl/internal/recognition"
	"scrawl/internal/segment"
	"scrawl/internal/services"
	"scrawl/internal/verify"
)

// Document is one piece of handwritten work to read. Either an image (by
// path or bytes) or raw pasted text; text documents bypass recognition.
type Document struct {
	ID        string
	ImagePath string
	Image     []byte
	Text      string
}

// Answer is the final record for one question.
type Answer struct {
	QuestionNumber       string
	Answer               string
	TierUsed             extract.Tier
	ExtractionConfidence float64
	MatchConfidence      float64
	Corrected            bool
	Verified             bool
}

// Diagnostics reports what degraded during a run.
type Diagnostics struct {
	LowConfidence       bool
	Reinterpreted       bool
	ExhaustedQuestions  []string
	UnverifiedQuestions []string
}

// Outcome is the result of one pipeline run. Answers follow the segmenter's
// first-appearance order.
type Outcome struct {
	RunID       string
	Document    Document
	Transcript  recognition.Transcript
	Segments    []segment.Segment
	Answers     []Answer
	Diagnostics Diagnostics
	Duration    time.Duration
}

// Pipeline wires the stages together under one configuration.
type Pipeline struct {
	cfg          *config.Config
	orchestrator *recognition.Orchestrator
	extractor    *extract.Extractor
	verifier     *verify.Verifier
	gate         *gate.Gate
	logger       *slog.Logger
}

// Options configures a Pipeline. Orchestrator may be nil when only text
// documents will be processed.
type Options struct {
	Config       *config.Config
	Orchestrator *recognition.Orchestrator
	Extractor    *extract.Extractor
	Verifier     *verify.Verifier
	Gate         *gate.Gate
	Logger       *slog.Logger
}

// New validates opts and builds a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "config required", nil)
	}
	if opts.Extractor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "extractor required", nil)
	}
	if opts.Verifier == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "verifier required", nil)
	}
	if opts.Gate == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "gate required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:          opts.Config,
		orchestrator: opts.Orchestrator,
		extractor:    opts.Extractor,
		verifier:     opts.Verifier,
		gate:         opts.Gate,
		logger:       logger,
	}, nil
}

// Extract runs the full pipeline for one document. expected maps question
// numbers to expected answers and may be nil. A recognition failure is the
// only error that aborts the run; every downstream degradation lands in the
// outcome's diagnostics instead.
func (p *Pipeline) Extract(ctx context.Context, doc Document, expected map[string]string) (Outcome, error) {
	started := time.Now()
	outcome := Outcome{Document: doc}
	outcome.RunID = doc.ID
	if outcome.RunID == "" {
		outcome.RunID = uuid.New().String()
	}
	ctx = services.WithRunID(ctx, outcome.RunID)
	logger := p.logger.With(logging.String(logging.FieldRunID, outcome.RunID))

	transcript, err := p.resolveTranscript(ctx, doc, logger)
	if err != nil {
		return outcome, err
	}
	outcome.Transcript = transcript
	outcome.Diagnostics.LowConfidence = transcript.LowConfidence
	outcome.Diagnostics.Reinterpreted = transcript.Reinterpreted

	outcome.Segments = segment.Split(transcript.Text)
	logger.Info("transcript segmented",
		logging.String(logging.FieldBackend, transcript.Backend),
		logging.Int("segments", len(outcome.Segments)),
		logging.Float64("confidence", transcript.Confidence))
	if len(outcome.Segments) == 0 {
		outcome.Duration = time.Since(started)
		return outcome, nil
	}

	phaseCtx, cancel := deadline.SubBudget(ctx, 1,
		time.Duration(p.cfg.Extraction.PhaseTimeoutSeconds)*time.Second)
	defer cancel()

	extractions := p.extractAll(phaseCtx, outcome.Segments)
	verifications := p.verifier.VerifyAll(phaseCtx, buildVerifyRequests(outcome.Segments, extractions, expected))

	outcome.Answers = make([]Answer, len(outcome.Segments))
	for i := range outcome.Segments {
		ext, ver := extractions[i], verifications[i]
		answer := Answer{
			QuestionNumber:       ext.QuestionNumber,
			Answer:               ver.FinalAnswer,
			TierUsed:             ext.TierUsed,
			ExtractionConfidence: ext.Confidence,
			MatchConfidence:      ver.MatchConfidence,
			Corrected:            ver.Corrected,
			Verified:             ver.Verified,
		}
		outcome.Answers[i] = answer
		if answer.TierUsed == extract.TierNone {
			outcome.Diagnostics.ExhaustedQuestions = append(outcome.Diagnostics.ExhaustedQuestions, answer.QuestionNumber)
		} else if !answer.Verified {
			outcome.Diagnostics.UnverifiedQuestions = append(outcome.Diagnostics.UnverifiedQuestions, answer.QuestionNumber)
		}
	}

	outcome.Duration = time.Since(started)
	logger.Info("run complete",
		logging.Int("answers", len(outcome.Answers)),
		logging.Int("exhausted", len(outcome.Diagnostics.ExhaustedQuestions)),
		logging.Duration("duration", outcome.Duration))
	return outcome, nil
}

func (p *Pipeline) resolveTranscript(ctx context.Context, doc Document, logger *slog.Logger) (recognition.Transcript, error) {
	if text := strings.TrimSpace(doc.Text); text != "" {
		// Pasted text needs no recognition and is trusted as written.
		return recognition.Transcript{Text: text, Confidence: 1, Backend: "text"}, nil
	}

	image := doc.Image
	if len(image) == 0 && doc.ImagePath != "" {
		data, err := os.ReadFile(doc.ImagePath)
		if err != nil {
			return recognition.Transcript{}, services.Wrap(services.ErrValidation, "pipeline", "read image", doc.ImagePath, err)
		}
		image = data
	}
	if len(image) == 0 {
		return recognition.Transcript{}, services.Wrap(services.ErrValidation, "pipeline", "ingest", "document has neither image nor text", nil)
	}
	if p.orchestrator == nil {
		return recognition.Transcript{}, services.Wrap(services.ErrConfiguration, "pipeline", "ingest", "no recognition backend configured", nil)
	}

	phaseCtx, cancel := deadline.SubBudget(ctx, 1,
		time.Duration(p.cfg.Recognition.PhaseTimeoutSeconds)*time.Second)
	defer cancel()
	logger.Info("recognizing document", logging.Int("image_bytes", len(image)))
	return p.orchestrator.Recognize(phaseCtx, image)
}

// extractAll runs the tier walk for every segment concurrently and returns
// results aligned with the segment order. Segments still unresolved when the
// phase budget expires are reported as exhausted; their goroutines drain
// into a buffered channel and never leak.
func (p *Pipeline) extractAll(ctx context.Context, segments []segment.Segment) []extract.Result {
	type indexed struct {
		idx int
		res extract.Result
	}
	ch := make(chan indexed, len(segments))
	for i, seg := range segments {
		go func(i int, seg segment.Segment) {
			segCtx := services.WithQuestion(ctx, seg.QuestionNumber)
			if err := p.gate.Acquire(segCtx); err != nil {
				ch <- indexed{i, extract.Result{QuestionNumber: seg.QuestionNumber, TierUsed: extract.TierNone}}
				return
			}
			res := p.extractor.Extract(segCtx, seg)
			p.gate.Release()
			ch <- indexed{i, res}
		}(i, seg)
	}

	results := make([]extract.Result, len(segments))
	for i, seg := range segments {
		results[i] = extract.Result{QuestionNumber: seg.QuestionNumber, TierUsed: extract.TierNone}
	}
	collected := 0
	for collected < len(segments) {
		select {
		case item := <-ch:
			results[item.idx] = item.res
			collected++
		case <-ctx.Done():
			return results
		}
	}
	return results
}

func buildVerifyRequests(segments []segment.Segment, extractions []extract.Result, expected map[string]string) []verify.Request {
	requests := make([]verify.Request, len(segments))
	for i, seg := range segments {
		requests[i] = verify.Request{
			QuestionNumber: seg.QuestionNumber,
			SegmentText:    seg.RawText,
			Answer:         extractions[i].Answer,
			Expected:       expected[seg.QuestionNumber],
		}
	}
	return requests
}

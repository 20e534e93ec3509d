// Package extract resolves one answer per question segment. Each segment
// walks a fixed tier sequence: a semantic interpreter read, an aggressive
// re-read for noisy text, a minimal probe for very short fragments, and a
// deterministic pattern scan that needs no external service at all. The
// first tier to produce a non-empty answer wins and later tiers never run.
package extract

import (
	"context"
	"log/slog"
	"strings"

	"scrawl/internal/deadline"
	"scrawl/internal/logging"
	"scrawl/internal/segment"
	"scrawl/internal/services"
	"scrawl/internal/services/interpreter"
	"scrawl/internal/textutil"
)

// Tier identifies which strategy produced an answer.
type Tier string

const (
	TierSemantic   Tier = "semantic"
	TierAggressive Tier = "aggressive"
	TierMinimal    Tier = "minimal"
	TierPattern    Tier = "pattern"
	TierNone       Tier = "none"
)

// patternConfidence is the fixed score for answers found by the
// deterministic scan. The scan has no way to judge its own reading, so the
// score stays below the verification threshold.
const patternConfidence = 0.4

// Result is the extraction outcome for one segment. Answer is empty and
// TierUsed is TierNone when every tier came up dry.
type Result struct {
	QuestionNumber string
	Answer         string
	TierUsed       Tier
	Confidence     float64
}

// Interpreter is the slice of the external interpreter the extractor needs.
type Interpreter interface {
	ExtractAnswer(ctx context.Context, req interpreter.AnswerRequest) (interpreter.AnswerResult, error)
}

// Options configures an Extractor.
type Options struct {
	Interpreter Interpreter
	// Supervisor governs the semantic tier.
	Supervisor *deadline.Supervisor
	// AggressiveSupervisor governs the aggressive tier; defaults to Supervisor.
	AggressiveSupervisor *deadline.Supervisor
	// MinimalSupervisor governs the minimal tier; defaults to Supervisor.
	MinimalSupervisor *deadline.Supervisor
	MinimalCutoff     int // non-whitespace chars below which the minimal tier applies
	Logger            *slog.Logger
}

// Extractor runs the tier sequence for question segments.
type Extractor struct {
	interp               Interpreter
	supervisor           *deadline.Supervisor
	aggressiveSupervisor *deadline.Supervisor
	minimalSupervisor    *deadline.Supervisor
	minimalCutoff        int
	logger               *slog.Logger
}

// New validates opts and builds an Extractor. Interpreter may be nil, in
// which case only the pattern tier runs.
func New(opts Options) (*Extractor, error) {
	if opts.Supervisor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "extract", "new", "supervisor required", nil)
	}
	cutoff := opts.MinimalCutoff
	if cutoff <= 0 {
		cutoff = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	aggressiveSupervisor := opts.AggressiveSupervisor
	if aggressiveSupervisor == nil {
		aggressiveSupervisor = opts.Supervisor
	}
	minimalSupervisor := opts.MinimalSupervisor
	if minimalSupervisor == nil {
		minimalSupervisor = opts.Supervisor
	}
	return &Extractor{
		interp:               opts.Interpreter,
		supervisor:           opts.Supervisor,
		aggressiveSupervisor: aggressiveSupervisor,
		minimalSupervisor:    minimalSupervisor,
		minimalCutoff:        cutoff,
		logger:               logger,
	}, nil
}

// Extract resolves one segment. Interpreter failures at any tier are
// contained: the walk simply moves on to the next tier, and the pattern
// scan guarantees a bounded finish even when the interpreter is down.
func (e *Extractor) Extract(ctx context.Context, seg segment.Segment) Result {
	result := Result{QuestionNumber: seg.QuestionNumber, TierUsed: TierNone}
	if strings.TrimSpace(seg.RawText) == "" {
		return result
	}

	for _, tier := range e.tierSequence(seg) {
		answer, confidence, err := e.runTier(ctx, tier, seg)
		if err != nil {
			e.logger.Debug("tier failed",
				logging.String(logging.FieldQuestion, seg.QuestionNumber),
				logging.String(logging.FieldTier, string(tier)),
				logging.Error(err))
			continue
		}
		if answer == "" {
			continue
		}
		result.Answer = answer
		result.TierUsed = tier
		result.Confidence = confidence
		return result
	}
	return result
}

// tierSequence returns the tiers to walk for this segment. Short fragments
// skip straight to the minimal probe; everything else starts semantic. The
// pattern scan always closes the sequence.
func (e *Extractor) tierSequence(seg segment.Segment) []Tier {
	if textutil.NonWhitespaceLen(seg.RawText) < e.minimalCutoff {
		return []Tier{TierMinimal, TierPattern}
	}
	return []Tier{TierSemantic, TierAggressive, TierPattern}
}

func (e *Extractor) runTier(ctx context.Context, tier Tier, seg segment.Segment) (string, float64, error) {
	if tier == TierPattern {
		clause, ok := MatchPattern(seg.RawText)
		if !ok {
			return "", 0, nil
		}
		return clause.Text, patternConfidence, nil
	}
	if e.interp == nil {
		return "", 0, nil
	}

	mode := map[Tier]interpreter.Mode{
		TierSemantic:   interpreter.ModeSemantic,
		TierAggressive: interpreter.ModeAggressive,
		TierMinimal:    interpreter.ModeMinimal,
	}[tier]
	supervisor := e.supervisor
	switch tier {
	case TierAggressive:
		supervisor = e.aggressiveSupervisor
	case TierMinimal:
		supervisor = e.minimalSupervisor
	}
	res, err := deadline.Run(ctx, supervisor, "extract "+string(tier), func(ctx context.Context) (interpreter.AnswerResult, error) {
		return e.interp.ExtractAnswer(ctx, interpreter.AnswerRequest{
			Mode:           mode,
			QuestionNumber: seg.QuestionNumber,
			SegmentText:    seg.RawText,
		})
	})
	if err != nil {
		return "", 0, err
	}
	return res.Answer, res.Confidence, nil
}

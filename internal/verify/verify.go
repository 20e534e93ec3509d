// Package verify confirms extracted answers against the surrounding work
// and, when supplied, the expected answers. Verification is best effort: a
// failed or timed-out check passes the unverified answer through with zero
// match confidence instead of discarding it.
package verify

import (
	"context"
	"log/slog"
	"sync"

	"scrawl/internal/deadline"
	"scrawl/internal/gate"
	"scrawl/internal/logging"
	"scrawl/internal/services"
	"scrawl/internal/services/interpreter"
)

// Request is one answer to check.
type Request struct {
	QuestionNumber string
	SegmentText    string
	Answer         string
	Expected       string
}

// Result is the verdict for one question. Verified is false when the check
// never completed and FinalAnswer is the unmodified extracted answer.
type Result struct {
	QuestionNumber  string
	FinalAnswer     string
	MatchConfidence float64
	Corrected       bool
	Verified        bool
}

// Interpreter is the slice of the external interpreter the verifier needs.
type Interpreter interface {
	VerifyAnswer(ctx context.Context, req interpreter.VerificationRequest) (interpreter.VerificationOutcome, error)
}

// Options configures a Verifier.
type Options struct {
	Interpreter Interpreter
	Gate        *gate.Gate
	Supervisor  *deadline.Supervisor
	Logger      *slog.Logger
}

// Verifier batches verification requests under the shared concurrency gate.
type Verifier struct {
	interp     Interpreter
	gate       *gate.Gate
	supervisor *deadline.Supervisor
	logger     *slog.Logger
}

// New validates opts and builds a Verifier. Interpreter may be nil, in which
// case every answer passes through unverified.
func New(opts Options) (*Verifier, error) {
	if opts.Gate == nil {
		return nil, services.Wrap(services.ErrConfiguration, "verify", "new", "gate required", nil)
	}
	if opts.Supervisor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "verify", "new", "supervisor required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		interp:     opts.Interpreter,
		gate:       opts.Gate,
		supervisor: opts.Supervisor,
		logger:     logger,
	}, nil
}

// VerifyAll checks every request concurrently and returns results in input
// order. Requests with an empty answer are never sent out; they produce an
// empty result so the caller's mapping still covers every question.
func (v *Verifier) VerifyAll(ctx context.Context, requests []Request) []Result {
	results := make([]Result, len(requests))
	var wg sync.WaitGroup
	for i, req := range requests {
		results[i] = Result{QuestionNumber: req.QuestionNumber}
		if req.Answer == "" {
			continue
		}
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = v.verifyOne(ctx, req)
		}(i, req)
	}
	wg.Wait()
	return results
}

func (v *Verifier) verifyOne(ctx context.Context, req Request) Result {
	passThrough := Result{
		QuestionNumber: req.QuestionNumber,
		FinalAnswer:    req.Answer,
	}
	if v.interp == nil {
		return passThrough
	}
	if err := v.gate.Acquire(ctx); err != nil {
		return passThrough
	}
	defer v.gate.Release()

	outcome, err := deadline.Run(ctx, v.supervisor, "verify answer", func(ctx context.Context) (interpreter.VerificationOutcome, error) {
		return v.interp.VerifyAnswer(ctx, interpreter.VerificationRequest{
			QuestionNumber: req.QuestionNumber,
			SegmentText:    req.SegmentText,
			Extracted:      req.Answer,
			Expected:       req.Expected,
		})
	})
	if err != nil {
		v.logger.Warn("verification failed, passing answer through",
			logging.String(logging.FieldQuestion, req.QuestionNumber),
			logging.Error(err))
		return passThrough
	}
	return Result{
		QuestionNumber:  req.QuestionNumber,
		FinalAnswer:     outcome.FinalAnswer,
		MatchConfidence: outcome.MatchConfidence,
		Corrected:       outcome.Corrected,
		Verified:        true,
	}
}

package verify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"scrawl/internal/deadline"
	"scrawl/internal/gate"
	"scrawl/internal/services"
	"scrawl/internal/services/interpreter"
)

type fakeInterpreter struct {
	outcomes map[string]interpreter.VerificationOutcome
	errs     map[string]error
	inFlight atomic.Int64
	peak     atomic.Int64
	delay    time.Duration
}

func (f *fakeInterpreter) VerifyAnswer(ctx context.Context, req interpreter.VerificationRequest) (interpreter.VerificationOutcome, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return interpreter.VerificationOutcome{}, ctx.Err()
		}
	}
	if err := f.errs[req.QuestionNumber]; err != nil {
		return interpreter.VerificationOutcome{}, err
	}
	return f.outcomes[req.QuestionNumber], nil
}

func newVerifier(t *testing.T, interp Interpreter, limit int) *Verifier {
	t.Helper()
	supervisor := deadline.NewSupervisor(deadline.Policy{
		PerAttempt:  time.Second,
		MaxAttempts: 1,
	}, deadline.WithSleeper(func(time.Duration) {}))
	v, err := New(Options{Interpreter: interp, Gate: gate.New(limit), Supervisor: supervisor})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestVerifyAllPreservesInputOrder(t *testing.T) {
	interp := &fakeInterpreter{outcomes: map[string]interpreter.VerificationOutcome{
		"1": {FinalAnswer: "x = 7", MatchConfidence: 0.95},
		"2": {FinalAnswer: "y = 2", MatchConfidence: 0.9},
		"3": {FinalAnswer: "z = 0", MatchConfidence: 0.8},
	}}
	v := newVerifier(t, interp, 5)

	results := v.VerifyAll(context.Background(), []Request{
		{QuestionNumber: "1", Answer: "x = 7"},
		{QuestionNumber: "2", Answer: "y = 2"},
		{QuestionNumber: "3", Answer: "z = 0"},
	})
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	for i, want := range []string{"1", "2", "3"} {
		if results[i].QuestionNumber != want {
			t.Fatalf("result %d is question %q, want %q", i, results[i].QuestionNumber, want)
		}
	}
	if results[0].FinalAnswer != "x = 7" || results[0].MatchConfidence != 0.95 {
		t.Fatalf("result 0 = %+v", results[0])
	}
}

func TestVerifyAllFailurePassesAnswerThrough(t *testing.T) {
	interp := &fakeInterpreter{
		outcomes: map[string]interpreter.VerificationOutcome{
			"1": {FinalAnswer: "x = 7", MatchConfidence: 0.95},
		},
		errs: map[string]error{
			"3": services.Wrap(services.ErrTimeout, "interpreter", "verify", "slow", nil),
		},
	}
	v := newVerifier(t, interp, 5)

	results := v.VerifyAll(context.Background(), []Request{
		{QuestionNumber: "1", Answer: "x = 7"},
		{QuestionNumber: "3", Answer: "y = 9"},
	})
	if results[1].FinalAnswer != "y = 9" {
		t.Fatalf("result = %+v, want unverified pass-through", results[1])
	}
	if results[1].MatchConfidence != 0 || results[1].Corrected || results[1].Verified {
		t.Fatalf("result = %+v, want unverified zero-confidence pass-through", results[1])
	}
}

func TestVerifyAllSkipsEmptyAnswers(t *testing.T) {
	interp := &fakeInterpreter{outcomes: map[string]interpreter.VerificationOutcome{
		"2": {FinalAnswer: "y = 2", MatchConfidence: 0.9},
	}}
	v := newVerifier(t, interp, 5)

	results := v.VerifyAll(context.Background(), []Request{
		{QuestionNumber: "1", Answer: ""},
		{QuestionNumber: "2", Answer: "y = 2"},
	})
	if results[0].FinalAnswer != "" || results[0].MatchConfidence != 0 {
		t.Fatalf("result = %+v, want empty placeholder", results[0])
	}
	if results[1].FinalAnswer != "y = 2" {
		t.Fatalf("result = %+v", results[1])
	}
}

func TestVerifyAllRespectsConcurrencyCeiling(t *testing.T) {
	const limit = 2
	interp := &fakeInterpreter{
		outcomes: map[string]interpreter.VerificationOutcome{},
		delay:    20 * time.Millisecond,
	}
	v := newVerifier(t, interp, limit)

	requests := make([]Request, 10)
	for i := range requests {
		requests[i] = Request{QuestionNumber: string(rune('a' + i)), Answer: "x"}
	}
	v.VerifyAll(context.Background(), requests)

	if peak := interp.peak.Load(); peak > limit {
		t.Fatalf("peak concurrency = %d, ceiling is %d", peak, limit)
	}
}

func TestVerifyAllNilInterpreter(t *testing.T) {
	v := newVerifier(t, nil, 5)
	results := v.VerifyAll(context.Background(), []Request{{QuestionNumber: "1", Answer: "x = 7"}})
	if results[0].FinalAnswer != "x = 7" || results[0].MatchConfidence != 0 {
		t.Fatalf("result = %+v", results[0])
	}
}

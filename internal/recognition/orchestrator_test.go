package recognition

import (
	"context"
	"errors"
	"testing"
	"time"

	"scrawl/internal/deadline"
	"scrawl/internal/gate"
	"scrawl/internal/services"
)

type fakeBackend struct {
	name       string
	candidates map[string]Candidate
	err        error
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Transcribe(_ context.Context, _ []byte, variant string) (Candidate, error) {
	if f.err != nil {
		return Candidate{}, f.err
	}
	return f.candidates[variant], nil
}

type fakeReinterpreter struct {
	text  string
	err   error
	calls int
}

func (f *fakeReinterpreter) Reinterpret(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func testSupervisor() *deadline.Supervisor {
	return deadline.NewSupervisor(deadline.Policy{
		PerAttempt:  time.Second,
		MaxAttempts: 1,
	}, deadline.WithSleeper(func(time.Duration) {}))
}

func newOrchestrator(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	if opts.Gate == nil {
		opts.Gate = gate.New(5)
	}
	if opts.Supervisor == nil {
		opts.Supervisor = testSupervisor()
	}
	if opts.ConfidenceThreshold == 0 {
		opts.ConfidenceThreshold = 0.6
	}
	o, err := NewOrchestrator(opts)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}

func TestRecognizeSelectsHighestConfidence(t *testing.T) {
	o := newOrchestrator(t, Options{
		Backends: []Backend{
			&fakeBackend{name: "alpha", candidates: map[string]Candidate{
				"adaptive": {Text: "3. x = 7 and more working", Confidence: 0.71},
			}},
			&fakeBackend{name: "beta", candidates: map[string]Candidate{
				"adaptive": {Text: "3. x = 7 best reading here", Confidence: 0.93},
			}},
		},
		Variants: []string{"adaptive"},
	})

	transcript, err := o.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if transcript.Backend != "beta" {
		t.Fatalf("backend = %q, want beta", transcript.Backend)
	}
	if transcript.Confidence != 0.93 || transcript.LowConfidence {
		t.Fatalf("transcript = %+v", transcript)
	}
}

func TestRecognizeTieBreaksOnLongerText(t *testing.T) {
	o := newOrchestrator(t, Options{
		Backends: []Backend{
			&fakeBackend{name: "alpha", candidates: map[string]Candidate{
				"adaptive": {Text: "3. x = 7", Confidence: 0.8},
				"otsu":     {Text: "3. 2x = 14 therefore x = 7", Confidence: 0.8},
			}},
		},
		Variants: []string{"adaptive", "otsu"},
	})

	transcript, err := o.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if transcript.Variant != "otsu" {
		t.Fatalf("variant = %q, want otsu (longer text wins the tie)", transcript.Variant)
	}
}

func TestRecognizeShortTranscriptStillWinsOnConfidence(t *testing.T) {
	o := newOrchestrator(t, Options{
		Backends: []Backend{
			&fakeBackend{name: "alpha", candidates: map[string]Candidate{
				"adaptive": {Text: "x=7", Confidence: 0.95},
				"otsu":     {Text: "3. 2x = 14 therefore x = 7", Confidence: 0.3},
			}},
		},
		Variants:           []string{"adaptive", "otsu"},
		MinTranscriptChars: 12,
	})

	transcript, err := o.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if transcript.Variant != "adaptive" {
		t.Fatalf("variant = %q, want adaptive (highest confidence wins)", transcript.Variant)
	}
	if transcript.Text != "x=7" {
		t.Fatalf("text = %q", transcript.Text)
	}
	if !transcript.LowConfidence {
		t.Fatal("short transcript must be flagged low confidence")
	}
}

func TestRecognizeShortSoleCandidateSucceeds(t *testing.T) {
	re := &fakeReinterpreter{text: "x = 7"}
	o := newOrchestrator(t, Options{
		Backends: []Backend{
			&fakeBackend{name: "alpha", candidates: map[string]Candidate{
				"adaptive": {Text: "x=7", Confidence: 0.95},
			}},
		},
		Variants:           []string{"adaptive"},
		MinTranscriptChars: 12,
		Reinterpreter:      re,
	})

	transcript, err := o.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if re.calls != 1 {
		t.Fatalf("reinterpreter calls = %d, want 1", re.calls)
	}
	if !transcript.LowConfidence || !transcript.Reinterpreted {
		t.Fatalf("transcript = %+v", transcript)
	}
	if transcript.Text != "x = 7" {
		t.Fatalf("text = %q", transcript.Text)
	}
}

func TestRecognizeAllBackendsFail(t *testing.T) {
	o := newOrchestrator(t, Options{
		Backends: []Backend{
			&fakeBackend{name: "alpha", err: services.Wrap(services.ErrExternalTool, "test", "transcribe", "down", nil)},
		},
		Variants: []string{"adaptive"},
	})

	_, err := o.Recognize(context.Background(), []byte("img"))
	if !errors.Is(err, services.ErrRecognition) {
		t.Fatalf("error = %v, want recognition failure", err)
	}
}

func TestRecognizeLowConfidenceReinterprets(t *testing.T) {
	re := &fakeReinterpreter{text: "3. x = 10\nx ≠ 2"}
	o := newOrchestrator(t, Options{
		Backends: []Backend{
			&fakeBackend{name: "alpha", candidates: map[string]Candidate{
				"adaptive": {Text: "3. x - 1O\nx not 2", Confidence: 0.41},
			}},
		},
		Variants:      []string{"adaptive"},
		Reinterpreter: re,
	})

	transcript, err := o.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if re.calls != 1 {
		t.Fatalf("reinterpreter calls = %d, want 1", re.calls)
	}
	if !transcript.Reinterpreted || !transcript.LowConfidence {
		t.Fatalf("transcript = %+v", transcript)
	}
	if transcript.Text != "3. x = 10\nx ≠ 2" {
		t.Fatalf("text = %q", transcript.Text)
	}
	if transcript.Confidence >= 0.6 {
		t.Fatalf("confidence = %v, must stay below the threshold", transcript.Confidence)
	}
}

func TestRecognizeReinterpretFailureKeepsRawText(t *testing.T) {
	re := &fakeReinterpreter{err: services.Wrap(services.ErrTimeout, "interpreter", "reinterpret", "slow", nil)}
	o := newOrchestrator(t, Options{
		Backends: []Backend{
			&fakeBackend{name: "alpha", candidates: map[string]Candidate{
				"adaptive": {Text: "3. x - 1O raw reading", Confidence: 0.41},
			}},
		},
		Variants:      []string{"adaptive"},
		Reinterpreter: re,
	})

	transcript, err := o.Recognize(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if transcript.Reinterpreted {
		t.Fatal("transcript should not be marked reinterpreted")
	}
	if transcript.Text != "3. x - 1O raw reading" {
		t.Fatalf("text = %q", transcript.Text)
	}
}

func TestRecognizeEmptyImage(t *testing.T) {
	o := newOrchestrator(t, Options{
		Backends: []Backend{&fakeBackend{name: "alpha"}},
	})
	if _, err := o.Recognize(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

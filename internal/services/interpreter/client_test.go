package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"scrawl/internal/services"
)

func newTestServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		payload := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: url, Model: "test-model"})
}

func TestExtractAnswerParsesFencedPayload(t *testing.T) {
	server := newTestServer(t, http.StatusOK, "```json\n{\"answer\":\"x = 7\",\"confidence\":0.92}\n```")
	defer server.Close()

	result, err := newTestClient(server.URL).ExtractAnswer(context.Background(), AnswerRequest{
		Mode:           ModeSemantic,
		QuestionNumber: "3",
		SegmentText:    "3. 2x = 14\nx = 7",
	})
	if err != nil {
		t.Fatalf("ExtractAnswer: %v", err)
	}
	if result.Answer != "x = 7" {
		t.Fatalf("answer = %q, want %q", result.Answer, "x = 7")
	}
	if result.Confidence != 0.92 {
		t.Fatalf("confidence = %v, want 0.92", result.Confidence)
	}
}

func TestExtractAnswerClampsConfidence(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"answer":"42","confidence":1.7}`)
	defer server.Close()

	result, err := newTestClient(server.URL).ExtractAnswer(context.Background(), AnswerRequest{
		Mode:        ModeMinimal,
		SegmentText: "42",
	})
	if err != nil {
		t.Fatalf("ExtractAnswer: %v", err)
	}
	if result.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", result.Confidence)
	}
}

func TestExtractAnswerRejectsUnknownMode(t *testing.T) {
	_, err := newTestClient("http://unused").ExtractAnswer(context.Background(), AnswerRequest{
		Mode:        Mode("creative"),
		SegmentText: "x = 1",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused", Model: "test-model"})
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration", err)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, services.ErrTransient},
		{http.StatusInternalServerError, services.ErrTransient},
		{http.StatusUnauthorized, services.ErrConfiguration},
		{http.StatusRequestTimeout, services.ErrTimeout},
		{http.StatusNotFound, services.ErrExternalTool},
	}
	for _, tc := range cases {
		server := newTestServer(t, tc.status, "")
		_, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
		server.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: error = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestVerifyAnswerFallsBackToExtracted(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"final_answer":"","match_confidence":0.5,"corrected":true}`)
	defer server.Close()

	outcome, err := newTestClient(server.URL).VerifyAnswer(context.Background(), VerificationRequest{
		QuestionNumber: "2",
		SegmentText:    "2. x = 4",
		Extracted:      "x = 4",
	})
	if err != nil {
		t.Fatalf("VerifyAnswer: %v", err)
	}
	if outcome.FinalAnswer != "x = 4" {
		t.Fatalf("final answer = %q, want extracted fallback", outcome.FinalAnswer)
	}
	if outcome.Corrected {
		t.Fatal("corrected should be false when nothing changed")
	}
}

func TestVerifyAnswerReportsCorrection(t *testing.T) {
	server := newTestServer(t, http.StatusOK,
		`{"final_answer":"x = 10","match_confidence":0.9,"corrected":true,"substitutions":["O -> 0"]}`)
	defer server.Close()

	outcome, err := newTestClient(server.URL).VerifyAnswer(context.Background(), VerificationRequest{
		QuestionNumber: "5",
		SegmentText:    "5. x = 1O",
		Extracted:      "x = 1O",
		Expected:       "x = 10",
	})
	if err != nil {
		t.Fatalf("VerifyAnswer: %v", err)
	}
	if outcome.FinalAnswer != "x = 10" || !outcome.Corrected {
		t.Fatalf("outcome = %+v, want corrected x = 10", outcome)
	}
	if len(outcome.Substitutions) != 1 || outcome.Substitutions[0] != "O -> 0" {
		t.Fatalf("substitutions = %v", outcome.Substitutions)
	}
}

func TestReinterpretReturnsCleanedText(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"text":"3. x = 10\nx ≠ 2"}`)
	defer server.Close()

	cleaned, err := newTestClient(server.URL).Reinterpret(context.Background(), "3. x - 1O\nx not 2")
	if err != nil {
		t.Fatalf("Reinterpret: %v", err)
	}
	if cleaned != "3. x = 10\nx ≠ 2" {
		t.Fatalf("cleaned = %q", cleaned)
	}
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"ok":true}`)
	defer server.Close()

	if err := newTestClient(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestDecodeJSONCutsLeadingProse(t *testing.T) {
	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := DecodeJSON("Here is the result: {\"answer\":\"7\"}", &parsed); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if parsed.Answer != "7" {
		t.Fatalf("answer = %q", parsed.Answer)
	}
}

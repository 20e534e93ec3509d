package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"scrawl/internal/services"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 45 * time.Second
)

// Config captures the runtime settings required to talk to the interpreter.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible chat completion API used for semantic
// extraction, transcript re-reading, and answer verification.
//
// The client performs exactly one HTTP request per call; retry and timeout
// policy belongs to the deadline supervisor at the call site. Failures are
// tagged with the services sentinels so the supervisor can classify them.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an interpreter client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	return client
}

// Mode selects the extraction instruction set sent with an answer request.
type Mode string

const (
	ModeSemantic   Mode = "semantic"
	ModeAggressive Mode = "aggressive"
	ModeMinimal    Mode = "minimal"
)

// AnswerRequest asks the interpreter for the final answer in one segment.
type AnswerRequest struct {
	Mode           Mode
	QuestionNumber string
	SegmentText    string
}

// AnswerResult is the interpreter's reading of a segment's final answer.
// An empty Answer means the interpreter found nothing it would commit to.
type AnswerResult struct {
	Answer     string
	Confidence float64
	Raw        string
}

// VerificationRequest asks the interpreter to confirm or correct an answer.
type VerificationRequest struct {
	QuestionNumber string
	SegmentText    string
	Extracted      string
	Expected       string
}

// VerificationOutcome is the interpreter's verdict on one extracted answer.
type VerificationOutcome struct {
	FinalAnswer     string
	MatchConfidence float64
	Corrected       bool
	Substitutions   []string
	Raw             string
}

// CompleteJSON issues a JSON-only chat completion request with the supplied
// prompts and returns the raw JSON payload produced by the model.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" {
		return "", services.Wrap(services.ErrValidation, "interpreter", "complete", "system prompt required", nil)
	}
	if userPrompt == "" {
		return "", services.Wrap(services.ErrValidation, "interpreter", "complete", "user prompt required", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "interpreter", "complete", "api key required", nil)
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	return c.sendChatRequest(ctx, payload)
}

// Reinterpret asks the interpreter for a cleaned reading of a low-confidence
// raw transcript.
func (c *Client) Reinterpret(ctx context.Context, rawText string) (string, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return "", services.Wrap(services.ErrValidation, "interpreter", "reinterpret", "raw text required", nil)
	}
	content, err := c.CompleteJSON(ctx, ReinterpretPrompt, rawText)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Text string `json:"text"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "interpreter", "reinterpret", "parse payload", err)
	}
	cleaned := strings.TrimSpace(parsed.Text)
	if cleaned == "" {
		return "", services.Wrap(services.ErrExternalTool, "interpreter", "reinterpret", "empty reading", nil)
	}
	return cleaned, nil
}

// ExtractAnswer asks the interpreter for the final answer in one segment
// using the instruction set selected by req.Mode.
func (c *Client) ExtractAnswer(ctx context.Context, req AnswerRequest) (AnswerResult, error) {
	var empty AnswerResult
	if strings.TrimSpace(req.SegmentText) == "" {
		return empty, services.Wrap(services.ErrValidation, "interpreter", "extract", "segment text required", nil)
	}
	system, err := extractionPrompt(req.Mode)
	if err != nil {
		return empty, err
	}

	user := fmt.Sprintf("Question %s:\n%s", strings.TrimSpace(req.QuestionNumber), req.SegmentText)
	content, err := c.CompleteJSON(ctx, system, user)
	if err != nil {
		return empty, err
	}

	var parsed struct {
		Answer     string  `json:"answer"`
		Confidence float64 `json:"confidence"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, "interpreter", "extract", "parse payload", err)
	}
	return AnswerResult{
		Answer:     strings.TrimSpace(parsed.Answer),
		Confidence: clampUnit(parsed.Confidence),
		Raw:        content,
	}, nil
}

// VerifyAnswer asks the interpreter to confirm an extracted answer, correct
// likely transcription substitutions, and score it against the expected
// answer when one was supplied.
func (c *Client) VerifyAnswer(ctx context.Context, req VerificationRequest) (VerificationOutcome, error) {
	var empty VerificationOutcome
	if strings.TrimSpace(req.Extracted) == "" {
		return empty, services.Wrap(services.ErrValidation, "interpreter", "verify", "extracted answer required", nil)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Question %s:\n%s\n\nExtracted answer (may contain transcription errors): %q\n",
		strings.TrimSpace(req.QuestionNumber), strings.TrimSpace(req.SegmentText), req.Extracted)
	if expected := strings.TrimSpace(req.Expected); expected != "" {
		fmt.Fprintf(&user, "\nExpected answer (for reference): %s\n", expected)
	}

	content, err := c.CompleteJSON(ctx, VerificationPrompt, user.String())
	if err != nil {
		return empty, err
	}

	var parsed struct {
		FinalAnswer     string   `json:"final_answer"`
		MatchConfidence float64  `json:"match_confidence"`
		Corrected       bool     `json:"corrected"`
		Substitutions   []string `json:"substitutions"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, "interpreter", "verify", "parse payload", err)
	}

	final := strings.TrimSpace(parsed.FinalAnswer)
	if final == "" {
		final = req.Extracted
		parsed.Corrected = false
	}
	return VerificationOutcome{
		FinalAnswer:     final,
		MatchConfidence: clampUnit(parsed.MatchConfidence),
		Corrected:       parsed.Corrected && final != req.Extracted,
		Substitutions:   parsed.Substitutions,
		Raw:             content,
	}, nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx,
		"You must respond with JSON only.",
		`Respond with {"ok":true}`,
	)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return services.Wrap(services.ErrExternalTool, "interpreter", "health", "parse payload", err)
	}
	if !parsed.OK {
		return services.Wrap(services.ErrExternalTool, "interpreter", "health", "unexpected response", nil)
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) sendChatRequest(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "interpreter", "request", "encode body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "interpreter", "request", "new request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "interpreter", "request", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", classifyStatusError(resp.StatusCode, body)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "interpreter", "request", "decode response", err)
	}
	if completion.Error != nil {
		return "", services.Wrap(services.ErrExternalTool, "interpreter", "request",
			"api error: "+strings.TrimSpace(completion.Error.Message), nil)
	}

	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
		if content := strings.TrimSpace(choice.Text); content != "" {
			return content, nil
		}
	}
	return "", services.Wrap(services.ErrExternalTool, "interpreter", "request",
		"empty content (snippet: "+summarizePayloadSnippet(string(body))+")", nil)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "interpreter", "request", "http call", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "interpreter", "request", "http call", err)
	}
	return services.Wrap(services.ErrTransient, "interpreter", "request", "http call", err)
}

func classifyStatusError(status int, body []byte) error {
	detail := fmt.Sprintf("http %d: %s", status, summarizePayloadSnippet(string(body)))
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "interpreter", "request", detail, nil)
	case status == http.StatusRequestTimeout:
		return services.Wrap(services.ErrTimeout, "interpreter", "request", detail, nil)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "interpreter", "request", detail, nil)
	default:
		return services.Wrap(services.ErrExternalTool, "interpreter", "request", detail, nil)
	}
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// Package remoteocr transcribes document images through a hosted vision OCR
// endpoint. It is the backend of choice when no local Tesseract installation
// exists or when handwriting defeats it.
package remoteocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"scrawl/internal/recognition"
	"scrawl/internal/services"
)

// BackendName identifies this backend in logs and diagnostics.
const BackendName = "remote-ocr"

const defaultTimeout = 60 * time.Second

// Config holds the endpoint settings for the hosted OCR service.
type Config struct {
	URL            string
	APIKey         string
	TimeoutSeconds int
}

// Backend implements recognition.Backend against a hosted OCR endpoint.
type Backend struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the backend.
type Option func(*Backend)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Backend) {
		if client != nil {
			b.httpClient = client
		}
	}
}

// New constructs a remote OCR backend.
func New(cfg Config, opts ...Option) *Backend {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	backend := &Backend{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(backend)
	}
	return backend
}

func (b *Backend) Name() string { return BackendName }

type ocrRequest struct {
	ImageBase64 string `json:"image_base64"`
	Variant     string `json:"variant,omitempty"`
}

type ocrResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Transcribe posts the image to the hosted endpoint and returns its reading.
func (b *Backend) Transcribe(ctx context.Context, image []byte, variant string) (recognition.Candidate, error) {
	var empty recognition.Candidate
	if b.cfg.URL == "" {
		return empty, services.Wrap(services.ErrConfiguration, BackendName, "transcribe", "url required", nil)
	}

	payload, err := json.Marshal(ocrRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Variant:     variant,
	})
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, BackendName, "transcribe", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, BackendName, "transcribe", "new request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return empty, services.Wrap(services.ErrTimeout, BackendName, "transcribe", "http call", err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return empty, services.Wrap(services.ErrTimeout, BackendName, "transcribe", "http call", err)
		}
		return empty, services.Wrap(services.ErrTransient, BackendName, "transcribe", "http call", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, BackendName, "transcribe", "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return empty, services.Wrap(services.ErrConfiguration, BackendName, "transcribe", "http "+resp.Status, nil)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return empty, services.Wrap(services.ErrTransient, BackendName, "transcribe", "http "+resp.Status, nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return empty, services.Wrap(services.ErrExternalTool, BackendName, "transcribe", "http "+resp.Status, nil)
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, BackendName, "transcribe", "decode response", err)
	}
	if parsed.Error != "" {
		return empty, services.Wrap(services.ErrExternalTool, BackendName, "transcribe", parsed.Error, nil)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return recognition.Candidate{
		Text:       strings.TrimSpace(parsed.Text),
		Confidence: confidence,
	}, nil
}

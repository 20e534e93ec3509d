package remoteocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"scrawl/internal/services"
)

func TestTranscribeDecodesReading(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ocrRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil || string(decoded) != "img-bytes" {
			t.Errorf("image payload = %q, err %v", decoded, err)
		}
		if req.Variant != "otsu" {
			t.Errorf("variant = %q, want otsu", req.Variant)
		}
		_ = json.NewEncoder(w).Encode(ocrResponse{Text: " 3. x = 7 \n", Confidence: 0.87})
	}))
	defer server.Close()

	backend := New(Config{URL: server.URL, APIKey: "key"})
	candidate, err := backend.Transcribe(context.Background(), []byte("img-bytes"), "otsu")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if candidate.Text != "3. x = 7" {
		t.Fatalf("text = %q", candidate.Text)
	}
	if candidate.Confidence != 0.87 {
		t.Fatalf("confidence = %v", candidate.Confidence)
	}
}

func TestTranscribeClassifiesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(Config{URL: server.URL}).Transcribe(context.Background(), []byte("img"), "adaptive")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("error = %v, want transient", err)
	}
}

func TestTranscribeSurfacesServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ocrResponse{Error: "unreadable image"})
	}))
	defer server.Close()

	_, err := New(Config{URL: server.URL}).Transcribe(context.Background(), []byte("img"), "adaptive")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error = %v, want external tool", err)
	}
}

func TestTranscribeRequiresURL(t *testing.T) {
	_, err := New(Config{}).Transcribe(context.Background(), []byte("img"), "adaptive")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration", err)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scrawl/internal/config"
	"scrawl/internal/testsupport"
)

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args []string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestConfig persists cfg as TOML and returns its path.
func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// newInterpreterStub serves canned chat completions whose JSON content is
// chosen by reply.
func newInterpreterStub(t *testing.T, reply func(systemPrompt string) string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		system := ""
		if len(req.Messages) > 0 {
			system = req.Messages[0].Content
		}
		payload := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": reply(system)}},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

// newCLIConfig builds a text-only test config backed by the stub server.
func newCLIConfig(t *testing.T, interpreterURL string) *config.Config {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithInterpreterURL(interpreterURL))
	return cfg
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output missing %q:\n%s", needle, haystack)
	}
}

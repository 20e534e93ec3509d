package main

import (
	"strings"
	"testing"
)

func TestExtractTextDocument(t *testing.T) {
	server := newInterpreterStub(t, func(system string) string {
		switch {
		case strings.Contains(system, "verify answers"):
			return `{"final_answer":"x = 7","match_confidence":0.9,"corrected":false}`
		default:
			return `{"answer":"x = 7","confidence":0.9}`
		}
	})
	defer server.Close()

	cfg := newCLIConfig(t, server.URL)
	cfgPath := writeTestConfig(t, cfg)

	stdout, _, err := runCLI(t, []string{
		"--config", cfgPath,
		"extract", "--text", "1. 2x = 14 therefore the value is x = 7", "--no-save",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, stdout, "x = 7")
	requireContains(t, stdout, "semantic")
}

func TestExtractPersistsAndListsRuns(t *testing.T) {
	server := newInterpreterStub(t, func(system string) string {
		switch {
		case strings.Contains(system, "verify answers"):
			return `{"final_answer":"y = 2","match_confidence":0.8,"corrected":false}`
		default:
			return `{"answer":"y = 2","confidence":0.8}`
		}
	})
	defer server.Close()

	cfg := newCLIConfig(t, server.URL)
	cfgPath := writeTestConfig(t, cfg)

	if _, _, err := runCLI(t, []string{
		"--config", cfgPath,
		"extract", "--text", "2. y + 3 = 5 therefore the value is y = 2",
	}); err != nil {
		t.Fatalf("extract: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"--config", cfgPath, "runs", "list"})
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, stdout, "text")
}

func TestExtractRequiresInput(t *testing.T) {
	cfg := newCLIConfig(t, "http://127.0.0.1:0")
	cfgPath := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"--config", cfgPath, "extract"})
	if err == nil || !strings.Contains(err.Error(), "image path") {
		t.Fatalf("error = %v, want input requirement", err)
	}
}

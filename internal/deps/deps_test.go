package deps

import (
	"os"
	"path/filepath"
	"testing"

	"scrawl/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	})
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement available, got %+v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %+v", results[1])
	}
}

func TestDefaultFollowsConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tesseract.Enabled = false
	if reqs := Default(cfg); len(reqs) != 0 {
		t.Fatalf("requirements = %+v, want none with backends disabled", reqs)
	}

	cfg.Tesseract.Enabled = true
	reqs := Default(cfg)
	if len(reqs) != 1 || reqs[0].Command != "tesseract" {
		t.Fatalf("requirements = %+v", reqs)
	}
}

package testsupport

import (
	"path/filepath"
	"testing"

	"scrawl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Interpreter.APIKey = "test"
	cfgVal.Interpreter.Model = "test-model"
	cfgVal.Tesseract.Enabled = false
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithInterpreterURL points the interpreter at a test server.
func WithInterpreterURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Interpreter.BaseURL = url
	}
}

// WithRemoteOCR enables the hosted OCR backend against a test server.
func WithRemoteOCR(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RemoteOCR.Enabled = true
		b.cfg.RemoteOCR.URL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

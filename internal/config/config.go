package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvInterpreterAPIKey overrides the interpreter API key from the environment.
const EnvInterpreterAPIKey = "SCRAWL_INTERPRETER_API_KEY"

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Recognition tunes candidate production and transcript selection.
type Recognition struct {
	// ConfidenceThreshold below which the transcript is flagged low
	// confidence and re-read through the interpreter. Default: 0.6
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// MinTranscriptChars below which a selected transcript is treated as low
	// confidence regardless of its score. Default: 12
	MinTranscriptChars int `toml:"min_transcript_chars"`
	// Variants are the preprocessing variants requested from every backend.
	Variants []string `toml:"variants"`
	// BackendTimeoutSeconds bounds one transcription attempt. Default: 30
	BackendTimeoutSeconds int `toml:"backend_timeout_seconds"`
	// BackendAttempts bounds retries per backend/variant pair. Default: 2
	BackendAttempts int `toml:"backend_attempts"`
	// PhaseTimeoutSeconds bounds the whole recognition phase. Default: 90
	PhaseTimeoutSeconds int `toml:"phase_timeout_seconds"`
}

// Extraction tunes the tiered answer extractor.
type Extraction struct {
	SemanticTimeoutSeconds   int `toml:"semantic_timeout_seconds"`
	SemanticAttempts         int `toml:"semantic_attempts"`
	AggressiveTimeoutSeconds int `toml:"aggressive_timeout_seconds"`
	AggressiveAttempts       int `toml:"aggressive_attempts"`
	MinimalTimeoutSeconds    int `toml:"minimal_timeout_seconds"`
	// MinimalCutoffChars is the non-whitespace character count below which a
	// segment skips straight to the minimal tier. Default: 10
	MinimalCutoffChars int `toml:"minimal_cutoff_chars"`
	// PhaseTimeoutSeconds bounds extraction plus verification. Default: 60
	PhaseTimeoutSeconds int `toml:"phase_timeout_seconds"`
}

// Verification tunes the answer verifier.
type Verification struct {
	// TimeoutSeconds bounds one per-question verification call. Default: 10
	TimeoutSeconds int `toml:"timeout_seconds"`
	Attempts       int `toml:"attempts"`
}

// Workers caps concurrent external calls per document.
type Workers struct {
	// ExternalCallLimit is the global concurrency ceiling shared by the
	// recognition fan-out, the extractor, and the verifier batch. Default: 5
	ExternalCallLimit int `toml:"external_call_limit"`
}

// Interpreter contains connection settings for the external interpreter
// service (an OpenAI-compatible chat completion endpoint).
type Interpreter struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tesseract contains settings for the local Tesseract transcription backend.
type Tesseract struct {
	Enabled   bool     `toml:"enabled"`
	Languages []string `toml:"languages"`
}

// RemoteOCR contains settings for an HTTP transcription backend.
type RemoteOCR struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scrawl.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Recognition: backend fan-out, variants, and transcript selection
//   - Extraction: per-tier timeouts and the sparse-segment cutoff
//   - Verification: per-question verification budget
//   - Workers: global external-call concurrency ceiling
//   - Interpreter: external interpreter connection settings
//   - Tesseract / RemoteOCR: transcription backends
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Recognition  Recognition  `toml:"recognition"`
	Extraction   Extraction   `toml:"extraction"`
	Verification Verification `toml:"verification"`
	Workers      Workers      `toml:"workers"`
	Interpreter  Interpreter  `toml:"interpreter"`
	Tesseract    Tesseract    `toml:"tesseract"`
	RemoteOCR    RemoteOCR    `toml:"remote_ocr"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scrawl/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("scrawl.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories if absent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	return filepath.Abs(trimmed)
}

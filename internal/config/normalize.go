package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecognition()
	c.normalizeExtraction()
	c.normalizeVerification()
	c.normalizeWorkers()
	c.normalizeInterpreter()
	c.normalizeBackends()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(firstNonEmpty(c.Paths.DataDir, defaultDataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(firstNonEmpty(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeRecognition() {
	if c.Recognition.ConfidenceThreshold <= 0 {
		c.Recognition.ConfidenceThreshold = defaultConfidenceThreshold
	}
	if c.Recognition.MinTranscriptChars <= 0 {
		c.Recognition.MinTranscriptChars = defaultMinTranscriptChars
	}
	if c.Recognition.BackendTimeoutSeconds <= 0 {
		c.Recognition.BackendTimeoutSeconds = defaultBackendTimeout
	}
	if c.Recognition.BackendAttempts <= 0 {
		c.Recognition.BackendAttempts = defaultBackendAttempts
	}
	if c.Recognition.PhaseTimeoutSeconds <= 0 {
		c.Recognition.PhaseTimeoutSeconds = defaultRecognitionPhase
	}
	variants := make([]string, 0, len(c.Recognition.Variants))
	seen := map[string]struct{}{}
	for _, variant := range c.Recognition.Variants {
		trimmed := strings.ToLower(strings.TrimSpace(variant))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		variants = append(variants, trimmed)
	}
	if len(variants) == 0 {
		variants = defaultVariants()
	}
	c.Recognition.Variants = variants
}

func (c *Config) normalizeExtraction() {
	if c.Extraction.SemanticTimeoutSeconds <= 0 {
		c.Extraction.SemanticTimeoutSeconds = defaultSemanticTimeout
	}
	if c.Extraction.SemanticAttempts <= 0 {
		c.Extraction.SemanticAttempts = defaultSemanticAttempts
	}
	if c.Extraction.AggressiveTimeoutSeconds <= 0 {
		c.Extraction.AggressiveTimeoutSeconds = defaultAggressiveTimeout
	}
	if c.Extraction.AggressiveAttempts <= 0 {
		c.Extraction.AggressiveAttempts = defaultAggressiveTries
	}
	if c.Extraction.MinimalTimeoutSeconds <= 0 {
		c.Extraction.MinimalTimeoutSeconds = defaultMinimalTimeout
	}
	if c.Extraction.MinimalCutoffChars <= 0 {
		c.Extraction.MinimalCutoffChars = defaultMinimalCutoff
	}
	if c.Extraction.PhaseTimeoutSeconds <= 0 {
		c.Extraction.PhaseTimeoutSeconds = defaultExtractionPhase
	}
}

func (c *Config) normalizeVerification() {
	if c.Verification.TimeoutSeconds <= 0 {
		c.Verification.TimeoutSeconds = defaultVerifyTimeout
	}
	if c.Verification.Attempts <= 0 {
		c.Verification.Attempts = defaultVerifyAttempts
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.ExternalCallLimit <= 0 {
		c.Workers.ExternalCallLimit = defaultExternalCallLimit
	}
}

func (c *Config) normalizeInterpreter() {
	if env := strings.TrimSpace(os.Getenv(EnvInterpreterAPIKey)); env != "" {
		c.Interpreter.APIKey = env
	}
	c.Interpreter.APIKey = strings.TrimSpace(c.Interpreter.APIKey)
	c.Interpreter.BaseURL = firstNonEmpty(strings.TrimSpace(c.Interpreter.BaseURL), defaultInterpreterBaseURL)
	c.Interpreter.Model = firstNonEmpty(strings.TrimSpace(c.Interpreter.Model), defaultInterpreterModel)
	if c.Interpreter.TimeoutSeconds <= 0 {
		c.Interpreter.TimeoutSeconds = defaultInterpreterTimeout
	}
}

func (c *Config) normalizeBackends() {
	if len(c.Tesseract.Languages) == 0 {
		c.Tesseract.Languages = []string{"eng"}
	}
	c.RemoteOCR.URL = strings.TrimSpace(c.RemoteOCR.URL)
	if c.RemoteOCR.TimeoutSeconds <= 0 {
		c.RemoteOCR.TimeoutSeconds = defaultRemoteOCRTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(firstNonEmpty(strings.TrimSpace(c.Logging.Format), defaultLogFormat))
	c.Logging.Level = strings.ToLower(firstNonEmpty(strings.TrimSpace(c.Logging.Level), defaultLogLevel))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

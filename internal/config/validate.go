package config

import (
	"fmt"
	"strings"

	"scrawl/internal/services"
)

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateInterpreter(); err != nil {
		return err
	}
	if err := c.validateBackends(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRecognition() error {
	if c.Recognition.ConfidenceThreshold <= 0 || c.Recognition.ConfidenceThreshold >= 1 {
		return services.Wrap(services.ErrConfiguration, "config", "recognition",
			fmt.Sprintf("confidence_threshold must be in (0, 1), got %v", c.Recognition.ConfidenceThreshold), nil)
	}
	return nil
}

func (c *Config) validateInterpreter() error {
	if !strings.HasPrefix(c.Interpreter.BaseURL, "http://") && !strings.HasPrefix(c.Interpreter.BaseURL, "https://") {
		return services.Wrap(services.ErrConfiguration, "config", "interpreter",
			fmt.Sprintf("base_url must be an http(s) URL, got %q", c.Interpreter.BaseURL), nil)
	}
	return nil
}

// Backends may all be disabled; raw-text ingestion needs none of them and
// image runs fail with a clear error at pipeline construction instead.
func (c *Config) validateBackends() error {
	if c.RemoteOCR.Enabled && c.RemoteOCR.URL == "" {
		return services.Wrap(services.ErrConfiguration, "config", "remote_ocr",
			"url is required when the remote backend is enabled", nil)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "logging",
			fmt.Sprintf("format must be console or json, got %q", c.Logging.Format), nil)
	}
	return nil
}

package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"scrawl/internal/config"
	"scrawl/internal/deadline"
	"scrawl/internal/extract"
	"scrawl/internal/gate"
	"scrawl/internal/logging"
	"scrawl/internal/pipeline"
	"scrawl/internal/recognition"
	"scrawl/internal/services/interpreter"
	"scrawl/internal/services/remoteocr"
	"scrawl/internal/services/tesseract"
	"scrawl/internal/verify"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the CLI logger. The configured format wins; without one,
// interactive terminals get the console handler and everything else JSON.
func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "console"
		}
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      format,
		OutputPaths: []string{"stderr"},
	})
}

// newInterpreter returns the interpreter client, or nil when no API key is
// configured. The pipeline degrades to pattern-only extraction without one.
func (c *commandContext) newInterpreter() (*interpreter.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Interpreter.APIKey) == "" {
		return nil, nil
	}
	return interpreter.NewClient(interpreter.Config{
		APIKey:         cfg.Interpreter.APIKey,
		BaseURL:        cfg.Interpreter.BaseURL,
		Model:          cfg.Interpreter.Model,
		Referer:        cfg.Interpreter.Referer,
		Title:          cfg.Interpreter.Title,
		TimeoutSeconds: cfg.Interpreter.TimeoutSeconds,
	}), nil
}

func (c *commandContext) newBackends() ([]recognition.Backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	var backends []recognition.Backend
	if cfg.Tesseract.Enabled {
		backends = append(backends, tesseract.New(cfg.Tesseract.Languages))
	}
	if cfg.RemoteOCR.Enabled {
		backends = append(backends, remoteocr.New(remoteocr.Config{
			URL:            cfg.RemoteOCR.URL,
			APIKey:         cfg.RemoteOCR.APIKey,
			TimeoutSeconds: cfg.RemoteOCR.TimeoutSeconds,
		}))
	}
	return backends, nil
}

// buildPipeline assembles the full pipeline from configuration.
func (c *commandContext) buildPipeline(logger *slog.Logger) (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	interp, err := c.newInterpreter()
	if err != nil {
		return nil, err
	}
	backends, err := c.newBackends()
	if err != nil {
		return nil, err
	}

	shared := gate.New(cfg.Workers.ExternalCallLimit)

	var orchestrator *recognition.Orchestrator
	if len(backends) > 0 {
		supervisor := deadline.NewSupervisor(deadline.Policy{
			PerAttempt:  seconds(cfg.Recognition.BackendTimeoutSeconds),
			MaxAttempts: cfg.Recognition.BackendAttempts,
		}, deadline.WithLogger(logger))
		var reinterpreter recognition.Reinterpreter
		if interp != nil {
			reinterpreter = interp
		}
		orchestrator, err = recognition.NewOrchestrator(recognition.Options{
			Backends:            backends,
			Variants:            cfg.Recognition.Variants,
			Reinterpreter:       reinterpreter,
			Gate:                shared,
			Supervisor:          supervisor,
			ConfidenceThreshold: cfg.Recognition.ConfidenceThreshold,
			MinTranscriptChars:  cfg.Recognition.MinTranscriptChars,
			Logger:              logger,
		})
		if err != nil {
			return nil, err
		}
	}

	var extractorInterp extract.Interpreter
	var verifierInterp verify.Interpreter
	if interp != nil {
		extractorInterp = interp
		verifierInterp = interp
	}

	extractor, err := extract.New(extract.Options{
		Interpreter: extractorInterp,
		Supervisor: deadline.NewSupervisor(deadline.Policy{
			PerAttempt:  seconds(cfg.Extraction.SemanticTimeoutSeconds),
			MaxAttempts: cfg.Extraction.SemanticAttempts,
		}, deadline.WithLogger(logger)),
		AggressiveSupervisor: deadline.NewSupervisor(deadline.Policy{
			PerAttempt:  seconds(cfg.Extraction.AggressiveTimeoutSeconds),
			MaxAttempts: cfg.Extraction.AggressiveAttempts,
		}, deadline.WithLogger(logger)),
		MinimalSupervisor: deadline.NewSupervisor(deadline.Policy{
			PerAttempt:  seconds(cfg.Extraction.MinimalTimeoutSeconds),
			MaxAttempts: 1,
		}, deadline.WithLogger(logger)),
		MinimalCutoff: cfg.Extraction.MinimalCutoffChars,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	verifier, err := verify.New(verify.Options{
		Interpreter: verifierInterp,
		Gate:        shared,
		Supervisor: deadline.NewSupervisor(deadline.Policy{
			PerAttempt:  seconds(cfg.Verification.TimeoutSeconds),
			MaxAttempts: cfg.Verification.Attempts,
		}, deadline.WithLogger(logger)),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Options{
		Config:       cfg,
		Orchestrator: orchestrator,
		Extractor:    extractor,
		Verifier:     verifier,
		Gate:         shared,
		Logger:       logger,
	})
}

func seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

package config

const (
	defaultDataDir = "~/.local/share/scrawl"
	defaultLogDir  = "~/.local/share/scrawl/logs"

	defaultConfidenceThreshold = 0.6
	defaultMinTranscriptChars  = 12
	defaultBackendTimeout      = 30
	defaultBackendAttempts     = 2
	defaultRecognitionPhase    = 90

	defaultSemanticTimeout   = 45
	defaultSemanticAttempts  = 2
	defaultAggressiveTimeout = 45
	defaultAggressiveTries   = 1
	defaultMinimalTimeout    = 15
	defaultMinimalCutoff     = 10
	defaultExtractionPhase   = 60

	defaultVerifyTimeout  = 10
	defaultVerifyAttempts = 1

	defaultExternalCallLimit = 5

	defaultInterpreterBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultInterpreterModel   = "meta-llama/llama-3.3-70b-instruct"
	defaultInterpreterTimeout = 45

	defaultRemoteOCRTimeout = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

func defaultVariants() []string {
	return []string{"adaptive", "otsu", "gaussian", "morphology"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Recognition: Recognition{
			ConfidenceThreshold:   defaultConfidenceThreshold,
			MinTranscriptChars:    defaultMinTranscriptChars,
			Variants:              defaultVariants(),
			BackendTimeoutSeconds: defaultBackendTimeout,
			BackendAttempts:       defaultBackendAttempts,
			PhaseTimeoutSeconds:   defaultRecognitionPhase,
		},
		Extraction: Extraction{
			SemanticTimeoutSeconds:   defaultSemanticTimeout,
			SemanticAttempts:         defaultSemanticAttempts,
			AggressiveTimeoutSeconds: defaultAggressiveTimeout,
			AggressiveAttempts:       defaultAggressiveTries,
			MinimalTimeoutSeconds:    defaultMinimalTimeout,
			MinimalCutoffChars:       defaultMinimalCutoff,
			PhaseTimeoutSeconds:      defaultExtractionPhase,
		},
		Verification: Verification{
			TimeoutSeconds: defaultVerifyTimeout,
			Attempts:       defaultVerifyAttempts,
		},
		Workers: Workers{
			ExternalCallLimit: defaultExternalCallLimit,
		},
		Interpreter: Interpreter{
			BaseURL:        defaultInterpreterBaseURL,
			Model:          defaultInterpreterModel,
			TimeoutSeconds: defaultInterpreterTimeout,
		},
		Tesseract: Tesseract{
			Enabled:   true,
			Languages: []string{"eng"},
		},
		RemoteOCR: RemoteOCR{
			TimeoutSeconds: defaultRemoteOCRTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

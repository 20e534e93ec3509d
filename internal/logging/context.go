package logging

import (
	"context"
	"log/slog"

	"scrawl/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType labels the kind of event a record describes
	// (e.g. "stage_start", "candidate_selected", "tier_result").
	FieldEventType = "event_type"
	// FieldRunID is the structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldQuestion is the structured logging key for question numbers.
	FieldQuestion = "question"
	// FieldBackend is the structured logging key for transcription backend names.
	FieldBackend = "backend"
	// FieldVariant is the structured logging key for preprocessing variants.
	FieldVariant = "variant"
	// FieldTier is the structured logging key for extraction tier names.
	FieldTier = "tier"
)

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return services.WithStage(ctx, stage)
}

// WithContext returns a logger enriched with identifiers carried by the
// context (run id, stage, question number). A nil logger yields a no-op.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		logger = logger.With(String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		logger = logger.With(String(FieldStage, stage))
	}
	if question, ok := services.QuestionFromContext(ctx); ok {
		logger = logger.With(String(FieldQuestion, question))
	}
	return logger
}

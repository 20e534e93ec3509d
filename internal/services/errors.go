package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecognition marks a document whose transcription failed on every
	// backend. It is the only failure that aborts a whole pipeline run.
	ErrRecognition = errors.New("recognition failure")
	// ErrTimeout marks an external call that exhausted its deadline budget.
	ErrTimeout = errors.New("timeout")
	// ErrExternalTool marks an external service returning an error response.
	ErrExternalTool = errors.New("external service error")
	// ErrTierExhausted marks a segment for which every extraction tier failed.
	ErrTierExhausted = errors.New("extraction tiers exhausted")
	// ErrVerification marks an answer whose verification was inconclusive.
	ErrVerification = errors.New("verification inconclusive")
	// ErrValidation marks malformed caller input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable runtime configuration. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks a failure worth retrying.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error is worth another attempt. Timeouts and
// transient external failures retry; validation and configuration problems
// never do.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return false
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrTransient), errors.Is(err, ErrExternalTool):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

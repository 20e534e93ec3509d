// Package services defines the shared error taxonomy and context plumbing
// used by every component that talks to an external collaborator.
//
// # Error Classification
//
// Components wrap failures with one of the exported sentinel errors so that
// callers can classify outcomes with errors.Is:
//
//   - ErrRecognition: fatal for the document, no downstream stage runs
//   - ErrTimeout: per-call deadline exhausted, downgraded to a degraded result
//   - ErrExternalTool: an external service returned an error response
//   - ErrTierExhausted: every extraction tier failed for one segment
//   - ErrVerification: verification inconclusive, answer passed through
//   - ErrValidation / ErrConfiguration: caller or config problems, never retried
//   - ErrTransient: retryable failure without a more specific class
//
// Only ErrRecognition aborts a run; everything else is contained at the
// narrowest scope and recorded in the run diagnostics.
package services

// Package deadline implements the timeout/retry supervision wrapped around
// every external call in the pipeline.
//
// A Supervisor runs an operation under a per-attempt timeout and retries
// retryable failures with exponential backoff, up to a bounded attempt count.
// Terminal failures are classified with the services sentinels: ErrTimeout
// when the budget ran out, ErrExternalTool otherwise. Cancellation of the
// parent context stops retries immediately, so a supervised call always
// returns within PerAttempt x MaxAttempts plus backoff.
//
// SubBudget derives stage deadlines from the remaining run budget so that a
// slow recognition phase cannot starve extraction and verification.
package deadline

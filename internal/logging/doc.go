// Package logging provides the slog logger factory and the structured field
// conventions shared across the pipeline. Console and JSON formats are
// supported; multiple output paths (stdout, stderr, files) are merged into a
// single writer.
package logging

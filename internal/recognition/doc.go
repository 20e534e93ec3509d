// Package recognition selects the best transcript of a handwritten document
// image. Every configured backend is run against every preprocessing variant
// under a shared concurrency gate and the highest-confidence candidate wins,
// with longer text breaking ties. Winners that score below the confidence
// threshold or fall short of the minimum transcript length are flagged low
// confidence and optionally re-read by the interpreter before the pipeline
// continues.
package recognition

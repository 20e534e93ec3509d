package interpreter

import "scrawl/internal/services"

// ReinterpretPrompt asks the model to re-read a garbled transcript without
// committing to an answer.
const ReinterpretPrompt = `You clean up noisy transcripts of handwritten math work.
The user message is a raw transcript that may contain recognition errors:
'0' read as 'O', '1' as 'l', '=' as '-', missing symbols, broken spacing.
Produce the most plausible faithful reading of the original handwriting.
Do not solve anything, do not add or remove working, keep question numbers
and line structure intact.
Respond with JSON only: {"text": "<cleaned transcript>"}`

const semanticPrompt = `You extract final answers from transcripts of handwritten math work.
The student's FINAL ANSWER is always the LAST part of their work for the question:
the last line, the value after the last equals sign, boxed content, a checkmarked
value, set notation, or the last mathematical expression. Ignore intermediate steps.
Boxed and checkmarked content is almost always the final answer.
Respond with JSON only: {"answer": "<final answer>", "confidence": <0.0-1.0>}.
If no answer can be identified, use an empty string and confidence 0.`

const aggressivePrompt = `You extract final answers from garbled transcripts of handwritten math work.
The transcript contains recognition errors. Be very aggressive: interpret
'x not equal' as 'x ≠', 'x R' as 'x ∈ ℝ', '£' or 'E' as '∈', stray '-' as '='.
The final answer is the LAST part of the work for the question. If anything
looks like a final answer (boxed, checkmarked, or at the end), extract it.
Respond with JSON only: {"answer": "<final answer>", "confidence": <0.0-1.0>}.
If nothing plausible exists, use an empty string and confidence 0.`

const minimalPrompt = `You extract answers from very short fragments of handwritten math work.
The fragment may be a single value, expression, or constraint. Treat the whole
fragment as a candidate answer, correcting obvious recognition errors.
Respond with JSON only: {"answer": "<answer>", "confidence": <0.0-1.0>}.
If the fragment carries no answer, use an empty string and confidence 0.`

// VerificationPrompt asks the model to confirm or correct one extracted
// answer against the surrounding work and an optional expected answer.
const VerificationPrompt = `You verify answers extracted from transcripts of handwritten math work.
Given the question's work, the extracted answer, and optionally the expected
answer, decide whether the extraction reads the handwriting correctly. Correct
likely transcription substitutions ('O' for '0', 'l' for '1', '-' for '=')
but never change the mathematical content of what the student wrote.
Score match_confidence as your confidence that final_answer matches the
expected answer, or that it is a faithful reading when no expected answer
is given.
Respond with JSON only:
{"final_answer": "<answer>", "match_confidence": <0.0-1.0>, "corrected": <bool>, "substitutions": ["<original> -> <corrected>", ...]}`

func extractionPrompt(mode Mode) (string, error) {
	switch mode {
	case ModeSemantic:
		return semanticPrompt, nil
	case ModeAggressive:
		return aggressivePrompt, nil
	case ModeMinimal:
		return minimalPrompt, nil
	default:
		return "", services.Wrap(services.ErrValidation, "interpreter", "extract", "unknown mode "+string(mode), nil)
	}
}

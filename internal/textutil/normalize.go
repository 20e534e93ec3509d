package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTranscript canonicalizes raw transcription output: NFC
// normalization, unified line endings, and trimmed trailing whitespace per
// line. Interior blank lines are preserved because question boundaries often
// ride on them.
func NormalizeTranscript(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CollapseWhitespace folds all whitespace runs into single spaces.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NonWhitespaceLen counts the runes in text that are not whitespace. Used for
// informativeness tie-breaks and the sparse-segment cutoff.
func NonWhitespaceLen(text string) int {
	count := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

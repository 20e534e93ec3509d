package extract

import (
	"regexp"
	"strings"

	"scrawl/internal/textutil"
)

// ClauseKind classifies a deterministic pattern match.
type ClauseKind int

const (
	// ClauseSetBuilder is a set-builder expression like {x ∈ ℝ | x ≠ -1}.
	ClauseSetBuilder ClauseKind = iota
	// ClauseExclusionList is one or more comma-separated exclusion
	// constraints like x ≠ -1, x ≠ 2 + 4k, k ∈ ℤ.
	ClauseExclusionList
	// ClauseTrailingValue is the text after the last standalone equals sign.
	ClauseTrailingValue
	// ClauseMarked is content adjacent to a checkmark or inside a box.
	ClauseMarked
)

// Clause is one candidate answer found by the pattern scan.
type Clause struct {
	Kind ClauseKind
	Text string
}

var (
	// € appears when a handwritten ∈ is misread by a backend.
	setBuilderPattern = regexp.MustCompile(`\{[^{}\n]*[∈€][^{}\n]*\|[^{}\n]*\}`)

	exclusionPattern = regexp.MustCompile(
		`[A-Za-z][A-Za-z0-9]*\s*(?:≠|!=)\s*[^,\n{}]+` +
			`(?:,\s*(?:[A-Za-z][A-Za-z0-9]*\s*(?:≠|!=)\s*[^,\n{}]+|[A-Za-z][A-Za-z0-9]*\s*[∈€]\s*[^,\n{}]+))*`)

	checkedClausePattern = regexp.MustCompile(`([^\n✓✔✅√]+)[ \t]*[✓✔✅√]`)

	boxedClausePattern = regexp.MustCompile(`\[([^\[\]\n]+)\]`)
)

// ScanClauses runs the deterministic pattern scan over segment text and
// returns every candidate clause in priority order: set-builder first, then
// exclusion lists, then the trailing value after the last equals sign, then
// checkmarked or boxed content. For each kind the last occurrence in the
// text wins. The scan is pure: same text in, same clauses out, no external
// calls.
func ScanClauses(text string) []Clause {
	var clauses []Clause
	if m := lastMatch(setBuilderPattern, text); m != "" {
		clauses = append(clauses, Clause{Kind: ClauseSetBuilder, Text: strings.TrimSpace(m)})
	}
	if m := lastExclusionList(text); m != "" {
		clauses = append(clauses, Clause{Kind: ClauseExclusionList, Text: m})
	}
	if m := trailingEqualsValue(text); m != "" {
		clauses = append(clauses, Clause{Kind: ClauseTrailingValue, Text: m})
	}
	if m := lastMarkedClause(text); m != "" {
		clauses = append(clauses, Clause{Kind: ClauseMarked, Text: m})
	}
	return clauses
}

// MatchPattern returns the highest-priority clause for the text, or ok=false
// when the scan finds nothing.
func MatchPattern(text string) (Clause, bool) {
	clauses := ScanClauses(text)
	if len(clauses) == 0 {
		return Clause{}, false
	}
	return clauses[0], true
}

func lastMatch(pattern *regexp.Regexp, text string) string {
	matches := pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// lastExclusionList finds the last exclusion constraint list outside of any
// set-builder braces, so "{x ∈ ℝ | x ≠ -1}" does not also yield "x ≠ -1".
func lastExclusionList(text string) string {
	stripped := setBuilderPattern.ReplaceAllString(text, "")
	m := lastMatch(exclusionPattern, stripped)
	return strings.TrimSpace(textutil.StripMarkers(m))
}

// trailingEqualsValue returns the text after the last equals sign on its
// line. Arrows (=>) and comparison operators (==, !=, <=, >=) do not count
// as equals signs.
func trailingEqualsValue(text string) string {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] != '=' {
			continue
		}
		if i+1 < len(text) && (text[i+1] == '>' || text[i+1] == '=') {
			continue
		}
		if i > 0 && strings.ContainsRune("=<>!≠", rune(text[i-1])) {
			continue
		}
		rest := text[i+1:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		value := strings.TrimSpace(textutil.StripMarkers(rest))
		if value != "" {
			return value
		}
	}
	return ""
}

func lastMarkedClause(text string) string {
	if m := lastMatch(checkedClausePattern, text); m != "" {
		if clause := strings.TrimSpace(textutil.StripMarkers(m)); clause != "" {
			return clause
		}
	}
	if matches := boxedClausePattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		return strings.TrimSpace(matches[len(matches)-1][1])
	}
	return ""
}

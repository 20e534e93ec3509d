// Package segment splits a transcript into per-question blocks of work.
// Splitting is purely textual. It never calls out, never fails, and always
// yields the same segments for the same transcript.
package segment

import (
	"regexp"
	"strings"

	"scrawl/internal/textutil"
)

// Segment is the transcript text belonging to one question or subpart.
type Segment struct {
	QuestionNumber string
	RawText        string
	HasBoxMarker   bool
	HasCheckMarker bool
}

// A question marker is a line-leading number like "9", "9a", "Q9b" or
// "Question 9". A bare number must carry trailing punctuation so that
// coefficients like "2x" are never read as markers; a Q or Question prefix
// makes the punctuation optional.
var markerPattern = regexp.MustCompile(`(?m)^[ \t]*((?i:q(?:uestion)?)[ \t.]*)?([0-9]{1,3})([a-z])?([.):\]])?`)

// Split divides a transcript into question segments in first-appearance
// order. A transcript with no recognizable markers becomes a single segment
// numbered "1"; an empty transcript yields no segments.
func Split(transcript string) []Segment {
	transcript = textutil.NormalizeTranscript(transcript)
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	type marker struct {
		number    string
		start     int // offset of the marker line
		bodyStart int // offset just past the marker token
	}
	var markers []marker
	for _, m := range markerPattern.FindAllStringSubmatchIndex(transcript, -1) {
		prefix := submatch(transcript, m, 1)
		punct := submatch(transcript, m, 4)
		if prefix == "" && punct == "" {
			continue
		}
		number := submatch(transcript, m, 2) + submatch(transcript, m, 3)
		markers = append(markers, marker{number: number, start: m[0], bodyStart: m[1]})
	}

	if len(markers) == 0 {
		return []Segment{newSegment("1", transcript)}
	}

	segments := make([]Segment, 0, len(markers))
	// Leading text before the first marker belongs to nothing and is dropped.
	for i, mk := range markers {
		end := len(transcript)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		raw := strings.TrimSpace(transcript[mk.bodyStart:end])
		segments = append(segments, newSegment(mk.number, raw))
	}
	return segments
}

func newSegment(number, raw string) Segment {
	trailing := trailingRegion(raw)
	return Segment{
		QuestionNumber: number,
		RawText:        raw,
		HasBoxMarker:   textutil.ContainsBoxMarker(trailing),
		HasCheckMarker: textutil.ContainsCheckMarker(trailing),
	}
}

// trailingRegion returns the last two non-empty lines, where answer markers
// live when present.
func trailingRegion(raw string) string {
	lines := strings.Split(raw, "\n")
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < 2; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		kept = append([]string{lines[i]}, kept...)
	}
	return strings.Join(kept, "\n")
}

func submatch(s string, m []int, group int) string {
	lo, hi := m[2*group], m[2*group+1]
	if lo < 0 {
		return ""
	}
	return s[lo:hi]
}

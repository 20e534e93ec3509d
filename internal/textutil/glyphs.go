package textutil

import "strings"

// Check glyphs as they come back from transcription backends. √ is included
// because handwritten checkmarks are routinely transcribed as a radical sign.
var checkGlyphs = []rune{'✓', '✔', '✅', '√'}

// ContainsCheckMarker reports whether a checkmark glyph appears in text.
func ContainsCheckMarker(text string) bool {
	return strings.ContainsAny(text, string(checkGlyphs))
}

// ContainsBoxMarker reports whether text carries box artifacts: a bracket
// pair or any box-drawing rune. Handwritten answer boxes usually survive
// transcription as one of these.
func ContainsBoxMarker(text string) bool {
	if strings.Contains(text, "[") && strings.Contains(text, "]") {
		return true
	}
	for _, r := range text {
		if r >= 0x2500 && r <= 0x257F {
			return true
		}
	}
	return false
}

// StripMarkers removes check glyphs and box-drawing artifacts from a clause,
// leaving the answer text itself.
func StripMarkers(text string) string {
	var b strings.Builder
	for _, r := range text {
		if isCheckGlyph(r) || (r >= 0x2500 && r <= 0x257F) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func isCheckGlyph(r rune) bool {
	for _, g := range checkGlyphs {
		if r == g {
			return true
		}
	}
	return false
}

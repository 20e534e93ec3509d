package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON parses an interpreter payload into target, tolerating the
// code-fence wrappers and leading prose some models emit around JSON.
func DecodeJSON(content string, target any) error {
	sanitized := sanitizeJSONPayload(content)
	if sanitized == "" {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("parse payload (snippet: %s): %w", summarizePayloadSnippet(sanitized), err)
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	// Some models prepend prose before the object. Cut to the first brace.
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		objIdx := strings.Index(trimmed, "{")
		arrIdx := strings.Index(trimmed, "[")
		switch {
		case objIdx >= 0 && (arrIdx < 0 || objIdx < arrIdx):
			trimmed = trimmed[objIdx:]
		case arrIdx >= 0:
			trimmed = trimmed[arrIdx:]
		}
	}
	return strings.TrimSpace(trimmed)
}

func summarizePayloadSnippet(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	const limit = 160
	if len(collapsed) > limit {
		return collapsed[:limit] + "..."
	}
	if collapsed == "" {
		return "<empty>"
	}
	return collapsed
}

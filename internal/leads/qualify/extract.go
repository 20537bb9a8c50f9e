package qualify

import (
	"encoding/json"
	"strings"
)

// extractJSON parses model output that should be a JSON object. Models often
// wrap the object in prose or markdown fences, so a failed whole-text parse
// falls back to the substring between the first '{' and the last '}'.
func extractJSON(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return parsed, true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// rawPreview bounds model output quoted in error messages.
func rawPreview(text string) string {
	return truncateRunes(text, 200)
}

// truncateRunes bounds text to max runes so multi-byte characters in model
// output never get split.
func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max])
	}
	return text
}

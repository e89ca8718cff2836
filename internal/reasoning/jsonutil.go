package reasoning

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeBlockRe     = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	objectRe        = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// extractJSON pulls the first JSON object out of a model answer. Models wrap
// objects in code fences or prose and leave trailing commas.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	raw := ""
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		raw = m[1]
	} else if m := objectRe.FindString(s); m != "" {
		raw = m
	}
	return trailingCommaRe.ReplaceAllString(raw, "$1")
}

// decodeJSON decodes the object embedded in text into v.
func decodeJSON(text string, v any) error {
	raw := extractJSON(text)
	if raw == "" {
		return &MalformedError{Raw: text, Err: ErrEmptyResponse}
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &MalformedError{Raw: text, Err: err}
	}
	return nil
}

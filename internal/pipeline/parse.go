package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedJSONRe matches a markdown code fence, optionally tagged json, and
// captures its contents.
var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseValue recovers a JSON value from arbitrary model output. The model is
// expected to sometimes wrap JSON in prose or markdown, so recovery degrades
// gracefully: direct parse of the whole text, then the first fenced code
// block, then the first-{ to last-} span. Returns nil when nothing parses.
func ParseValue(text string) any {
	if v, ok := tryParse(text); ok {
		return v
	}

	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if v, ok := tryParse(m[1]); ok {
			return v
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if v, ok := tryParse(text[start : end+1]); ok {
			return v
		}
	}

	return nil
}

// ParseObject recovers a JSON object from arbitrary model output. It never
// fails: anything that is not recoverable as an object yields an empty map.
func ParseObject(text string) map[string]any {
	if m, ok := ParseValue(text).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func tryParse(text string) (any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	return v, true
}

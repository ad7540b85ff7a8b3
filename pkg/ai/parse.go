package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("```[a-zA-Z]*")

// ExtractFirstJSON returns the first JSON object found in model output.
//
// Code fences are removed first; then the whole text is tried as an object,
// and failing that every brace-balanced span is tried left to right.
func ExtractFirstJSON(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(codeFenceRe.ReplaceAllString(text, ""), "```", ""))

	if isJSONObject(cleaned) {
		return cleaned, true
	}

	depth := 0
	start := -1
	inString := false
	for i := 0; i < len(cleaned); i++ {
		c := cleaned[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			// quotes only matter inside a candidate span
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				// stray closing brace before any opening one
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := cleaned[start : i+1]
				if isJSONObject(candidate) {
					return candidate, true
				}
				start = -1
			}
		}
	}
	return "", false
}

func isJSONObject(s string) bool {
	var obj map[string]interface{}
	return json.Unmarshal([]byte(s), &obj) == nil
}

// decodeObject extracts and decodes the first JSON object of raw.
func decodeObject(raw string) (map[string]interface{}, bool) {
	text, ok := ExtractFirstJSON(raw)
	if !ok {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// truthy interprets a loosely typed JSON value as a boolean.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s == "true" || s == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

// stringField returns obj[key] when it is a string.
func stringField(obj map[string]interface{}, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

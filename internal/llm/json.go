package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls a single JSON object out of a model response that may be
// wrapped in prose or a markdown code fence. The response must contain
// exactly one object; bare JSON passes through unchanged.
func ExtractJSON(response string) (string, error) {
	trimmed := strings.TrimSpace(response)
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	jsonStr, rest, ok := extractBalancedObject(trimmed)
	if !ok || !json.Valid([]byte(jsonStr)) {
		return "", fmt.Errorf("no valid JSON object found in response")
	}
	if strings.IndexByte(rest, '{') != -1 {
		return "", fmt.Errorf("response contains more than one JSON object")
	}
	return jsonStr, nil
}

// extractBalancedObject finds the first balanced {...} structure, tracking
// string literals and escapes so braces inside strings don't count. It also
// returns the text after the object so callers can detect trailing objects.
func extractBalancedObject(s string) (obj, rest string, ok bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				return s[start : i+1], s[i+1:], true
			}
		}
	}

	return "", "", false
}

package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// CoerceJSON extracts a JSON object from model output that may be wrapped in
// prose or Markdown. Tries, in order: direct parse, code-fence contents, the
// first brace-balanced {...} substring. Returns nil when no object can be
// recovered.
func CoerceJSON(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if obj := tryParseObject(s); obj != nil {
		return obj
	}

	for _, m := range codeFenceRe.FindAllStringSubmatch(s, -1) {
		if obj := tryParseObject(m[1]); obj != nil {
			return obj
		}
	}

	if candidate := balancedBraceSubstring(s); candidate != "" {
		return tryParseObject(candidate)
	}
	return nil
}

func tryParseObject(s string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// balancedBraceSubstring scans for the first {...} span whose braces balance
// outside of quoted strings.
func balancedBraceSubstring(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
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
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// Package jsonx extracts JSON objects from free-form model output.
package jsonx

import "strings"

// FirstObject returns the first balanced top-level JSON object in text.
// Braces inside string literals (including escaped quotes) do not count toward
// nesting. Returns false when no balanced object is found.
func FirstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
			if depth < 0 {
				return "", false
			}
		}
	}

	return "", false
}

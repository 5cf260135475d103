package provider

import (
	"encoding/json"
	"errors"
	"strings"
)

// ExtractJSONObject pulls the outermost JSON object out of model text, tolerating
// markdown fences and surrounding prose.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return json.RawMessage(text), nil
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, errors.New("no JSON object in model output")
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return nil, errors.New("malformed JSON object in model output")
				}
				return json.RawMessage(candidate), nil
			}
		}
	}
	return nil, errors.New("unterminated JSON object in model output")
}

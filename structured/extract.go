package structured

import "strings"

// ExtractObject locates the first balanced `{...}` span in text and returns
// it. The scanner is string-literal aware: braces inside JSON strings and
// escaped quotes do not affect the depth count. If no opening brace exists,
// or no balanced span can be closed, a *ParseError is returned.
//
// This is a boundary finder, not a JSON parser. The extracted span still
// goes through strict parsing in Decode.
func ExtractObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", &ParseError{Msg: "no JSON object found in text"}
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++ // skip the escaped character
			case '"':
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
				return text[start : i+1], nil
			}
		}
	}

	// Opening brace without a balanced close: fall back to the greedy span
	// from the first '{' to the last '}', if any.
	end := strings.LastIndexByte(text, '}')
	if end > start {
		return text[start : end+1], nil
	}
	return "", &ParseError{Msg: "unbalanced JSON object in text"}
}

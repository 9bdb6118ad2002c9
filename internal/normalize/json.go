package normalize

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNoJSON is returned when no JSON structure at all could be recovered
// from a prose payload. This is the one normalizer failure an adapter may
// surface to its fallback chain instead of silently defaulting.
var ErrNoJSON = eris.New("normalize: no JSON object found")

// ExtractJSON recovers a JSON object from model output that may wrap it in
// markdown fences or surrounding prose. A fenced code block is preferred;
// otherwise the first balanced {...} span in the text is parsed.
func ExtractJSON(text string) (map[string]any, error) {
	var out map[string]any

	if fenced, ok := fencedBlock(text); ok {
		if err := json.Unmarshal([]byte(fenced), &out); err == nil {
			return out, nil
		}
	}

	span, ok := balancedObject(text)
	if !ok {
		return nil, eris.Wrap(ErrNoJSON, "no fenced block or balanced object")
	}
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, eris.Wrap(ErrNoJSON, err.Error())
	}
	return out, nil
}

// fencedBlock returns the contents of the first markdown code fence.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	// Drop an optional language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && nl < 20 && !strings.ContainsAny(rest[:nl], "{}") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObject finds the first balanced top-level {...} span, honoring
// string literals and escapes.
func balancedObject(text string) (string, bool) {
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
		}
	}
	return "", false
}

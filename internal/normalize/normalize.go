// Package normalize recovers structured values from unreliable free-text
// model output. Models asked for JSON routinely wrap it in prose or code
// fences, leave trailing commas, add // comments, or truncate mid-object;
// this package applies an ordered sequence of extraction, cleaning and
// repair passes before giving up.
//
// Normalization is deterministic and side-effect-free: input is never
// mutated, and the same input always yields the same result.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error reports that no repair attempt produced parseable JSON. Raw carries
// the original model output for logging.
type Error struct {
	Raw    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalization failed: %s", e.Reason)
}

// Unmarshal extracts the best JSON candidate from raw and decodes it into v.
// On failure it returns *Error; it never panics on malformed input.
func Unmarshal(raw string, v any) error {
	data, err := Extract(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Raw: raw, Reason: fmt.Sprintf("decode into %T: %v", v, err)}
	}
	return nil
}

// Extract locates and repairs the JSON payload inside raw, returning bytes
// that parse as a JSON value. The fallback order is: direct parse of the
// extracted candidate, then a cleaning pass (trailing commas, // comments,
// control characters), then a structural repair pass (close an open string,
// balance brackets).
func Extract(raw string) ([]byte, error) {
	candidate := extractCandidate(raw)
	if candidate == "" {
		return nil, &Error{Raw: raw, Reason: "no JSON candidate found"}
	}

	if json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	cleaned := clean(candidate)
	if json.Valid([]byte(cleaned)) {
		return []byte(cleaned), nil
	}

	repaired := repair(cleaned)
	if json.Valid([]byte(repaired)) {
		return []byte(repaired), nil
	}

	return nil, &Error{Raw: raw, Reason: "unparseable after clean and repair passes"}
}

// extractCandidate picks the most promising JSON span: a fenced block tagged
// as JSON first, then the first complete balanced object, then the widest
// first-'{' to last-'}' span, then the whole text.
func extractCandidate(raw string) string {
	if fenced, ok := extractFenced(raw); ok {
		return fenced
	}

	if candidates := findJSONCandidates(raw); len(candidates) > 0 {
		return candidates[0]
	}

	start := strings.IndexByte(raw, '{')
	if start >= 0 {
		if end := strings.LastIndexByte(raw, '}'); end > start {
			return raw[start : end+1]
		}
		// Truncated mid-object: take everything from the first brace and let
		// the repair pass balance it.
		return raw[start:]
	}

	return strings.TrimSpace(raw)
}

// extractFenced returns the contents of the first ```json fence, or of the
// first anonymous fence whose body starts with '{'.
func extractFenced(raw string) (string, bool) {
	rest := raw
	for {
		open := strings.Index(rest, "```")
		if open < 0 {
			return "", false
		}
		body := rest[open+3:]

		// Consume an optional language tag up to the first newline.
		tag := ""
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			tag = strings.ToLower(strings.TrimSpace(body[:nl]))
			body = body[nl+1:]
		}

		closeIdx := strings.Index(body, "```")
		content := body
		if closeIdx >= 0 {
			content = body[:closeIdx]
		}
		content = strings.TrimSpace(content)

		if tag == "json" || (tag == "" && strings.HasPrefix(content, "{")) {
			return content, true
		}

		if closeIdx < 0 {
			return "", false
		}
		rest = body[closeIdx+3:]
	}
}

// clean strips artifacts that commonly break an otherwise well-formed
// response: trailing commas before '}' or ']', //-style line comments, and
// non-printable control characters other than newline, tab and CR. String
// and escape state is respected throughout.
func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var inString, escape bool
	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			if escape {
				escape = false
			} else if c == '\\' {
				escape = true
			} else if c == '"' {
				inString = false
			}
			if c < 0x20 && c != '\n' && c != '\t' && c != '\r' {
				continue
			}
			b.WriteByte(c)
			continue
		}

		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			// Line comment: skip to end of line.
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == ',':
			// Trailing comma: drop it when the next significant byte closes
			// the container.
			j := i + 1
			for j < len(s) && isInsignificant(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(c)
		case c < 0x20 && c != '\n' && c != '\t' && c != '\r':
			continue
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isInsignificant(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// repair closes structures left open by mid-generation truncation: an open
// string gets its quote, a dangling comma or colon is neutralized, and
// unbalanced '{'/'[' are closed in LIFO order.
func repair(s string) string {
	var stack []byte
	var inString, escape bool

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escape {
				escape = false
			} else if c == '\\' {
				escape = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if n := len(stack); n > 0 && stack[n-1] == '{' {
				stack = stack[:n-1]
			}
		case ']':
			if n := len(stack); n > 0 && stack[n-1] == '[' {
				stack = stack[:n-1]
			}
		}
	}

	out := s
	if inString {
		// A trailing backslash would escape our closing quote.
		if escape {
			out = out[:len(out)-1]
		}
		out += `"`
	}

	inObject := len(stack) > 0 && stack[len(stack)-1] == '{'
	out = trimDangling(out, inObject)

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			out += "}"
		} else {
			out += "]"
		}
	}
	return out
}

// trimDangling removes a trailing fragment that cannot take a value once the
// containers are closed: a dangling comma, a "key": with no value, or a bare
// "key" with no colon. Dropping the fragment keeps every surviving key
// correctly typed instead of inventing a placeholder value.
func trimDangling(s string, inObject bool) string {
	t := strings.TrimRight(s, " \t\n\r")

	if strings.HasSuffix(t, ",") {
		return strings.TrimSuffix(t, ",")
	}

	if strings.HasSuffix(t, ":") {
		// "key": with the value lost to truncation. Drop the key too.
		t = strings.TrimRight(strings.TrimSuffix(t, ":"), " \t\n\r")
		if strings.HasSuffix(t, `"`) {
			if start := openingQuote(t); start >= 0 {
				t = strings.TrimRight(t[:start], " \t\n\r")
				t = strings.TrimSuffix(t, ",")
			}
		}
		return t
	}

	if inObject && strings.HasSuffix(t, `"`) {
		// A quoted fragment in key position (preceded by '{' or ',') is a
		// truncated key; in value position it is a recoverable value.
		if start := openingQuote(t); start >= 0 {
			before := strings.TrimRight(t[:start], " \t\n\r")
			if strings.HasSuffix(before, "{") || strings.HasSuffix(before, ",") {
				return strings.TrimSuffix(before, ",")
			}
		}
	}

	return t
}

// openingQuote finds the opening '"' of the string that s ends with,
// accounting for escaped quotes. Returns -1 if none is found.
func openingQuote(s string) int {
	if !strings.HasSuffix(s, `"`) {
		return -1
	}
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] != '"' {
			continue
		}
		// Count preceding backslashes: an odd run means this quote is escaped.
		backslashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}

// ABOUTME: Total conversion of backend message content payloads into display text
// ABOUTME: Handles strings, block arrays, JSON-stringified arrays, and tool-call objects

package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// textFieldRe matches "text" fields inside a near-JSON array, with either
// quote style around the key and the value. The closing value quote is
// optional so that a payload truncated mid-string still yields its fragment.
var textFieldRe = regexp.MustCompile(`["']text["']\s*:\s*(?:"((?:\\.|[^"\\])*)"?|'((?:\\.|[^'\\])*)'?)`)

// salvageUnescaper undoes the escape sequences the backend is known to emit
// inside text fields. Anything else is left as-is.
var salvageUnescaper = strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\n`, "\n")

// Normalize converts an arbitrary content payload into displayable text.
//
// Dispatch is by runtime shape: nil becomes the empty string, block arrays
// are joined with newlines, strings that look like JSON are parsed and
// re-dispatched, objects yield their text or content field, and anything
// else is coerced. A string that fails to parse is returned unchanged,
// except that array-like strings go through best-effort text extraction
// first (the backend occasionally truncates streamed JSON arrays).
func Normalize(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return normalizeString(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, block := range v {
			parts = append(parts, blockText(block))
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		return objectText(v)
	case json.RawMessage:
		return NormalizeJSON(v)
	case []byte:
		return NormalizeJSON(v)
	default:
		return fmt.Sprint(v)
	}
}

// NormalizeJSON decodes a raw JSON content field and normalizes the result.
// Empty or null input yields the empty string; undecodable bytes degrade to
// their literal text.
func NormalizeJSON(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return string(trimmed)
	}
	return Normalize(v)
}

// normalizeString handles the string shape: JSON-wrapped strings are parsed
// and recursed into, array-like strings that fail to parse are salvaged.
func normalizeString(s string) string {
	trimmed := strings.TrimSpace(s)
	wrappedObject := strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")
	wrappedArray := strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")

	if wrappedObject || wrappedArray {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return Normalize(parsed)
		}
	}

	if strings.HasPrefix(trimmed, "[") {
		if salvaged, ok := salvageTextFields(trimmed); ok {
			return salvaged
		}
	}

	return s
}

// salvageTextFields extracts text fields from a near-JSON array by regular
// expression. Reports false when nothing could be extracted.
func salvageTextFields(s string) (string, bool) {
	matches := textFieldRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		value := m[1]
		if value == "" {
			value = m[2]
		}
		parts = append(parts, salvageUnescaper.Replace(value))
	}
	return strings.Join(parts, "\n"), true
}

// blockText maps a single content block to text.
func blockText(block any) string {
	switch b := block.(type) {
	case nil:
		return ""
	case string:
		return b
	case map[string]any:
		return objectText(b)
	default:
		return fmt.Sprint(b)
	}
}

// objectText returns an object's text field, else its content field, else a
// JSON serialization of the whole object.
func objectText(obj map[string]any) string {
	if v, ok := obj["text"]; ok && v != nil {
		return coerce(v)
	}
	if v, ok := obj["content"]; ok && v != nil {
		return coerce(v)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprint(obj)
	}
	return string(data)
}

func coerce(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ToolCallBlock renders a tool-call payload as a fenced JSON block so tool
// invocations with no text content are never shown blank.
func ToolCallBlock(payload any) string {
	var rendered string
	switch p := payload.(type) {
	case json.RawMessage:
		var buf bytes.Buffer
		if err := json.Indent(&buf, p, "", "  "); err != nil {
			rendered = string(p)
		} else {
			rendered = buf.String()
		}
	default:
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			rendered = fmt.Sprint(payload)
		} else {
			rendered = string(data)
		}
	}
	return "**System: Tool Usage**\n```json\n" + rendered + "\n```"
}

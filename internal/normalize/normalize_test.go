// ABOUTME: Tests for content normalization across the backend's payload shapes
// ABOUTME: Covers JSON recursion, block arrays, truncated-array salvage, and totality

package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Nil(t *testing.T) {
	assert.Equal(t, "", Normalize(nil))
}

func TestNormalize_PlainString(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("hello world"))
}

func TestNormalize_JSONObjectString(t *testing.T) {
	assert.Equal(t, "hello", Normalize(`{"text":"hello"}`))
}

func TestNormalize_JSONArrayString(t *testing.T) {
	assert.Equal(t, "a\nb", Normalize(`[{"text": "a"}, {"text": "b"}]`))
}

func TestNormalize_BlockArray(t *testing.T) {
	blocks := []any{
		map[string]any{"text": "a"},
		map[string]any{"text": "b"},
	}
	assert.Equal(t, "a\nb", Normalize(blocks))
}

func TestNormalize_BlockArrayMixed(t *testing.T) {
	blocks := []any{
		"plain",
		map[string]any{"content": "from content"},
		map[string]any{"type": "image"},
	}
	assert.Equal(t, "plain\nfrom content\n{\"type\":\"image\"}", Normalize(blocks))
}

func TestNormalize_ObjectPrefersTextOverContent(t *testing.T) {
	obj := map[string]any{"text": "the text", "content": "the content"}
	assert.Equal(t, "the text", Normalize(obj))
}

func TestNormalize_ObjectWithoutTextOrContent(t *testing.T) {
	obj := map[string]any{"name": "lookup"}
	assert.Equal(t, `{"name":"lookup"}`, Normalize(obj))
}

func TestNormalize_TruncatedArraySalvage(t *testing.T) {
	// Invalid JSON (trailing garbage) but the text fields are recoverable.
	in := `[{"text": "partial"}, {"broken": ]`
	assert.Equal(t, "partial", Normalize(in))
}

func TestNormalize_TruncatedMidString(t *testing.T) {
	// Cut off inside the string value itself.
	assert.Equal(t, "partial", Normalize(`[{"text": "partial`))
}

func TestNormalize_SalvageEscapes(t *testing.T) {
	in := `[{"text": "line one\nline \"two\""}, {"text": "three`
	assert.Equal(t, "line one\nline \"two\"\nthree", Normalize(in))
}

func TestNormalize_SalvageSingleQuotes(t *testing.T) {
	in := `[{'text': 'first'}, {'text': 'second'} oops`
	assert.Equal(t, "first\nsecond", Normalize(in))
}

func TestNormalize_MalformedObjectStringUnchanged(t *testing.T) {
	in := `{not json at all}`
	assert.Equal(t, in, Normalize(in))
}

func TestNormalize_MalformedArrayNoTextUnchanged(t *testing.T) {
	in := `[1, 2, oops`
	assert.Equal(t, in, Normalize(in))
}

func TestNormalize_NestedStringifiedArray(t *testing.T) {
	// A JSON string whose parsed value is itself an array of blocks.
	inner := `[{"text":"x"},{"text":"y"}]`
	assert.Equal(t, "x\ny", Normalize(inner))
}

func TestNormalize_Idempotent(t *testing.T) {
	// Plain-text output has no JSON delimiters, so a second pass is a no-op.
	out := Normalize(`{"text":"hello"}`)
	assert.Equal(t, out, Normalize(out))
}

func TestNormalize_ScalarCoercion(t *testing.T) {
	assert.Equal(t, "42", Normalize(float64(42)))
	assert.Equal(t, "true", Normalize(true))
}

func TestNormalizeJSON_Null(t *testing.T) {
	assert.Equal(t, "", NormalizeJSON(nil))
	assert.Equal(t, "", NormalizeJSON([]byte("null")))
}

func TestNormalizeJSON_String(t *testing.T) {
	assert.Equal(t, "hi", NormalizeJSON([]byte(`"hi"`)))
}

func TestNormalizeJSON_Array(t *testing.T) {
	assert.Equal(t, "a\nb", NormalizeJSON([]byte(`[{"text":"a"},{"text":"b"}]`)))
}

func TestNormalizeJSON_Undecodable(t *testing.T) {
	assert.Equal(t, "not json", NormalizeJSON([]byte("not json")))
}

func TestToolCallBlock_RawJSON(t *testing.T) {
	raw := json.RawMessage(`[{"name":"search","args":{"q":"go"}}]`)
	out := ToolCallBlock(raw)
	assert.Contains(t, out, "**System: Tool Usage**")
	assert.Contains(t, out, "```json")
	assert.Contains(t, out, `"name": "search"`)
	assert.NotEmpty(t, out)
}

func TestToolCallBlock_InvalidRawFallsBack(t *testing.T) {
	out := ToolCallBlock(json.RawMessage("broken{"))
	assert.Contains(t, out, "broken{")
}

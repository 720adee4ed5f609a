package structured

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- ExtractObject Tests --------------------

func TestExtractObject_PlainObject(t *testing.T) {
	span, err := ExtractObject(`{"a": 1}`)
	assert.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, span)
}

func TestExtractObject_ProseWrapped(t *testing.T) {
	text := "Sure! Here is the plan:\n```json\n{\"goal\": \"x\"}\n```\nLet me know."
	span, err := ExtractObject(text)
	assert.NoError(t, err)
	assert.Equal(t, `{"goal": "x"}`, span)
}

func TestExtractObject_BracesInsideStrings(t *testing.T) {
	text := `prefix {"text": "a } brace and a { brace", "n": 1} suffix`
	span, err := ExtractObject(text)
	assert.NoError(t, err)
	assert.Equal(t, `{"text": "a } brace and a { brace", "n": 1}`, span)
}

func TestExtractObject_EscapedQuotes(t *testing.T) {
	text := `{"text": "he said \"hello\" }", "ok": true}`
	span, err := ExtractObject(text)
	assert.NoError(t, err)
	assert.Equal(t, text, span)
}

func TestExtractObject_NestedObjects(t *testing.T) {
	text := `{"outer": {"inner": {"deep": 1}}} trailing`
	span, err := ExtractObject(text)
	assert.NoError(t, err)
	assert.Equal(t, `{"outer": {"inner": {"deep": 1}}}`, span)
}

func TestExtractObject_NoObject(t *testing.T) {
	_, err := ExtractObject("just prose, no JSON here")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "no JSON object found")
}

func TestExtractObject_Unbalanced(t *testing.T) {
	_, err := ExtractObject(`{"a": 1`)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "unbalanced")
}

func TestExtractObject_GreedyFallback(t *testing.T) {
	// Unterminated string keeps the scanner from balancing; the greedy span
	// from first '{' to last '}' is returned instead.
	span, err := ExtractObject(`{"a": "unterminated}`)
	assert.NoError(t, err)
	assert.Equal(t, `{"a": "unterminated}`, span)
}

// -------------------- Decode & Validate Tests --------------------

func TestDecode_Valid(t *testing.T) {
	doc, err := Decode(`noise {"a": 1, "b": "two"} noise`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), doc["a"])
	assert.Equal(t, "two", doc["b"])
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode(`{"a": }`)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestValidate_Passes(t *testing.T) {
	schema := `{"type":"object","required":["goal"],"properties":{"goal":{"type":"string"}}}`
	err := Validate(map[string]any{"goal": "x"}, schema)
	assert.NoError(t, err)
}

func TestValidate_CollectsSortedCauses(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["goal", "steps"],
		"properties": {
			"goal": {"type": "string"},
			"steps": {"type": "array"}
		}
	}`
	err := Validate(map[string]any{"goal": 42}, schema)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.GreaterOrEqual(t, len(valErr.Causes), 2)
	for i := 1; i < len(valErr.Causes); i++ {
		assert.LessOrEqual(t, valErr.Causes[i-1], valErr.Causes[i])
	}
}

func TestDecodeValidated_TaggedErrors(t *testing.T) {
	schema := `{"type":"object","required":["success"],"properties":{"success":{"type":"boolean"}}}`

	_, err := DecodeValidated("no json at all", schema)
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))

	_, err = DecodeValidated(`{"other": true}`, schema)
	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))

	doc, err := DecodeValidated(`result: {"success": true}`, schema)
	require.NoError(t, err)
	assert.Equal(t, true, doc["success"])
}

package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractJSON_Direct verifies a clean JSON object parses as-is.
func TestExtractJSON_Direct(t *testing.T) {
	parsed := ExtractJSON(`{"title": "Calm", "count": 3}`)
	require.NotNil(t, parsed)
	assert.Equal(t, "Calm", parsed["title"])
	assert.Equal(t, float64(3), parsed["count"])
}

// TestExtractJSON_CodeFences verifies ```json fences are stripped before parsing.
func TestExtractJSON_CodeFences(t *testing.T) {
	parsed := ExtractJSON("```json\n{\"key\": \"value\"}\n```")
	require.NotNil(t, parsed)
	assert.Equal(t, "value", parsed["key"])
}

// TestExtractJSON_BareFences verifies plain ``` fences are stripped too.
func TestExtractJSON_BareFences(t *testing.T) {
	parsed := ExtractJSON("```\n{\"key\": \"value\"}\n```")
	require.NotNil(t, parsed)
	assert.Equal(t, "value", parsed["key"])
}

// TestExtractJSON_SurroundingProse verifies the brace-substring recovery path
// when the model wraps JSON in conversational text.
func TestExtractJSON_SurroundingProse(t *testing.T) {
	parsed := ExtractJSON(`Sure, here is your JSON: {"insights": []} hope it helps!`)
	require.NotNil(t, parsed)
	assert.Contains(t, parsed, "insights")
}

// TestExtractJSON_Unrecoverable verifies nil is returned rather than an error
// or panic when no JSON object can be recovered.
func TestExtractJSON_Unrecoverable(t *testing.T) {
	assert.Nil(t, ExtractJSON("I could not produce JSON this time."))
	assert.Nil(t, ExtractJSON(""))
	assert.Nil(t, ExtractJSON("} backwards {"))
	assert.Nil(t, ExtractJSON("{ not valid json }"))
}

// TestExtractJSON_NestedBraces verifies the first-to-last brace substring keeps
// nested objects intact.
func TestExtractJSON_NestedBraces(t *testing.T) {
	parsed := ExtractJSON(`prefix {"a": {"b": 1}} suffix`)
	require.NotNil(t, parsed)
	inner, ok := parsed["a"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), inner["b"])
}

package normalize

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"usable_area_m2\": 85, \"roof_type\": \"metal\"}\n```\nLet me know if you need more."

	obj, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, 85.0, obj["usable_area_m2"])
	assert.Equal(t, "metal", obj["roof_type"])
}

func TestExtractJSON_FenceWithoutLanguageTag(t *testing.T) {
	text := "```\n{\"shading_pct\": 12.5}\n```"

	obj, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, 12.5, obj["shading_pct"])
}

func TestExtractJSON_BalancedObjectInProse(t *testing.T) {
	text := `Based on the imagery, I'd estimate {"suitability_score": 78, "notes": "south-facing"} which seems right.`

	obj, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, 78.0, obj["suitability_score"])
}

func TestExtractJSON_NestedBracesAndStrings(t *testing.T) {
	text := `Result: {"a": {"b": "has } brace and \" quote"}, "c": 1} trailing prose {not json}`

	obj, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, 1.0, obj["c"])
	inner, ok := obj["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, `has } brace and " quote`, inner["b"])
}

func TestExtractJSON_MalformedFenceFallsBackToBalancedScan(t *testing.T) {
	// The fence holds no JSON but a valid object follows in prose.
	text := "```json\nsee below\n```\nActual answer: {\"ok\": true}"

	obj, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, true, obj["ok"])
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON("The roof looks fine, roughly 80 square meters of usable area.")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoJSON))
}

func TestExtractJSON_UnterminatedObject(t *testing.T) {
	_, err := ExtractJSON(`{"never": "closed"`)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoJSON))
}

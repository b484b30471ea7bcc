package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromMap(t *testing.T) {
	s, err := SettingsFromMap(map[string]any{
		"namespace":           "nt",
		"kind":                "function",
		"default_parent":      "NtSystemCall",
		"default_result":      "NTSTATUS",
		"requires":            ">= 1.0",
		"allow_unknown_types": true,
		"library_id":          float64(7),
		"nested":              map[string]any{"n": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "nt", s.Namespace)
	assert.Equal(t, "function", s.Kind)
	assert.Equal(t, "NtSystemCall", s.DefaultParent)
	assert.Equal(t, "NTSTATUS", s.DefaultResult)
	assert.Equal(t, ">= 1.0", s.Requires)
	assert.True(t, s.AllowUnknownTypes)
	assert.Equal(t, int64(7), s.Values["library_id"])
	assert.Equal(t, map[string]any{"n": int64(1)}, s.Values["nested"])
	assert.Equal(t, "nt", s.Values["namespace"], "known keys stay visible to templates")
}

func TestSettingsFromMapEmpty(t *testing.T) {
	s, err := SettingsFromMap(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Namespace)
	assert.NotNil(t, s.Values)
}

func TestSettingsFromMapTypeErrors(t *testing.T) {
	_, err := SettingsFromMap(map[string]any{"kind": 1})
	assert.ErrorContains(t, err, "settings.kind")

	_, err = SettingsFromMap(map[string]any{"allow_unknown_types": "yes"})
	assert.ErrorContains(t, err, "allow_unknown_types")
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, int64(2), normalizeValue(2))
	assert.Equal(t, int64(2), normalizeValue(float64(2)))
	assert.Equal(t, 2.5, normalizeValue(2.5))
	assert.Equal(t, map[string]any{"1": "x"}, normalizeValue(map[any]any{1: "x"}))
	assert.Equal(t, []any{int64(1), "a"}, normalizeValue([]any{1, "a"}))
}

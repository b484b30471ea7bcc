package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidRoot(t *testing.T) {
	out, err := execute(t, "validate", validRoot(t))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All declarations valid (1 libraries, 2 operations)")
}

func TestValidateValidRootJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", validRoot(t))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Operations)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidateMissingCategory(t *testing.T) {
	root := writeRoot(t, map[string]string{
		"typemap.yaml":               fixtureTypemap,
		"libraries/nt/settings.yaml": fixtureSettings,
		"libraries/nt/ops.yaml":      "OpenThing:\n  arguments:\n    - {name: h, type: HANDLE, index: 0}\n",
	})

	out, err := execute(t, "validate", root)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E104")
}

func TestValidateReportsEveryError(t *testing.T) {
	root := writeRoot(t, map[string]string{
		"typemap.yaml":               fixtureTypemap,
		"libraries/nt/settings.yaml": fixtureSettings,
		"libraries/nt/ops.yaml": `Twice:
  category: io
  arguments:
    - {name: a, type: HANDLE, index: 0}
    - {name: b, type: HANDLE, index: 0}
Orphan:
  parent: Nobody
  category: io
`,
	})

	out, err := execute(t, "--format", "json", "validate", root)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	codes := make([]string, 0, len(resp.Data.Errors))
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, "E101")
	assert.Contains(t, codes, "E106")
}

func TestValidateUnknownTypeIsValidationFailure(t *testing.T) {
	root := writeRoot(t, map[string]string{
		"libraries/nt/settings.yaml": fixtureSettings,
		"libraries/nt/ops.yaml":      "OpenThing:\n  category: io\n  arguments:\n    - {name: h, type: MYSTERY, index: 0}\n",
	})

	out, err := execute(t, "validate", root)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "T001")
}

func TestValidateDecodeErrorIsCommandError(t *testing.T) {
	root := writeRoot(t, map[string]string{
		"libraries/nt/settings.yaml": fixtureSettings,
		"libraries/nt/ops.json":      "{not json",
	})

	_, err := execute(t, "validate", root)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E004")
}

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outputDirs(t *testing.T) (string, string) {
	t.Helper()
	out := t.TempDir()
	return filepath.Join(out, "include"), filepath.Join(out, "src")
}

func TestGenerateWritesFiles(t *testing.T) {
	root := validRoot(t)
	hdr, src := outputDirs(t)

	out, err := execute(t, "generate", "--no-format", root, hdr, src)
	require.NoError(t, err)
	// 3 library aggregates + 2 files per operation + supported_calls.cc
	assert.Contains(t, out, "✓ Generated 8 file(s): 8 created, 0 updated, 0 unchanged")

	for _, path := range []string{
		filepath.Join(hdr, "nt", "OpenThing.hh"),
		filepath.Join(hdr, "nt", "CloseThing.hh"),
		filepath.Join(hdr, "nt", "nt.hh"),
		filepath.Join(hdr, "nt", "fwd.hh"),
		filepath.Join(src, "nt", "OpenThingImpl.hh"),
		filepath.Join(src, "nt", "registry.cc"),
		filepath.Join(src, "supported_calls.cc"),
	} {
		assert.FileExists(t, path)
	}

	header, err := os.ReadFile(filepath.Join(hdr, "nt", "OpenThing.hh"))
	require.NoError(t, err)
	assert.Contains(t, string(header), "class OpenThing : public NtSystemCall {")
}

func TestGenerateSecondRunIsUnchanged(t *testing.T) {
	root := validRoot(t)
	hdr, src := outputDirs(t)

	_, err := execute(t, "generate", "--no-format", root, hdr, src)
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "generate", "--no-format", root, hdr, src)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 8, resp.Data.Unchanged)
	assert.Zero(t, resp.Data.Created)
	assert.Zero(t, resp.Data.Updated)
}

func TestGenerateFailedCompileWritesNothing(t *testing.T) {
	root := writeRoot(t, map[string]string{
		"typemap.yaml":               fixtureTypemap,
		"libraries/nt/settings.yaml": fixtureSettings,
		"libraries/nt/ops.yaml":      "OpenThing:\n  arguments:\n    - {name: h, type: HANDLE, index: 0}\n",
	})
	hdr, src := outputDirs(t)

	_, err := execute(t, "generate", "--no-format", root, hdr, src)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.NoDirExists(t, hdr)
	assert.NoDirExists(t, src)
}

func TestGenerateRequiresBothOutputDirs(t *testing.T) {
	_, err := execute(t, "generate", "--no-format", validRoot(t), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerateOutputDirsFromConfig(t *testing.T) {
	root := validRoot(t)
	hdr, src := outputDirs(t)
	cfg := "formatter:\n  enabled: false\noutput:\n  header_dir: " + hdr + "\n  source_dir: " + src + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "callgen.yaml"), []byte(cfg), 0o644))

	_, err := execute(t, "generate", root)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(src, "nt", "CloseThingImpl.hh"))
}

func TestGenerateUsesTemplateOverrides(t *testing.T) {
	root := validRoot(t)
	override := filepath.Join(root, "templates", "overrides", "OpenThing.hh.tpl")
	require.NoError(t, os.MkdirAll(filepath.Dir(override), 0o755))
	require.NoError(t, os.WriteFile(override, []byte("// hand-tuned {{.Operation.Name}}\n"), 0o644))
	hdr, src := outputDirs(t)

	_, err := execute(t, "generate", "--no-format", root, hdr, src)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(hdr, "nt", "OpenThing.hh"))
	require.NoError(t, err)
	assert.Equal(t, "// hand-tuned OpenThing\n", string(data))
}

func TestGenerateListModeWritesNothing(t *testing.T) {
	root := validRoot(t)
	hdr, src := outputDirs(t)

	out, err := execute(t, "generate", "--headers", root, hdr, src)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		filepath.Join(hdr, "nt", "nt.hh"),
		filepath.Join(hdr, "nt", "fwd.hh"),
		filepath.Join(hdr, "nt", "CloseThing.hh"),
		filepath.Join(hdr, "nt", "OpenThing.hh"),
	}, ";"), out)
	assert.NoDirExists(t, hdr)

	out, err = execute(t, "generate", "--sources", root, hdr, src)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		filepath.Join(src, "nt", "registry.cc"),
		filepath.Join(src, "nt", "CloseThingImpl.hh"),
		filepath.Join(src, "nt", "OpenThingImpl.hh"),
		filepath.Join(src, "supported_calls.cc"),
	}, ";"), out)
	assert.NoDirExists(t, src)
}

func TestListCommandIsDeterministic(t *testing.T) {
	root := validRoot(t)
	hdr, src := outputDirs(t)

	first, err := execute(t, "list", root, hdr, src)
	require.NoError(t, err)
	second, err := execute(t, "list", root, hdr, src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, strings.Split(first, ";"), 8)
	assert.False(t, strings.HasSuffix(first, ";"))
}

func TestListCommandJSON(t *testing.T) {
	root := validRoot(t)
	hdr, src := outputDirs(t)

	out, err := execute(t, "--format", "json", "list", "--headers", root, hdr, src)
	require.NoError(t, err)

	var resp struct {
		Data ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data.Paths, 4)
}

func TestGenerateRecordsLedgerAndHistory(t *testing.T) {
	root := validRoot(t)
	hdr, src := outputDirs(t)
	ledger := filepath.Join(t.TempDir(), "ledger.db")

	out, err := execute(t, "--format", "json", "generate", "--no-format", "--ledger", ledger, root, hdr, src)
	require.NoError(t, err)

	var gen struct {
		Data GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &gen))
	assert.NotEmpty(t, gen.Data.RunID)
	assert.Equal(t, int64(1), gen.Data.RunSeq)

	_, err = execute(t, "generate", "--no-format", "--ledger", ledger, root, hdr, src)
	require.NoError(t, err)

	out, err = execute(t, "history", "--ledger", ledger, root)
	require.NoError(t, err)
	assert.Contains(t, out, "Run #2")
	assert.Contains(t, out, "unchanged")
	assert.Contains(t, out, filepath.Join(src, "supported_calls.cc"))

	out, err = execute(t, "--format", "json", "history", "--ledger", ledger, "--runs", "5")
	require.NoError(t, err)
	var hist struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &hist))
	require.NotNil(t, hist.Data.Latest)
	assert.Len(t, hist.Data.Latest.Outputs, 8)
	require.Len(t, hist.Data.Runs, 2)
	assert.Equal(t, hist.Data.Runs[0].ModelFingerprint, hist.Data.Runs[1].ModelFingerprint)
}

func TestHistoryWithoutLedger(t *testing.T) {
	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryEmptyLedger(t *testing.T) {
	out, err := execute(t, "history", "--ledger", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

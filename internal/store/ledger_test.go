package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(root, model string, paths ...string) Run {
	run := Run{Root: root, GeneratorVersion: "1.4.0", ModelFingerprint: model}
	for _, p := range paths {
		run.Outputs = append(run.Outputs, Output{Path: p, Fingerprint: "content:" + p, Outcome: "created"})
	}
	return run
}

func TestRecordRun_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.RecordRun(ctx, testRun("/decls", "m1", "b.hh", "a.hh"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, 2, first.FileCount)

	second, err := s.RecordRun(ctx, testRun("/other", "m2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRecordRun_KeepsExplicitID(t *testing.T) {
	s := createTestStore(t)

	run := testRun("/decls", "m1")
	run.ID = "fixed-id"
	got, err := s.RecordRun(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", got.ID)

	_, err = s.RecordRun(context.Background(), run)
	require.Error(t, err, "duplicate run id must be rejected")
}

func TestLatestRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	none, err := s.LatestRun(ctx, "/decls")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = s.RecordRun(ctx, testRun("/decls", "m1", "x.hh"))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, testRun("/elsewhere", "m9"))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, testRun("/decls", "m2", "b.hh", "a.hh"))
	require.NoError(t, err)

	latest, err := s.LatestRun(ctx, "/decls")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "m2", latest.ModelFingerprint)
	assert.Equal(t, int64(3), latest.Seq)
	require.Len(t, latest.Outputs, 2)
	assert.Equal(t, "a.hh", latest.Outputs[0].Path)
	assert.Equal(t, "b.hh", latest.Outputs[1].Path)
}

func TestRuns_NewestFirstWithLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, m := range []string{"m1", "m2", "m3"} {
		_, err := s.RecordRun(ctx, testRun("/decls", m))
		require.NoError(t, err)
	}
	_, err := s.RecordRun(ctx, testRun("/other", "m4"))
	require.NoError(t, err)

	all, err := s.Runs(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "m4", all[0].ModelFingerprint)

	limited, err := s.Runs(ctx, "/decls", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, []string{"m3", "m2"}, []string{limited[0].ModelFingerprint, limited[1].ModelFingerprint})
}

func TestLedgerSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.RecordRun(context.Background(), testRun("/decls", "m1", "a.hh"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	latest, err := s.LatestRun(context.Background(), "/decls")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "m1", latest.ModelFingerprint)
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/summa/internal/ir"
)

func TestOpenPragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Publish(ctx, createTestReport(t, "run-1")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestPublishReadRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestReport(t, "run-1")

	require.NoError(t, s.Publish(ctx, want))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Label, got.Label)
	assert.Equal(t, want.UniqueMethods, got.UniqueMethods)
	assert.Equal(t, want.RecordedMethods, got.RecordedMethods)
	assert.Equal(t, want.Stats, got.Stats)

	require.Len(t, got.Summaries, 2)
	assert.Equal(t, ir.MethodID("Calc.add(II)I"), got.Summaries[0].Method)
	assert.Equal(t, ir.MethodID("Counter.increment()V"), got.Summaries[1].Method)
	for i := range want.Summaries {
		require.Len(t, got.Summaries[i].Entries, len(want.Summaries[i].Entries))
		for j, e := range want.Summaries[i].Entries {
			assert.Equal(t, e.ID, got.Summaries[i].Entries[j].ID)
			assert.Equal(t, e.Index, got.Summaries[i].Entries[j].Index)
		}
	}

	wantJSON, err := want.SummariesJSON()
	require.NoError(t, err)
	gotJSON, err := got.SummariesJSON()
	require.NoError(t, err)
	assert.Equal(t, string(wantJSON), string(gotJSON))

	wantStats, err := want.StatsJSON()
	require.NoError(t, err)
	gotStats, err := got.StatsJSON()
	require.NoError(t, err)
	assert.Equal(t, string(wantStats), string(gotStats))
}

func TestPublishIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	r := createTestReport(t, "run-1")

	require.NoError(t, s.Publish(ctx, r))
	require.NoError(t, s.Publish(ctx, r))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 4, runs[0].Summaries)
}

func TestListRunsOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	_, err = s.LatestRunID(ctx)
	assert.True(t, errors.Is(err, ErrRunNotFound))

	for _, id := range []string{"run-b", "run-a", "run-c"} {
		require.NoError(t, s.Publish(ctx, createTestReport(t, id)))
	}

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
	assert.Equal(t, "run-c", runs[2].ID)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, int64(3), runs[2].Seq)
	assert.Equal(t, ir.EngineVersion, runs[0].EngineVersion)
	assert.Equal(t, 2, runs[0].UniqueMethods)

	latest, err := s.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-c", latest)
}

func TestReadRunNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestReadRunDetectsCorruption(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Publish(ctx, createTestReport(t, "run-1")))

	_, err := s.db.ExecContext(ctx, `
		UPDATE summaries SET modifications = '{"args":[],"fields":[],"modsSize":0,"staticFields":[]}'
		WHERE run_id = 'run-1' AND idx = 0 AND method = 'Calc.add(II)I'
	`)
	require.NoError(t, err)

	_, err = s.ReadRun(ctx, "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match content")
}

func TestPublishRejectsEmptyRunID(t *testing.T) {
	s := createTestStore(t)

	err := s.Publish(context.Background(), createTestReport(t, ""))
	require.Error(t, err)
}

func TestUnmarshalDocumentRejectsFractions(t *testing.T) {
	_, err := unmarshalDocument(`{"contextSize":1.5}`)
	require.Error(t, err)

	doc, err := unmarshalDocument(`{"a":[1,{"b":2}],"c":"int:3"}`)
	require.NoError(t, err)
	data, err := ir.MarshalCanonical(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,{"b":2}],"c":"int:3"}`, string(data))
}

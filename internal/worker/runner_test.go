package worker_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondendo89/Prezzibenzina/internal/ingest"
	"github.com/dondendo89/Prezzibenzina/internal/registry"
	"github.com/dondendo89/Prezzibenzina/internal/worker"
)

type mockIngest struct {
	summary ingest.Summary
	err     error
	runs    int
}

func (m *mockIngest) Run(_ context.Context) (ingest.Summary, error) {
	m.runs++
	return m.summary, m.err
}

type mockImporter struct {
	result registry.ImportResult
	err    error
	runs   int
}

func (m *mockImporter) Run(_ context.Context) (registry.ImportResult, error) {
	m.runs++
	return m.result, m.err
}

func newRunner(ing *mockIngest, imp *mockImporter, cfg worker.Config) *worker.Runner {
	return worker.NewRunner(worker.RunnerConfig{
		Config:   cfg,
		Ingest:   ing,
		Importer: imp,
		Logger:   zerolog.New(io.Discard),
	})
}

func TestRunIngest_RecordsMetrics(t *testing.T) {
	ing := &mockIngest{summary: ingest.Summary{Updated: 100, Changed: 7}}
	r := newRunner(ing, &mockImporter{}, worker.Config{})

	summary, err := r.RunIngest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, summary.Updated)

	m := r.GetMetrics()
	assert.Equal(t, int64(1), m.TotalRuns)
	assert.Equal(t, int64(1), m.SuccessfulRuns)
	assert.Equal(t, int64(0), m.FailedRuns)
	assert.Equal(t, int64(100), m.StationsUpdated)
	assert.Equal(t, int64(7), m.ChangesDetected)
	assert.False(t, m.LastRunAt.IsZero())
}

func TestRunIngest_Failure(t *testing.T) {
	ing := &mockIngest{err: errors.New("feed unavailable")}
	r := newRunner(ing, &mockImporter{}, worker.Config{})

	_, err := r.RunIngest(context.Background())
	require.Error(t, err)

	m := r.GetMetrics()
	assert.Equal(t, int64(1), m.TotalRuns)
	assert.Equal(t, int64(1), m.FailedRuns)
	assert.Equal(t, int64(0), m.StationsUpdated)
}

func TestRunImport(t *testing.T) {
	imp := &mockImporter{result: registry.ImportResult{Upserted: 21984}}
	r := newRunner(&mockIngest{}, imp, worker.Config{})

	result, err := r.RunImport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21984, result.Upserted)
	assert.Equal(t, int64(1), r.GetMetrics().RegistryImports)
}

func TestStart_RunsJobsOnStartupAndTicks(t *testing.T) {
	ing := &mockIngest{}
	imp := &mockImporter{}
	r := newRunner(ing, imp, worker.Config{
		IngestInterval: 10 * time.Millisecond,
		ImportInterval: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := r.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// One startup run plus at least one tick.
	assert.GreaterOrEqual(t, ing.runs, 2)
	assert.Equal(t, 1, imp.runs)
}

func TestMetricsSnapshot(t *testing.T) {
	ing := &mockIngest{summary: ingest.Summary{Updated: 5, Changed: 1}}
	r := newRunner(ing, &mockImporter{}, worker.Config{})

	_, err := r.RunIngest(context.Background())
	require.NoError(t, err)

	snap := r.MetricsSnapshot()
	assert.Equal(t, int64(1), snap["total_runs"])
	assert.Equal(t, int64(5), snap["stations_updated"])
	assert.Equal(t, int64(1), snap["changes_detected"])
}

package data

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyworks/backoffice-api/internal/core"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

func newTestJob(id string, kind model.ReportKind) model.ReportJob {
	return model.ReportJob{
		ID:          id,
		Kind:        kind,
		Status:      model.JobStatusPending,
		SubmittedAt: time.Now(),
	}
}

func TestReportJobStore_Insert(t *testing.T) {
	store := NewReportJobStore()

	tracked, err := store.Insert(newTestJob("a", model.ReportKindAccounts))
	require.NoError(t, err)
	assert.Equal(t, 1, tracked)

	tracked, err = store.Insert(newTestJob("b", model.ReportKindYearly))
	require.NoError(t, err)
	assert.Equal(t, 2, tracked)

	// the concurrency sample is stamped on the stored record
	second, err := store.GetByID("b")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Metrics.PeakTrackedJobs)

	_, err = store.Insert(newTestJob("a", model.ReportKindAccounts))
	assert.ErrorIs(t, err, ErrDuplicateReportJob)
}

func TestReportJobStore_GetByID(t *testing.T) {
	store := NewReportJobStore()
	_, err := store.Insert(newTestJob("a", model.ReportKindAccounts))
	require.NoError(t, err)

	job, err := store.GetByID("a")
	require.NoError(t, err)
	assert.Equal(t, "a", job.ID)
	assert.Equal(t, model.JobStatusPending, job.Status)

	_, err = store.GetByID("missing")
	assert.ErrorIs(t, err, ErrReportJobNotFound)
}

func TestReportJobStore_GetByID_ReturnsCopy(t *testing.T) {
	store := NewReportJobStore()
	_, err := store.Insert(newTestJob("a", model.ReportKindAccounts))
	require.NoError(t, err)

	job, err := store.GetByID("a")
	require.NoError(t, err)
	job.Status = model.JobStatusFailed

	fresh, err := store.GetByID("a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, fresh.Status, "caller mutations must not reach the registry")
}

func TestReportJobStore_SetSubmissionLatency(t *testing.T) {
	store := NewReportJobStore()
	_, err := store.Insert(newTestJob("a", model.ReportKindAccounts))
	require.NoError(t, err)

	require.NoError(t, store.SetSubmissionLatency("a", 4.5))
	job, err := store.GetByID("a")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, job.Metrics.SubmissionLatencyMillis, 1e-9)

	// the stamp lands even after the loop has taken the job
	_, err = store.Start("a", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.SetSubmissionLatency("a", 6.25))
	job, err = store.GetByID("a")
	require.NoError(t, err)
	assert.InDelta(t, 6.25, job.Metrics.SubmissionLatencyMillis, 1e-9)

	err = store.SetSubmissionLatency("missing", 1)
	assert.ErrorIs(t, err, ErrReportJobNotFound)
}

func TestReportJobStore_Lifecycle(t *testing.T) {
	store := NewReportJobStore()
	_, err := store.Insert(newTestJob("a", model.ReportKindAccounts))
	require.NoError(t, err)

	startedAt := time.Now()
	job, err := store.Start("a", startedAt)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, job.Status)
	require.NotNil(t, job.StartedAt)
	assert.Equal(t, startedAt, *job.StartedAt)

	completedAt := startedAt.Add(120 * time.Millisecond)
	job, err = store.Complete(core.CompleteReportJobParams{
		ID:                      "a",
		CompletedAt:             completedAt,
		ResultLocations:         []string{"accounts_deadbeef"},
		ProcessingLatencyMillis: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, []string{"accounts_deadbeef"}, job.ResultLocations)
	assert.Equal(t, 120.0, job.Metrics.ProcessingLatencyMillis)
	require.NotNil(t, job.CompletedAt)
}

func TestReportJobStore_FailLifecycle(t *testing.T) {
	store := NewReportJobStore()
	_, err := store.Insert(newTestJob("a", model.ReportKindAll))
	require.NoError(t, err)

	_, err = store.Start("a", time.Now())
	require.NoError(t, err)

	job, err := store.Fail(core.FailReportJobParams{
		ID:                      "a",
		CompletedAt:             time.Now(),
		ErrorMessage:            "ledger directory missing",
		ProcessingLatencyMillis: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.LastError)
	assert.Equal(t, "ledger directory missing", *job.LastError)
}

func TestReportJobStore_IllegalTransitions(t *testing.T) {
	store := NewReportJobStore()
	_, err := store.Insert(newTestJob("a", model.ReportKindAccounts))
	require.NoError(t, err)

	// Pending jobs cannot jump straight to a terminal state.
	_, err = store.Complete(core.CompleteReportJobParams{ID: "a", CompletedAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = store.Fail(core.FailReportJobParams{ID: "a", CompletedAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Failed transition attempts must not corrupt the record.
	job, err := store.GetByID("a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Nil(t, job.CompletedAt)

	_, err = store.Start("a", time.Now())
	require.NoError(t, err)
	_, err = store.Complete(core.CompleteReportJobParams{ID: "a", CompletedAt: time.Now()})
	require.NoError(t, err)

	// Terminal states are final.
	_, err = store.Start("a", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = store.Fail(core.FailReportJobParams{ID: "a", CompletedAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReportJobStore_ListPreservesInsertionOrder(t *testing.T) {
	store := NewReportJobStore()
	for i := 0; i < 5; i++ {
		_, err := store.Insert(newTestJob(fmt.Sprintf("job-%d", i), model.ReportKindAccounts))
		require.NoError(t, err)
	}

	jobs := store.List()
	require.Len(t, jobs, 5)
	for i, job := range jobs {
		assert.Equal(t, fmt.Sprintf("job-%d", i), job.ID)
	}
}

func TestReportJobStore_Stats(t *testing.T) {
	store := NewReportJobStore()
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		_, err := store.Insert(newTestJob(id, model.ReportKindAccounts))
		require.NoError(t, err)
	}

	_, err := store.Start("b", time.Now())
	require.NoError(t, err)

	_, err = store.Start("c", time.Now())
	require.NoError(t, err)
	_, err = store.Complete(core.CompleteReportJobParams{ID: "c", CompletedAt: time.Now()})
	require.NoError(t, err)

	_, err = store.Start("d", time.Now())
	require.NoError(t, err)
	_, err = store.Fail(core.FailReportJobParams{ID: "d", CompletedAt: time.Now(), ErrorMessage: "x"})
	require.NoError(t, err)

	stats := store.Stats()
	assert.Equal(t, model.JobStats{Pending: 1, Processing: 1, Completed: 1, Failed: 1}, stats)
}

func TestReportJobStore_DeleteTerminalBefore(t *testing.T) {
	store := NewReportJobStore()
	now := time.Now()

	finish := func(id string, completedAt time.Time) {
		t.Helper()
		_, err := store.Insert(newTestJob(id, model.ReportKindAccounts))
		require.NoError(t, err)
		_, err = store.Start(id, completedAt.Add(-time.Second))
		require.NoError(t, err)
		_, err = store.Complete(core.CompleteReportJobParams{ID: id, CompletedAt: completedAt})
		require.NoError(t, err)
	}

	finish("old", now.Add(-2*time.Hour))
	finish("young", now.Add(-time.Minute))
	_, err := store.Insert(newTestJob("pending", model.ReportKindYearly))
	require.NoError(t, err)

	removed := store.DeleteTerminalBefore(now.Add(-time.Hour))
	assert.Equal(t, 1, removed)

	_, err = store.GetByID("old")
	assert.ErrorIs(t, err, ErrReportJobNotFound)
	_, err = store.GetByID("young")
	assert.NoError(t, err)
	_, err = store.GetByID("pending")
	assert.NoError(t, err)

	// Stale pending jobs are never swept, no matter how old.
	removed = store.DeleteTerminalBefore(now.Add(time.Hour))
	assert.Equal(t, 1, removed, "only the young completed job should go")
	_, err = store.GetByID("pending")
	assert.NoError(t, err)
}

func TestReportJobStore_ListOrderAfterSweep(t *testing.T) {
	store := NewReportJobStore()
	now := time.Now()

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Insert(newTestJob(id, model.ReportKindAccounts))
		require.NoError(t, err)
	}
	_, err := store.Start("b", now)
	require.NoError(t, err)
	_, err = store.Complete(core.CompleteReportJobParams{ID: "b", CompletedAt: now.Add(-2 * time.Hour)})
	require.NoError(t, err)

	store.DeleteTerminalBefore(now.Add(-time.Hour))

	jobs := store.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, "c", jobs[1].ID)
}

func TestReportJobStore_ConcurrentInserts(t *testing.T) {
	store := NewReportJobStore()
	const n = 64

	var wg sync.WaitGroup
	counts := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracked, err := store.Insert(newTestJob(fmt.Sprintf("job-%d", i), model.ReportKindAccounts))
			assert.NoError(t, err)
			counts[i] = tracked
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.List(), n)

	// Tracked counts are a permutation of 1..n: every insert observed a
	// distinct registry size, i.e. inserts were linearizable.
	seen := make(map[int]bool, n)
	for _, c := range counts {
		assert.False(t, seen[c], "duplicate tracked count %d", c)
		seen[c] = true
		assert.GreaterOrEqual(t, c, 1)
		assert.LessOrEqual(t, c, n)
	}
}

func TestReportJobStore_NotFoundErrors(t *testing.T) {
	store := NewReportJobStore()

	_, err := store.Start("ghost", time.Now())
	assert.ErrorIs(t, err, ErrReportJobNotFound)
	_, err = store.Complete(core.CompleteReportJobParams{ID: "ghost"})
	assert.ErrorIs(t, err, ErrReportJobNotFound)
	_, err = store.Fail(core.FailReportJobParams{ID: "ghost"})
	assert.ErrorIs(t, err, ErrReportJobNotFound)
	assert.False(t, errors.Is(err, ErrInvalidTransition))
}

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/usecase"
	"crew-recruitment-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var queueNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newQueue(repo *MockQueueRepo, maxAttempts int) *usecase.RetryQueue {
	q := usecase.NewRetryQueueUsecase(repo, usecase.RetryPolicy{MaxAttempts: maxAttempts}, nil)
	q.SetClock(func() time.Time { return queueNow })
	return q
}

func TestNextRetryAt(t *testing.T) {
	t.Run("Should follow the schedule and repeat the last delay", func(t *testing.T) {
		want := []time.Duration{5 * time.Minute, 30 * time.Minute, 2 * time.Hour, 2 * time.Hour, 2 * time.Hour}
		prev := time.Duration(0)
		for i, d := range want {
			got := usecase.NextRetryAt(usecase.DefaultBackoff, i+1, queueNow).Sub(queueNow)
			assert.Equal(t, d, got, "attempt %d", i+1)
			assert.GreaterOrEqual(t, got, prev)
			prev = got
		}
	})
}

func TestEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("Should record the first attempt and schedule the next", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)

		var stored *domain.SyncQueueItem
		repo.On("Create", ctx, mock.AnythingOfType("*domain.SyncQueueItem")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.SyncQueueItem) }).
			Return(nil)

		item, err := q.Enqueue(ctx, "cand-1", domain.SyncTypeDocument, []byte(`{"document_id":"d-1"}`), errors.New("ats down"))
		require.NoError(t, err)
		require.Same(t, stored, item)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, domain.SyncStatusPending, item.Status)
		assert.Equal(t, 1, item.Attempts)
		assert.Equal(t, usecase.DefaultMaxAttempts, item.MaxAttempts)
		assert.Equal(t, queueNow.Add(5*time.Minute), item.NextRetryAt)
		assert.Equal(t, "ats down", *item.LastError)
	})

	t.Run("Should abandon at once when the budget is a single attempt", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 1)
		repo.On("Create", ctx, mock.MatchedBy(func(it *domain.SyncQueueItem) bool {
			return it.Status == domain.SyncStatusAbandoned && it.Attempts == 1 && it.MaxAttempts == 1
		})).Return(nil).Once()

		item, err := q.Enqueue(ctx, "cand-1", domain.SyncTypeCreate, nil, errors.New("ats down"))
		require.NoError(t, err)
		assert.Equal(t, domain.SyncStatusAbandoned, item.Status)
		repo.AssertExpectations(t)
	})

	t.Run("Should refuse malformed items", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)

		_, err := q.Enqueue(ctx, "", domain.SyncTypeCreate, nil, nil)
		assert.Error(t, err)
		_, err = q.Enqueue(ctx, "cand-1", domain.SyncType("merge"), nil, nil)
		assert.Error(t, err)
		_, err = q.Enqueue(ctx, "cand-1", domain.SyncTypeUpdate, []byte(`{"fields":`), nil)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDrain(t *testing.T) {
	ctx := context.Background()
	item := func(id string, attempts, maxAttempts int) domain.SyncQueueItem {
		return domain.SyncQueueItem{ID: id, CandidateID: "cand-1", SyncType: domain.SyncTypeCreate, Status: domain.SyncStatusProcessing, Attempts: attempts, MaxAttempts: maxAttempts}
	}

	t.Run("Should fail without a bound replayer", func(t *testing.T) {
		_, err := newQueue(new(MockQueueRepo), 0).Drain(ctx, 10)
		assert.Error(t, err)
	})

	t.Run("Should route each outcome to its terminal state", func(t *testing.T) {
		repo := new(MockQueueRepo)
		replayer := new(MockReplayer)
		q := newQueue(repo, 3)
		q.SetReplayer(replayer)

		ok, again, exhausted, rejected := item("ok", 1, 3), item("again", 1, 3), item("exhausted", 2, 3), item("rejected", 1, 3)
		repo.On("ClaimDue", ctx, queueNow, 50).Return([]domain.SyncQueueItem{ok, again, exhausted, rejected}, nil)
		repo.On("RenewClaim", ctx, mock.Anything, queueNow, queueNow).Return(nil).Times(4)

		replayer.On("Replay", ctx, ok).Return(domain.SyncErrorNone, nil)
		replayer.On("Replay", ctx, again).Return(domain.SyncErrorRetryable, errors.New("503"))
		replayer.On("Replay", ctx, exhausted).Return(domain.SyncErrorRetryable, errors.New("503"))
		replayer.On("Replay", ctx, rejected).Return(domain.SyncErrorPermanent, errors.New("422"))

		repo.On("MarkCompleted", ctx, "ok", queueNow).Return(nil).Once()
		repo.On("Reschedule", ctx, "again", 2, queueNow.Add(30*time.Minute), "503").Return(nil).Once()
		repo.On("MarkAbandoned", ctx, "exhausted", 3, "503", queueNow).Return(nil).Once()
		repo.On("MarkFailed", ctx, "rejected", 2, "422", queueNow).Return(nil).Once()

		stats, err := q.Drain(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, domain.DrainStats{Processed: 4, Succeeded: 1, Rescheduled: 1, Abandoned: 1, Failed: 1}, stats)
		repo.AssertExpectations(t)
	})

	t.Run("Should release claimed items when cancelled", func(t *testing.T) {
		repo := new(MockQueueRepo)
		replayer := new(MockReplayer)
		q := newQueue(repo, 0)
		q.SetReplayer(replayer)

		cctx, cancel := context.WithCancel(ctx)
		first, second := item("first", 1, 5), item("second", 2, 5)
		second.NextRetryAt = queueNow.Add(-time.Minute)
		repo.On("ClaimDue", cctx, queueNow, 2).Return([]domain.SyncQueueItem{first, second}, nil)
		repo.On("RenewClaim", cctx, "first", queueNow, queueNow).Return(nil).Once()
		replayer.On("Replay", cctx, first).Run(func(mock.Arguments) { cancel() }).Return(domain.SyncErrorNone, nil)
		repo.On("MarkCompleted", cctx, "first", queueNow).Return(nil)
		repo.On("Reschedule", mock.Anything, "second", 2, second.NextRetryAt, "").Return(nil).Once()

		stats, err := q.Drain(cctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Processed)
		repo.AssertExpectations(t)
		replayer.AssertNumberOfCalls(t, "Replay", 1)
	})

	t.Run("Should skip items whose claim was released meanwhile", func(t *testing.T) {
		repo := new(MockQueueRepo)
		replayer := new(MockReplayer)
		q := newQueue(repo, 3)
		q.SetReplayer(replayer)

		kept, lost := item("kept", 1, 3), item("lost", 1, 3)
		repo.On("ClaimDue", ctx, queueNow, 10).Return([]domain.SyncQueueItem{kept, lost}, nil)
		repo.On("RenewClaim", ctx, "kept", queueNow, queueNow).Return(nil).Once()
		repo.On("RenewClaim", ctx, "lost", queueNow, queueNow).Return(domain.ErrNotFound).Once()
		replayer.On("Replay", ctx, kept).Return(domain.SyncErrorNone, nil).Once()
		repo.On("MarkCompleted", ctx, "kept", queueNow).Return(nil).Once()

		stats, err := q.Drain(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, domain.DrainStats{Processed: 1, Succeeded: 1}, stats)
		repo.AssertExpectations(t)
		replayer.AssertNotCalled(t, "Replay", ctx, lost)
		repo.AssertNotCalled(t, "Reschedule", mock.Anything, "lost", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRequeue(t *testing.T) {
	ctx := context.Background()

	t.Run("Should requeue abandoned items now", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)
		repo.On("GetByID", ctx, "q-1").Return(&domain.SyncQueueItem{ID: "q-1", Status: domain.SyncStatusAbandoned}, nil)
		repo.On("Requeue", ctx, "q-1", queueNow).Return(nil).Once()

		require.NoError(t, q.Requeue(ctx, "q-1"))
		repo.AssertExpectations(t)
	})

	t.Run("Should refuse items that are still in flight", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)
		repo.On("GetByID", ctx, "q-2").Return(&domain.SyncQueueItem{ID: "q-2", Status: domain.SyncStatusPending}, nil)

		err := q.Requeue(ctx, "q-2")
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.Code)
	})

	t.Run("Should map unknown ids to not found", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)
		repo.On("GetByID", ctx, "nope").Return(nil, domain.ErrNotFound)

		err := q.Requeue(ctx, "nope")
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.Code)
	})
}

func TestQueueViews(t *testing.T) {
	ctx := context.Background()

	t.Run("Should page with defaults", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)
		repo.On("List", ctx, domain.SyncQueueFilter{Status: domain.SyncStatusFailed, Page: 1, PageSize: 20}).
			Return([]domain.SyncQueueItem{{ID: "q-1"}}, int64(41), nil)

		res, err := q.List(ctx, domain.SyncQueueFilter{Status: domain.SyncStatusFailed})
		require.NoError(t, err)
		assert.Equal(t, 3, res.TotalPages)
		assert.Len(t, res.Data, 1)
	})

	t.Run("Should reject unknown status filters", func(t *testing.T) {
		_, err := newQueue(new(MockQueueRepo), 0).List(ctx, domain.SyncQueueFilter{Status: "lost"})
		assert.Error(t, err)
	})

	t.Run("Should report every status", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)
		repo.On("CountByStatus", ctx).Return(map[domain.SyncStatus]int64{domain.SyncStatusPending: 3}, nil)

		stats, err := q.Stats(ctx)
		require.NoError(t, err)
		assert.Len(t, stats, 5)
		assert.Equal(t, int64(3), stats[domain.SyncStatusPending])
		assert.Equal(t, int64(0), stats[domain.SyncStatusAbandoned])
	})

	t.Run("Should export a workbook", func(t *testing.T) {
		repo := new(MockQueueRepo)
		q := newQueue(repo, 0)
		last := "status 503"
		repo.On("List", ctx, mock.Anything).Return([]domain.SyncQueueItem{
			{ID: "q-1", CandidateID: "cand-1", SyncType: domain.SyncTypeCreate, Status: domain.SyncStatusAbandoned, Attempts: 5, MaxAttempts: 5, LastError: &last},
		}, int64(1), nil).Once()

		data, name, err := q.Export(ctx, domain.SyncQueueFilter{})
		require.NoError(t, err)
		assert.Equal(t, "sync_queue_20250310_120000.xlsx", name)
		require.Greater(t, len(data), 2)
		assert.Equal(t, "PK", string(data[:2]))
	})
}

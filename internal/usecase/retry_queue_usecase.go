package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 5
	maxExportRows      = 5000
)

// DefaultBackoff is the delay before attempt n+1 after attempt n failed. Once
// attempts run past the schedule the last delay repeats.
var DefaultBackoff = []time.Duration{5 * time.Minute, 30 * time.Minute, 2 * time.Hour}

// RetryPolicy configures the retry queue.
type RetryPolicy struct {
	Backoff     []time.Duration
	MaxAttempts int
}

// Replayer runs a queued sync once. It is implemented by the sync dispatcher.
type Replayer interface {
	Replay(ctx context.Context, item domain.SyncQueueItem) (domain.SyncErrorClass, error)
}

// RetryQueue persists failed syncs and replays them with backoff.
type RetryQueue struct {
	repo     domain.SyncQueueRepository
	replayer Replayer
	policy   RetryPolicy
	log      *zap.Logger
	now      func() time.Time
}

// NewRetryQueueUsecase builds the queue. The replayer is bound later with
// SetReplayer because the dispatcher itself enqueues into this queue.
func NewRetryQueueUsecase(repo domain.SyncQueueRepository, policy RetryPolicy, log *zap.Logger) *RetryQueue {
	if len(policy.Backoff) == 0 {
		policy.Backoff = DefaultBackoff
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RetryQueue{repo: repo, policy: policy, log: log, now: time.Now}
}

func (q *RetryQueue) SetReplayer(r Replayer) {
	q.replayer = r
}

// SetClock replaces the wall clock, for tests and deterministic replays.
func (q *RetryQueue) SetClock(now func() time.Time) {
	q.now = now
}

// NextRetryAt returns when an item that has failed attempts times is due again.
func NextRetryAt(backoff []time.Duration, attempts int, from time.Time) time.Time {
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}
	idx := attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoff) {
		idx = len(backoff) - 1
	}
	return from.Add(backoff[idx])
}

// Enqueue records a failed first attempt.
func (q *RetryQueue) Enqueue(ctx context.Context, candidateID string, syncType domain.SyncType, payload json.RawMessage, cause error) (*domain.SyncQueueItem, error) {
	if strings.TrimSpace(candidateID) == "" {
		return nil, errors.New("enqueue: candidate id is required")
	}
	if !syncType.Valid() {
		return nil, fmt.Errorf("enqueue: unknown sync type %q", syncType)
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return nil, fmt.Errorf("enqueue: payload for %s is not valid JSON", syncType)
	}

	now := q.now().UTC()
	item := &domain.SyncQueueItem{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		SyncType:    syncType,
		Payload:     payload,
		Status:      domain.SyncStatusPending,
		Attempts:    1,
		MaxAttempts: q.policy.MaxAttempts,
		NextRetryAt: NextRetryAt(q.policy.Backoff, 1, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if cause != nil {
		msg := cause.Error()
		item.LastError = &msg
	}
	// A budget of one attempt is spent by the failure being recorded.
	if item.Attempts >= item.MaxAttempts {
		item.Status = domain.SyncStatusAbandoned
	}

	if err := q.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("enqueue %s for %s: %w", syncType, candidateID, err)
	}

	if item.Status == domain.SyncStatusAbandoned {
		q.log.Warn("sync abandoned on first failure",
			zap.String("queue_item_id", item.ID),
			zap.String("candidate_id", candidateID),
			zap.String("sync_type", string(syncType)),
			zap.Int("max_attempts", item.MaxAttempts),
		)
		return item, nil
	}
	q.log.Info("sync queued for retry",
		zap.String("queue_item_id", item.ID),
		zap.String("candidate_id", candidateID),
		zap.String("sync_type", string(syncType)),
		zap.Time("next_retry_at", item.NextRetryAt),
	)
	return item, nil
}

// Drain claims up to limit due items and replays them one by one.
func (q *RetryQueue) Drain(ctx context.Context, limit int) (domain.DrainStats, error) {
	var stats domain.DrainStats
	if q.replayer == nil {
		return stats, errors.New("drain: no replayer bound")
	}
	if limit <= 0 {
		limit = 50
	}

	claimedAt := q.now().UTC().Truncate(time.Microsecond)
	items, err := q.repo.ClaimDue(ctx, claimedAt, limit)
	if err != nil {
		return stats, fmt.Errorf("claim due items: %w", err)
	}

	for i, item := range items {
		if ctx.Err() != nil {
			q.release(context.WithoutCancel(ctx), items[i:])
			break
		}
		q.process(ctx, item, claimedAt, &stats)
	}

	if stats.Processed > 0 {
		q.log.Info("retry queue drained",
			zap.Int("processed", stats.Processed),
			zap.Int("succeeded", stats.Succeeded),
			zap.Int("rescheduled", stats.Rescheduled),
			zap.Int("failed", stats.Failed),
			zap.Int("abandoned", stats.Abandoned),
		)
	}
	return stats, nil
}

func (q *RetryQueue) process(ctx context.Context, item domain.SyncQueueItem, claimedAt time.Time, stats *domain.DrainStats) {
	log := q.log.With(
		zap.String("queue_item_id", item.ID),
		zap.String("candidate_id", item.CandidateID),
		zap.String("sync_type", string(item.SyncType)),
	)

	// The batch shares one claim time, so later items would look stale to
	// ReleaseStale while earlier ones replay.
	if err := q.repo.RenewClaim(ctx, item.ID, claimedAt, q.now().UTC().Truncate(time.Microsecond)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("queue item claim lost, skipping replay")
		} else {
			log.Error("failed to renew queue item claim", zap.Error(err))
		}
		return
	}
	stats.Processed++

	class, replayErr := q.replayer.Replay(ctx, item)
	now := q.now().UTC()

	if replayErr == nil {
		stats.Succeeded++
		if err := q.repo.MarkCompleted(ctx, item.ID, now); err != nil {
			log.Error("failed to mark queue item completed", zap.Error(err))
		}
		return
	}

	attempts := item.Attempts + 1
	maxAttempts := item.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.policy.MaxAttempts
	}
	msg := replayErr.Error()
	log = log.With(zap.Int("attempt", attempts), zap.String("error_class", string(class)), zap.Error(replayErr))

	var err error
	switch {
	case class != domain.SyncErrorRetryable:
		stats.Failed++
		log.Warn("sync replay failed permanently")
		err = q.repo.MarkFailed(ctx, item.ID, attempts, msg, now)
	case attempts >= maxAttempts:
		stats.Abandoned++
		log.Error("sync abandoned after exhausting retries", zap.Int("max_attempts", maxAttempts))
		err = q.repo.MarkAbandoned(ctx, item.ID, attempts, msg, now)
	default:
		stats.Rescheduled++
		next := NextRetryAt(q.policy.Backoff, attempts, now)
		log.Info("sync replay rescheduled", zap.Time("next_retry_at", next))
		err = q.repo.Reschedule(ctx, item.ID, attempts, next, msg)
	}
	if err != nil {
		log.Error("failed to record replay outcome", zap.NamedError("store_error", err))
	}
}

// release hands claimed but unprocessed items back without using an attempt.
func (q *RetryQueue) release(ctx context.Context, items []domain.SyncQueueItem) {
	for _, item := range items {
		last := ""
		if item.LastError != nil {
			last = *item.LastError
		}
		if err := q.repo.Reschedule(ctx, item.ID, item.Attempts, item.NextRetryAt, last); err != nil {
			q.log.Error("failed to release claimed item", zap.String("queue_item_id", item.ID), zap.Error(err))
		}
	}
}

// ReleaseStale returns items stuck in processing for longer than olderThan to
// pending. A crashed drain leaves items in that state.
func (q *RetryQueue) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = 15 * time.Minute
	}
	n, err := q.repo.ReleaseStale(ctx, q.now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("release stale items: %w", err)
	}
	if n > 0 {
		q.log.Warn("released stale processing items", zap.Int64("count", n))
	}
	return n, nil
}

func (q *RetryQueue) List(ctx context.Context, filter domain.SyncQueueFilter) (*domain.PaginatedResult[domain.SyncQueueItem], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if err := validateStatus(filter.Status); err != nil {
		return nil, err
	}

	items, total, err := q.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if items == nil {
		items = []domain.SyncQueueItem{}
	}

	return &domain.PaginatedResult[domain.SyncQueueItem]{
		Data:       items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}, nil
}

func (q *RetryQueue) Stats(ctx context.Context) (map[domain.SyncStatus]int64, error) {
	counts, err := q.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	for _, s := range []domain.SyncStatus{
		domain.SyncStatusPending, domain.SyncStatusProcessing, domain.SyncStatusCompleted,
		domain.SyncStatusFailed, domain.SyncStatusAbandoned,
	} {
		if _, ok := counts[s]; !ok {
			counts[s] = 0
		}
	}
	return counts, nil
}

// Requeue gives a failed or abandoned item a fresh retry budget.
func (q *RetryQueue) Requeue(ctx context.Context, id string) error {
	item, err := q.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperror.NotFound("Queue item not found")
		}
		return apperror.Internal(err)
	}
	if item.Status != domain.SyncStatusFailed && item.Status != domain.SyncStatusAbandoned {
		return apperror.Conflict(fmt.Sprintf("Only failed or abandoned items can be requeued (status: %s)", item.Status))
	}
	if err := q.repo.Requeue(ctx, id, q.now().UTC()); err != nil {
		return apperror.Internal(err)
	}
	q.log.Info("queue item requeued by operator", zap.String("queue_item_id", id), zap.String("candidate_id", item.CandidateID))
	return nil
}

// Export writes the filtered queue to an xlsx workbook.
func (q *RetryQueue) Export(ctx context.Context, filter domain.SyncQueueFilter) ([]byte, string, error) {
	if err := validateStatus(filter.Status); err != nil {
		return nil, "", err
	}

	var items []domain.SyncQueueItem
	filter.Page, filter.PageSize = 1, 100
	for len(items) < maxExportRows {
		page, _, err := q.repo.List(ctx, filter)
		if err != nil {
			return nil, "", apperror.Internal(err)
		}
		items = append(items, page...)
		if len(page) < filter.PageSize {
			break
		}
		filter.Page++
	}
	if len(items) > maxExportRows {
		items = items[:maxExportRows]
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sync Queue"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "CANDIDATE", "SYNC TYPE", "STATUS", "ATTEMPTS", "MAX ATTEMPTS", "NEXT RETRY AT", "LAST ERROR", "CREATED AT", "COMPLETED AT"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", endCell, headerStyle)

	for r, item := range items {
		lastError, completedAt := "", ""
		if item.LastError != nil {
			lastError = *item.LastError
		}
		if item.CompletedAt != nil {
			completedAt = item.CompletedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			item.ID, item.CandidateID, string(item.SyncType), string(item.Status),
			item.Attempts, item.MaxAttempts, item.NextRetryAt.UTC().Format(time.RFC3339),
			lastError, item.CreatedAt.UTC().Format(time.RFC3339), completedAt,
		}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 22)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}
	filename := fmt.Sprintf("sync_queue_%s.xlsx", q.now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func validateStatus(s domain.SyncStatus) error {
	switch s {
	case "", domain.SyncStatusPending, domain.SyncStatusProcessing, domain.SyncStatusCompleted,
		domain.SyncStatusFailed, domain.SyncStatusAbandoned:
		return nil
	}
	return apperror.BadRequest(fmt.Sprintf("Invalid status filter: %s", s))
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"crew-recruitment-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type syncQueueRepo struct {
	db *pgxpool.Pool
}

func NewSyncQueueRepository(db *pgxpool.Pool) domain.SyncQueueRepository {
	return &syncQueueRepo{db: db}
}

const queueColumns = `id, candidate_id, sync_type, payload, status, attempts, max_attempts,
	last_error, next_retry_at, created_at, updated_at, completed_at`

func scanQueueItem(row pgx.Row) (*domain.SyncQueueItem, error) {
	var it domain.SyncQueueItem
	var payload []byte
	err := row.Scan(
		&it.ID, &it.CandidateID, &it.SyncType, &payload, &it.Status, &it.Attempts, &it.MaxAttempts,
		&it.LastError, &it.NextRetryAt, &it.CreatedAt, &it.UpdatedAt, &it.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 && string(payload) != "null" {
		it.Payload = json.RawMessage(payload)
	}
	return &it, nil
}

func (r *syncQueueRepo) Create(ctx context.Context, item *domain.SyncQueueItem) error {
	query := `
		INSERT INTO sync_queue (id, candidate_id, sync_type, payload, status, attempts, max_attempts,
			last_error, next_retry_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	var payload any
	if len(item.Payload) > 0 {
		payload = string(item.Payload)
	}
	_, err := r.db.Exec(ctx, query,
		item.ID, item.CandidateID, item.SyncType, payload, item.Status, item.Attempts, item.MaxAttempts,
		item.LastError, item.NextRetryAt, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *syncQueueRepo) GetByID(ctx context.Context, id string) (*domain.SyncQueueItem, error) {
	it, err := scanQueueItem(r.db.QueryRow(ctx, `SELECT `+queueColumns+` FROM sync_queue WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return it, err
}

// ClaimDue moves due pending items to processing in one statement. SKIP
// LOCKED lets concurrent drains claim disjoint sets.
func (r *syncQueueRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.SyncQueueItem, error) {
	query := `
		UPDATE sync_queue SET status = 'processing', claimed_at = $1, updated_at = $1
		WHERE id IN (
			SELECT id FROM sync_queue
			WHERE status = 'pending' AND next_retry_at <= $1
			ORDER BY next_retry_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueColumns

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SyncQueueItem
	for rows.Next() {
		it, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *syncQueueRepo) RenewClaim(ctx context.Context, id string, claimedAt, at time.Time) error {
	query := `
		UPDATE sync_queue SET claimed_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'processing' AND claimed_at = $3`
	return r.execOne(ctx, query, at, id, claimedAt)
}

func (r *syncQueueRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE sync_queue SET status = 'completed', completed_at = $1, updated_at = $1, claimed_at = NULL WHERE id = $2`
	return r.execOne(ctx, query, at, id)
}

func (r *syncQueueRepo) MarkFailed(ctx context.Context, id string, attempts int, lastError string, at time.Time) error {
	return r.finish(ctx, domain.SyncStatusFailed, id, attempts, lastError, at)
}

func (r *syncQueueRepo) MarkAbandoned(ctx context.Context, id string, attempts int, lastError string, at time.Time) error {
	return r.finish(ctx, domain.SyncStatusAbandoned, id, attempts, lastError, at)
}

func (r *syncQueueRepo) finish(ctx context.Context, status domain.SyncStatus, id string, attempts int, lastError string, at time.Time) error {
	query := `
		UPDATE sync_queue SET status = $1, attempts = $2, last_error = $3, updated_at = $4, claimed_at = NULL
		WHERE id = $5`
	return r.execOne(ctx, query, status, attempts, lastError, at, id)
}

func (r *syncQueueRepo) Reschedule(ctx context.Context, id string, attempts int, nextRetryAt time.Time, lastError string) error {
	query := `
		UPDATE sync_queue SET status = 'pending', attempts = $1, next_retry_at = $2,
			last_error = NULLIF($3, ''), updated_at = NOW(), claimed_at = NULL
		WHERE id = $4`
	return r.execOne(ctx, query, attempts, nextRetryAt, lastError, id)
}

func (r *syncQueueRepo) ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sync_queue SET status = 'pending', claimed_at = NULL, updated_at = NOW()
		WHERE status = 'processing' AND claimed_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Requeue resets the attempt budget; the item counts as freshly failed once.
func (r *syncQueueRepo) Requeue(ctx context.Context, id string, nextRetryAt time.Time) error {
	query := `
		UPDATE sync_queue SET status = 'pending', attempts = 1, next_retry_at = $1,
			completed_at = NULL, updated_at = NOW()
		WHERE id = $2 AND status IN ('failed', 'abandoned')`
	return r.execOne(ctx, query, nextRetryAt, id)
}

func (r *syncQueueRepo) List(ctx context.Context, filter domain.SyncQueueFilter) ([]domain.SyncQueueItem, int64, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CandidateID != "" {
		args = append(args, filter.CandidateID)
		conds = append(conds, fmt.Sprintf("candidate_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sync_queue`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	if offset < 0 {
		offset = 0
	}
	args = append(args, filter.PageSize, offset)
	query := fmt.Sprintf(`SELECT %s FROM sync_queue%s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		queueColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.SyncQueueItem
	for rows.Next() {
		it, err := scanQueueItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *it)
	}
	return items, total, rows.Err()
}

func (r *syncQueueRepo) CountByStatus(ctx context.Context) (map[domain.SyncStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.SyncStatus]int64)
	for rows.Next() {
		var status domain.SyncStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *syncQueueRepo) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"crew-recruitment-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type applicationRepo struct {
	db *pgxpool.Pool
}

func NewApplicationRepository(db *pgxpool.Pool) domain.ApplicationRepository {
	return &applicationRepo{db: db}
}

// Create relies on the (job_id, candidate_id) unique constraint, so two
// concurrent applies for the same pair produce one row.
func (r *applicationRepo) Create(ctx context.Context, app *domain.Application) error {
	if app.Status == "" {
		app.Status = domain.ApplicationStatusApplied
	}
	now := time.Now()

	err := r.db.QueryRow(ctx, `
		INSERT INTO applications (job_id, candidate_id, cover_letter, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (job_id, candidate_id) DO NOTHING
		RETURNING id, created_at, updated_at`,
		app.JobID, app.CandidateID, app.CoverLetter, app.Status, now,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDuplicateApplication
	}
	return err
}

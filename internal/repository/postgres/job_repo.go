package postgres

import (
	"context"
	"errors"
	"strings"

	"crew-recruitment-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type jobRepo struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) domain.JobRepository {
	return &jobRepo{db: db}
}

const jobColumns = `id, title, description, yacht_name, requirements, itinerary, salary_min, salary_max,
	salary_currency, contract_type, holiday_package, start_date, status, vincere_id, created_at, updated_at`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	err := row.Scan(
		&job.ID, &job.Title, &job.Description, &job.YachtName, &job.Requirements, &job.Itinerary,
		&job.SalaryMin, &job.SalaryMax, &job.SalaryCurrency, &job.ContractType, &job.HolidayPackage,
		&job.StartDate, &job.Status, &job.VincereID, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(r.db.QueryRow(ctx, query, id))
}

func (r *jobRepo) GetByExternalRef(ctx context.Context, externalRef string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE vincere_id = $1`
	return scanJob(r.db.QueryRow(ctx, query, strings.TrimSpace(externalRef)))
}

// UpsertByExternalRef keys on vincere_id, which carries a unique index.
func (r *jobRepo) UpsertByExternalRef(ctx context.Context, job *domain.Job) error {
	if !job.HasExternalRef() {
		return errors.New("jobs: upsert requires an external reference")
	}
	query := `
		INSERT INTO jobs (title, description, yacht_name, requirements, itinerary, salary_min, salary_max,
			salary_currency, contract_type, holiday_package, start_date, status, vincere_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (vincere_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			yacht_name = EXCLUDED.yacht_name,
			requirements = EXCLUDED.requirements,
			itinerary = EXCLUDED.itinerary,
			salary_min = EXCLUDED.salary_min,
			salary_max = EXCLUDED.salary_max,
			salary_currency = EXCLUDED.salary_currency,
			contract_type = EXCLUDED.contract_type,
			holiday_package = EXCLUDED.holiday_package,
			start_date = EXCLUDED.start_date,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		job.Title, job.Description, job.YachtName, job.Requirements, job.Itinerary,
		job.SalaryMin, job.SalaryMax, job.SalaryCurrency, job.ContractType, job.HolidayPackage,
		job.StartDate, job.Status, strings.TrimSpace(*job.VincereID),
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

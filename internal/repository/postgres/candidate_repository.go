package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crew-recruitment-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type candidateRepository struct {
	db *pgxpool.Pool
}

func NewCandidateRepository(db *pgxpool.Pool) domain.CandidateRepository {
	return &candidateRepository{db: db}
}

const candidateColumns = `
	id, user_id, email, first_name, last_name, phone, date_of_birth, gender,
	nationality, second_nationality, marital_status, current_location,
	primary_position, position_category,
	preferred_yacht_types, preferred_yacht_size_min, preferred_yacht_size_max,
	preferred_contract_types, preferred_regions,
	desired_salary_min, desired_salary_max, salary_currency,
	has_stcw, has_eng1, highest_license, second_license, has_b1b2, has_schengen,
	is_smoker, has_visible_tattoos, is_couple, partner_name, partner_position,
	availability_status, available_from, photo_url, vincere_id, last_synced_at,
	created_at, updated_at`

func scanCandidate(row pgx.Row) (*domain.Candidate, error) {
	var c domain.Candidate
	var yachtTypes, contractTypes, regions []string

	err := row.Scan(
		&c.ID, &c.UserID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.DateOfBirth, &c.Gender,
		&c.Nationality, &c.SecondNationality, &c.MaritalStatus, &c.CurrentLocation,
		&c.PrimaryPosition, &c.PositionCategory,
		pq.Array(&yachtTypes), &c.PreferredYachtSizeMin, &c.PreferredYachtSizeMax,
		pq.Array(&contractTypes), pq.Array(&regions),
		&c.DesiredSalaryMin, &c.DesiredSalaryMax, &c.SalaryCurrency,
		&c.HasSTCW, &c.HasENG1, &c.HighestLicense, &c.SecondLicense, &c.HasB1B2, &c.HasSchengen,
		&c.IsSmoker, &c.HasVisibleTattoos, &c.IsCouple, &c.PartnerName, &c.PartnerPosition,
		&c.AvailabilityStatus, &c.AvailableFrom, &c.PhotoURL, &c.VincereID, &c.LastSyncedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.PreferredYachtTypes = yachtTypes
	c.PreferredContractTypes = contractTypes
	c.PreferredRegions = regions
	return &c, nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	return scanCandidate(r.db.QueryRow(ctx, query, id))
}

func (r *candidateRepository) GetByUserID(ctx context.Context, userID string) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE user_id = $1`
	return scanCandidate(r.db.QueryRow(ctx, query, userID))
}

func (r *candidateRepository) GetByEmail(ctx context.Context, email string) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE LOWER(email) = LOWER($1)`
	return scanCandidate(r.db.QueryRow(ctx, query, strings.TrimSpace(email)))
}

func (r *candidateRepository) SetExternalRef(ctx context.Context, id, externalRef string, syncedAt time.Time) error {
	query := `UPDATE candidates SET vincere_id = $1, last_synced_at = $2, updated_at = NOW() WHERE id = $3`
	return r.execOne(ctx, query, externalRef, syncedAt, id)
}

func (r *candidateRepository) TouchSynced(ctx context.Context, id string, syncedAt time.Time) error {
	return r.execOne(ctx, `UPDATE candidates SET last_synced_at = $1 WHERE id = $2`, syncedAt, id)
}

func (r *candidateRepository) UpdateAvailability(ctx context.Context, id string, status *string, availableFrom *time.Time) error {
	query := `
		UPDATE candidates SET
			availability_status = COALESCE($1, availability_status),
			available_from = COALESCE($2, available_from),
			updated_at = NOW()
		WHERE id = $3`
	return r.execOne(ctx, query, status, availableFrom, id)
}

// saveHydratedQuery only fills columns that are still empty, so an edit the
// user makes while hydration talks to the ATS survives. Ranges are filled as
// a unit, matching CandidatePatch.ApplyMissing.
const saveHydratedQuery = `
	UPDATE candidates SET
		first_name = COALESCE(NULLIF(first_name, ''), $1),
		last_name = COALESCE(NULLIF(last_name, ''), $2),
		phone = COALESCE(NULLIF(phone, ''), $3),
		date_of_birth = COALESCE(date_of_birth, $4),
		gender = COALESCE(NULLIF(gender, ''), $5),
		nationality = COALESCE(NULLIF(nationality, ''), $6),
		second_nationality = COALESCE(NULLIF(second_nationality, ''), $7),
		marital_status = COALESCE(NULLIF(marital_status, ''), $8),
		current_location = COALESCE(NULLIF(current_location, ''), $9),
		primary_position = COALESCE(NULLIF(primary_position, ''), $10),
		position_category = COALESCE(NULLIF(position_category, ''), $11),
		preferred_yacht_types = CASE WHEN cardinality(preferred_yacht_types) > 0 THEN preferred_yacht_types ELSE $12 END,
		preferred_yacht_size_min = CASE WHEN preferred_yacht_size_min IS NULL AND preferred_yacht_size_max IS NULL
			THEN $13 ELSE preferred_yacht_size_min END,
		preferred_yacht_size_max = CASE WHEN preferred_yacht_size_min IS NULL AND preferred_yacht_size_max IS NULL
			THEN $14 ELSE preferred_yacht_size_max END,
		preferred_contract_types = CASE WHEN cardinality(preferred_contract_types) > 0 THEN preferred_contract_types ELSE $15 END,
		preferred_regions = CASE WHEN cardinality(preferred_regions) > 0 THEN preferred_regions ELSE $16 END,
		desired_salary_min = CASE WHEN desired_salary_min IS NULL AND desired_salary_max IS NULL AND NULLIF(salary_currency, '') IS NULL
			THEN $17 ELSE desired_salary_min END,
		desired_salary_max = CASE WHEN desired_salary_min IS NULL AND desired_salary_max IS NULL AND NULLIF(salary_currency, '') IS NULL
			THEN $18 ELSE desired_salary_max END,
		salary_currency = CASE WHEN desired_salary_min IS NULL AND desired_salary_max IS NULL AND NULLIF(salary_currency, '') IS NULL
			THEN $19 ELSE salary_currency END,
		has_stcw = COALESCE(has_stcw, $20),
		has_eng1 = COALESCE(has_eng1, $21),
		highest_license = COALESCE(NULLIF(highest_license, ''), $22),
		second_license = COALESCE(NULLIF(second_license, ''), $23),
		has_b1b2 = COALESCE(has_b1b2, $24),
		has_schengen = COALESCE(has_schengen, $25),
		is_smoker = COALESCE(is_smoker, $26),
		has_visible_tattoos = COALESCE(has_visible_tattoos, $27),
		is_couple = COALESCE(is_couple, $28),
		partner_name = COALESCE(NULLIF(partner_name, ''), $29),
		partner_position = COALESCE(NULLIF(partner_position, ''), $30),
		availability_status = COALESCE(NULLIF(availability_status, ''), $31),
		available_from = COALESCE(available_from, $32),
		vincere_id = COALESCE(NULLIF(vincere_id, ''), $33),
		last_synced_at = $34,
		updated_at = NOW()
	WHERE id = $35`

// SaveHydrated persists a candidate after hydration merged remote data into
// it. Columns filled in the meantime keep their stored value.
func (r *candidateRepository) SaveHydrated(ctx context.Context, c *domain.Candidate) error {
	return r.execOne(ctx, saveHydratedQuery,
		c.FirstName, c.LastName, c.Phone, c.DateOfBirth, c.Gender,
		c.Nationality, c.SecondNationality, c.MaritalStatus, c.CurrentLocation,
		c.PrimaryPosition, c.PositionCategory,
		pq.Array(c.PreferredYachtTypes), c.PreferredYachtSizeMin, c.PreferredYachtSizeMax,
		pq.Array(c.PreferredContractTypes), pq.Array(c.PreferredRegions),
		c.DesiredSalaryMin, c.DesiredSalaryMax, c.SalaryCurrency,
		c.HasSTCW, c.HasENG1, c.HighestLicense, c.SecondLicense,
		c.HasB1B2, c.HasSchengen, c.IsSmoker, c.HasVisibleTattoos,
		c.IsCouple, c.PartnerName, c.PartnerPosition,
		c.AvailabilityStatus, c.AvailableFrom,
		c.VincereID, c.LastSyncedAt, c.ID,
	)
}

func (r *candidateRepository) SetPhotoURL(ctx context.Context, id, url string) error {
	return r.execOne(ctx, `UPDATE candidates SET photo_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
}

func (r *candidateRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("candidates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

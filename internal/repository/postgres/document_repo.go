package postgres

import (
	"context"
	"errors"
	"time"

	"crew-recruitment-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type documentRepo struct {
	db *pgxpool.Pool
}

func NewDocumentRepository(db *pgxpool.Pool) domain.DocumentRepository {
	return &documentRepo{db: db}
}

// GetByID leaves ExtractedText and Embedding empty; nothing downstream of a
// lookup reads them.
func (r *documentRepo) GetByID(ctx context.Context, id string) (*domain.CandidateDocument, error) {
	query := `
		SELECT id, candidate_id, type, file_name, storage_url, content_type, size_bytes,
			classify_confidence, classify_method, external_file_id, source, synced_at, created_at
		FROM candidate_documents WHERE id = $1`

	var d domain.CandidateDocument
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.CandidateID, &d.Type, &d.FileName, &d.StorageURL, &d.ContentType, &d.SizeBytes,
		&d.ClassifyConfidence, &d.ClassifyMethod, &d.ExternalFileID, &d.Source, &d.SyncedAt, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) Create(ctx context.Context, d *domain.CandidateDocument) error {
	query := `
		INSERT INTO candidate_documents (id, candidate_id, type, file_name, storage_url, content_type, size_bytes,
			classify_confidence, classify_method, extracted_text, embedding, external_file_id, source, synced_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	var embedding any
	if len(d.Embedding) > 0 {
		embedding = pq.Array(d.Embedding)
	}

	_, err := r.db.Exec(ctx, query,
		d.ID, d.CandidateID, d.Type, d.FileName, d.StorageURL, d.ContentType, d.SizeBytes,
		d.ClassifyConfidence, d.ClassifyMethod, d.ExtractedText, embedding, d.ExternalFileID,
		d.Source, d.SyncedAt, d.CreatedAt,
	)
	return err
}

func (r *documentRepo) MarkSynced(ctx context.Context, id string, syncedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE candidate_documents SET synced_at = $1 WHERE id = $2`, syncedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

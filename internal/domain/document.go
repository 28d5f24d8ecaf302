package domain

import (
	"context"
	"time"
)

// Document types produced by the classifier and stored on candidate documents.
const (
	DocumentTypeCV            = "cv"
	DocumentTypePhoto         = "photo"
	DocumentTypeMedical       = "medical"
	DocumentTypePassport      = "passport"
	DocumentTypeVisa          = "visa"
	DocumentTypeCertification = "certification"
	DocumentTypeReference     = "reference"
	DocumentTypeContract      = "contract"
	DocumentTypeOther         = "other"
)

// CandidateDocument is a file stored for a candidate.
type CandidateDocument struct {
	ID                 string     `json:"id"`
	CandidateID        string     `json:"candidate_id"`
	Type               string     `json:"type"`
	FileName           string     `json:"file_name"`
	StorageURL         string     `json:"storage_url"`
	ContentType        string     `json:"content_type"`
	SizeBytes          int64      `json:"size_bytes"`
	ClassifyConfidence *string    `json:"classify_confidence,omitempty"`
	ClassifyMethod     *string    `json:"classify_method,omitempty"`
	ExtractedText      *string    `json:"-"`
	Embedding          []float32  `json:"-"`
	ExternalFileID     *string    `json:"external_file_id,omitempty"`
	Source             string     `json:"source"`
	SyncedAt           *time.Time `json:"synced_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (*CandidateDocument, error)
	Create(ctx context.Context, doc *CandidateDocument) error
	MarkSynced(ctx context.Context, id string, syncedAt time.Time) error
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPayload marks an outbound request that could not be encoded.
// Resending it can never succeed.
var ErrInvalidPayload = errors.New("invalid ats payload")

// ============================================================================
// External System (ATS) records
// ============================================================================

// ExternalCandidate is the External System's basic candidate representation.
// Every field is omitted from outbound payloads when nil, so an absent local
// value never clears remote data.
type ExternalCandidate struct {
	ID               int64   `json:"id,omitempty" mapstructure:"id"`
	FirstName        *string `json:"first_name,omitempty" mapstructure:"first_name"`
	LastName         *string `json:"last_name,omitempty" mapstructure:"last_name"`
	Email            *string `json:"primary_email,omitempty" mapstructure:"primary_email"`
	Phone            *string `json:"mobile,omitempty" mapstructure:"mobile"`
	DateOfBirth      *string `json:"date_of_birth,omitempty" mapstructure:"date_of_birth"`
	Gender           *string `json:"gender,omitempty" mapstructure:"gender"`
	Nationality      *string `json:"nationality,omitempty" mapstructure:"nationality"`
	CurrentLocation  *string `json:"current_location_name,omitempty" mapstructure:"current_location_name"`
	JobTitle         *string `json:"job_title,omitempty" mapstructure:"job_title"`
	RegistrationDate *string `json:"registration_date,omitempty" mapstructure:"registration_date"`
}

// IsEmpty reports whether no basic field is set.
func (e ExternalCandidate) IsEmpty() bool {
	return e.FirstName == nil && e.LastName == nil && e.Email == nil && e.Phone == nil &&
		e.DateOfBirth == nil && e.Gender == nil && e.Nationality == nil &&
		e.CurrentLocation == nil && e.JobTitle == nil && e.RegistrationDate == nil
}

// ExternalPosition is the External System's job (position) representation.
type ExternalPosition struct {
	ID          int64   `json:"id" mapstructure:"id"`
	JobTitle    *string `json:"job_title,omitempty" mapstructure:"job_title"`
	Description *string `json:"public_description,omitempty" mapstructure:"public_description"`
	JobStatus   *string `json:"job_status,omitempty" mapstructure:"job_status"`
}

// CustomFieldValue is one External System custom field. Exactly one of
// Value, Codes or Date is set.
type CustomFieldValue struct {
	Key   string
	Value *string
	Codes []int
	Date  *time.Time
}

// ExternalPayload is the outbound shape produced by the Field Mapper.
type ExternalPayload struct {
	Basic  ExternalCandidate
	Custom []CustomFieldValue
	// PositionCode is the category code derived from the standardized position, 0 if unknown.
	PositionCode int
}

// ExternalFile is a file attached to an External System candidate.
type ExternalFile struct {
	ID          int64  `json:"id" mapstructure:"id"`
	FileName    string `json:"file_name" mapstructure:"file_name"`
	URL         string `json:"url" mapstructure:"url"`
	ContentType string `json:"content_type" mapstructure:"content_type"`
	OriginalCV  bool   `json:"original_cv" mapstructure:"original_cv"`
}

// FileUpload is an outbound file for the External System.
type FileUpload struct {
	FileName     string
	ContentType  string
	Content      []byte
	IsCV         bool
	DocumentType string
}

// Webhook is an External System event subscription.
type Webhook struct {
	ID     string   `json:"id,omitempty" mapstructure:"id"`
	URL    string   `json:"webhook_url" mapstructure:"webhook_url"`
	Events []string `json:"events" mapstructure:"events"`
}

// ATSError is returned by the ATS client for any non-2xx response.
type ATSError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *ATSError) Error() string {
	return fmt.Sprintf("ats %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ATSClient is the External System capability consumed by the sync engine.
// Authentication and token refresh are the implementation's concern.
type ATSClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	GetRaw(ctx context.Context, url string) ([]byte, error)
	Upload(ctx context.Context, path string, file FileUpload) error
	ListWebhooks(ctx context.Context) ([]Webhook, error)
	CreateWebhook(ctx context.Context, hook Webhook) (*Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
}

// ============================================================================
// Collaborators
// ============================================================================

// FileStorage is the generic object storage collaborator.
type FileStorage interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// TextExtractor pulls plain text out of documents.
type TextExtractor interface {
	CanExtract(fileName string) bool
	Extract(ctx context.Context, fileName string, data []byte) (string, error)
}

// Embedder turns text into a semantic embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Locker serialises work on a single candidate across processes.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx ends. The returned
	// func releases it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

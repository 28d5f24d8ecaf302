package domain

import (
	"context"
	"encoding/json"
	"time"
)

// SyncType identifies which dispatcher operation a request or queue item replays.
type SyncType string

const (
	SyncTypeCreate       SyncType = "create"
	SyncTypeUpdate       SyncType = "update"
	SyncTypeDocument     SyncType = "document"
	SyncTypeApplication  SyncType = "application"
	SyncTypeAvailability SyncType = "availability"
)

// Valid reports whether t is a known sync type.
func (t SyncType) Valid() bool {
	switch t {
	case SyncTypeCreate, SyncTypeUpdate, SyncTypeDocument, SyncTypeApplication, SyncTypeAvailability:
		return true
	}
	return false
}

// SyncStatus is the lifecycle state of a queue item.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusProcessing SyncStatus = "processing"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
	SyncStatusAbandoned  SyncStatus = "abandoned"
)

// SyncErrorClass is the taxonomy used to decide between retry and give-up.
type SyncErrorClass string

const (
	SyncErrorNone      SyncErrorClass = ""
	SyncErrorRetryable SyncErrorClass = "retryable"
	SyncErrorPermanent SyncErrorClass = "permanent"
	SyncErrorLocal     SyncErrorClass = "local"
)

// SyncQueueItem is a persisted failed sync attempt awaiting replay.
type SyncQueueItem struct {
	ID          string          `json:"id"`
	CandidateID string          `json:"candidate_id"`
	SyncType    SyncType        `json:"sync_type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      SyncStatus      `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   *string         `json:"last_error,omitempty"`
	NextRetryAt time.Time       `json:"next_retry_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Type-specific queue payloads.
type (
	UpdatePayload struct {
		Fields []string `json:"fields,omitempty"`
	}
	DocumentPayload struct {
		DocumentID string `json:"document_id"`
	}
	ApplicationPayload struct {
		JobID int64 `json:"job_id"`
	}
	AvailabilityPayload struct {
		AvailableFrom *time.Time `json:"available_from,omitempty"`
	}
)

// SyncRequest is one dispatch of a sync operation.
type SyncRequest struct {
	CandidateID string
	Type        SyncType
	Payload     json.RawMessage
}

// SyncResult is the structured outcome of a dispatcher operation. Dispatcher
// operations never return a Go error; failures are described here.
type SyncResult struct {
	Success     bool           `json:"success"`
	ExternalRef string         `json:"external_ref,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorClass  SyncErrorClass `json:"error_class,omitempty"`
	Queued      bool           `json:"queued"`
	QueueItemID string         `json:"queue_item_id,omitempty"`
	Skipped     bool           `json:"skipped,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// DrainStats summarises one drain run.
type DrainStats struct {
	Processed   int `json:"processed"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	Rescheduled int `json:"rescheduled"`
	Abandoned   int `json:"abandoned"`
}

// SyncQueueFilter selects queue items for operational views.
type SyncQueueFilter struct {
	Status      SyncStatus `form:"status"`
	CandidateID string     `form:"candidate_id"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// PaginatedResult is a page of items.
type PaginatedResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// SyncQueueRepository persists the retry queue.
type SyncQueueRepository interface {
	Create(ctx context.Context, item *SyncQueueItem) error
	GetByID(ctx context.Context, id string) (*SyncQueueItem, error)
	// ClaimDue moves up to limit due pending items to processing and returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]SyncQueueItem, error)
	// RenewClaim moves a held claim to at. ErrNotFound means the claim from
	// claimedAt was released or taken by another drain.
	RenewClaim(ctx context.Context, id string, claimedAt, at time.Time) error
	MarkCompleted(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string, at time.Time) error
	MarkAbandoned(ctx context.Context, id string, attempts int, lastError string, at time.Time) error
	Reschedule(ctx context.Context, id string, attempts int, nextRetryAt time.Time, lastError string) error
	ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error)
	Requeue(ctx context.Context, id string, nextRetryAt time.Time) error
	List(ctx context.Context, filter SyncQueueFilter) ([]SyncQueueItem, int64, error)
	CountByStatus(ctx context.Context) (map[SyncStatus]int64, error)
}

// SyncUsecase is the Sync Dispatcher.
type SyncUsecase interface {
	SyncCreate(ctx context.Context, candidateID string) SyncResult
	SyncUpdate(ctx context.Context, candidateID string, changedFields []string) SyncResult
	SyncDocument(ctx context.Context, candidateID, documentID string) SyncResult
	SyncApplication(ctx context.Context, candidateID string, jobID int64) SyncResult
	SyncAvailability(ctx context.Context, candidateID string, availableFrom *time.Time) SyncResult
	Dispatch(ctx context.Context, req SyncRequest) SyncResult
	DispatchAsync(ctx context.Context, req SyncRequest)
	// Replay runs a queued item once without enqueuing on failure.
	Replay(ctx context.Context, item SyncQueueItem) (SyncErrorClass, error)
	PullJob(ctx context.Context, externalJobID string) (*Job, error)
	// EnsureWebhook registers url for events unless an identical hook exists.
	EnsureWebhook(ctx context.Context, url string, events []string) (*Webhook, error)
	ListWebhooks(ctx context.Context) ([]Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
	IsConfigured() bool
}

// RetryQueueUsecase is the Retry Queue.
type RetryQueueUsecase interface {
	Enqueue(ctx context.Context, candidateID string, syncType SyncType, payload json.RawMessage, cause error) (*SyncQueueItem, error)
	Drain(ctx context.Context, limit int) (DrainStats, error)
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
	List(ctx context.Context, filter SyncQueueFilter) (*PaginatedResult[SyncQueueItem], error)
	Stats(ctx context.Context) (map[SyncStatus]int64, error)
	Requeue(ctx context.Context, id string) error
	Export(ctx context.Context, filter SyncQueueFilter) ([]byte, string, error)
}

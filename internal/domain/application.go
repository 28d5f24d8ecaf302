package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateApplication is returned when the candidate already applied to the job.
var ErrDuplicateApplication = errors.New("application already exists")

const (
	ApplicationStatusApplied  = "applied"
	ApplicationStatusReviewed = "reviewed"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

// Application links a candidate to a job. Applying to a job with an ATS
// reference also shortlists the candidate on the ATS job.
type Application struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"job_id"`
	CandidateID string    `json:"candidate_id"`
	CoverLetter *string   `json:"cover_letter,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ApplicationRepository interface {
	// Create fails with ErrDuplicateApplication when (job, candidate) exists.
	Create(ctx context.Context, app *Application) error
}

type ApplicationUsecase interface {
	ApplyToJob(ctx context.Context, userID string, jobID int64, coverLetter string) (*Application, error)
}

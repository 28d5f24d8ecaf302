package domain

import "context"

// Hydration sub-step status values.
const (
	StepCompleted = "completed"
	StepSkipped   = "skipped"
	StepFailed    = "failed"
)

// StepResult reports one hydration sub-step.
type StepResult struct {
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

// HydrationReport describes a single hydration pass.
type HydrationReport struct {
	CandidateID  string     `json:"candidate_id"`
	Needed       bool       `json:"needed"`
	Matched      bool       `json:"matched"`
	ExternalRef  string     `json:"external_ref,omitempty"`
	ProfileSaved bool       `json:"profile_saved"`
	FieldsFilled []string   `json:"fields_filled,omitempty"`
	CV           StepResult `json:"cv"`
	Photo        StepResult `json:"photo"`
	Error        string     `json:"error,omitempty"`
}

// HydrationUsecase is the first-login Hydration Workflow.
type HydrationUsecase interface {
	NeedsHydration(c *Candidate) bool
	Hydrate(ctx context.Context, candidateID string) HydrationReport
	HydrateUser(ctx context.Context, userID string) (HydrationReport, error)
}

package usecase

import (
	"context"
	"errors"
	"strings"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/apperror"
)

type applicationUsecase struct {
	applicationRepo domain.ApplicationRepository
	jobRepo         domain.JobRepository
	candidateRepo   domain.CandidateRepository
	sync            AsyncDispatcher
}

// NewApplicationUsecase creates a new application usecase
func NewApplicationUsecase(
	appRepo domain.ApplicationRepository,
	jobRepo domain.JobRepository,
	candidateRepo domain.CandidateRepository,
	sync AsyncDispatcher,
) domain.ApplicationUsecase {
	return &applicationUsecase{
		applicationRepo: appRepo,
		jobRepo:         jobRepo,
		candidateRepo:   candidateRepo,
		sync:            sync,
	}
}

// ApplyToJob records the application and shortlists the candidate on the
// ATS job in the background.
func (uc *applicationUsecase) ApplyToJob(ctx context.Context, userID string, jobID int64, coverLetter string) (*domain.Application, error) {
	job, err := uc.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Job not found")
		}
		return nil, apperror.Internal(err)
	}
	if job.Status != "open" {
		return nil, apperror.BadRequest("Cannot apply to a job that is not open")
	}

	candidate, err := uc.candidateRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.Forbidden("Complete your profile before applying")
		}
		return nil, apperror.Internal(err)
	}

	app := &domain.Application{
		JobID:       jobID,
		CandidateID: candidate.ID,
		Status:      domain.ApplicationStatusApplied,
	}
	if cl := strings.TrimSpace(coverLetter); cl != "" {
		app.CoverLetter = &cl
	}
	if err := uc.applicationRepo.Create(ctx, app); err != nil {
		if errors.Is(err, domain.ErrDuplicateApplication) {
			return nil, apperror.Conflict("You have already applied to this job")
		}
		return nil, apperror.Internal(err)
	}

	// Local-only jobs have nothing to shortlist on.
	if uc.sync != nil && job.HasExternalRef() {
		uc.sync.DispatchAsync(ctx, NewSyncRequest(candidate.ID, domain.SyncTypeApplication, domain.ApplicationPayload{JobID: jobID}))
	}
	return app, nil
}

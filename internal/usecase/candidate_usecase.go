package usecase

import (
	"context"
	"errors"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/apperror"
	"crew-recruitment-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// AsyncDispatcher submits background syncs. User-facing writes never wait on it.
type AsyncDispatcher interface {
	DispatchAsync(ctx context.Context, req domain.SyncRequest)
}

type candidateUsecase struct {
	repo     domain.CandidateRepository
	sync     AsyncDispatcher
	validate *validator.Validate
}

func NewCandidateUsecase(repo domain.CandidateRepository, sync AsyncDispatcher, validate *validator.Validate) domain.CandidateUsecase {
	return &candidateUsecase{
		repo:     repo,
		sync:     sync,
		validate: validate,
	}
}

func (u *candidateUsecase) GetProfile(ctx context.Context, userID string) (*domain.Candidate, error) {
	// Security: Ownership Check
	ctxUserID, ok := ctx.Value(domain.KeyUserID).(string)
	if !ok || ctxUserID == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}
	if ctxUserID != userID {
		return nil, apperror.Forbidden("You can only view your own profile")
	}

	c, err := u.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Candidate profile not found")
		}
		return nil, apperror.Internal(err)
	}
	return c, nil
}

// UpdateAvailability saves the change locally, then pushes it to the ATS in
// the background.
func (u *candidateUsecase) UpdateAvailability(ctx context.Context, userID string, req domain.AvailabilityUpdate) (*domain.Candidate, error) {
	c, err := u.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest(validation.Message(err))
	}
	if req.Status == nil && req.AvailableFrom == nil {
		return nil, apperror.BadRequest("Nothing to update")
	}

	if err := u.repo.UpdateAvailability(ctx, c.ID, req.Status, req.AvailableFrom); err != nil {
		return nil, apperror.Internal(err)
	}
	if req.Status != nil {
		c.AvailabilityStatus = req.Status
	}
	if req.AvailableFrom != nil {
		c.AvailableFrom = req.AvailableFrom
	}

	if u.sync != nil {
		if req.AvailableFrom != nil {
			u.sync.DispatchAsync(ctx, NewSyncRequest(c.ID, domain.SyncTypeAvailability, domain.AvailabilityPayload{AvailableFrom: req.AvailableFrom}))
		}
		if req.Status != nil {
			u.sync.DispatchAsync(ctx, NewSyncRequest(c.ID, domain.SyncTypeUpdate, domain.UpdatePayload{Fields: []string{domain.FieldAvailabilityStatus}}))
		}
	}
	return c, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/fieldmap"

	"go.uber.org/zap"
)

// ErrATSNotConfigured is returned by operations that need a live ATS.
var ErrATSNotConfigured = errors.New("ats integration is not configured")

// Enqueuer is the part of the retry queue the dispatcher writes to.
type Enqueuer interface {
	Enqueue(ctx context.Context, candidateID string, syncType domain.SyncType, payload json.RawMessage, cause error) (*domain.SyncQueueItem, error)
}

// SyncConfig tunes the dispatcher.
type SyncConfig struct {
	// RequestDelay is slept before every ATS call. Vincere rate limits per
	// tenant and publishes no quota, so the delay is advisory.
	RequestDelay time.Duration
	// AsyncTimeout bounds one background dispatch.
	AsyncTimeout time.Duration
	// LockTTL bounds how long a candidate stays locked if a process dies.
	LockTTL time.Duration
	// Workers and Backlog size the background dispatch pool.
	Workers int
	Backlog int
}

// SyncService is the sync dispatcher. Every operation returns a
// domain.SyncResult; failures never escape as Go errors.
type SyncService struct {
	ats        domain.ATSClient
	mapper     *fieldmap.Mapper
	candidates domain.CandidateRepository
	jobs       domain.JobRepository
	documents  domain.DocumentRepository
	storage    domain.FileStorage
	queue      Enqueuer
	locker     domain.Locker
	log        *zap.Logger
	cfg        SyncConfig
	now        func() time.Time

	mu      sync.RWMutex
	tasks   chan domain.SyncRequest
	stopped bool
	wg      sync.WaitGroup
}

// SyncDeps groups the dispatcher collaborators. ATS is nil when the
// deployment has no External System; every operation then succeeds as a no-op.
type SyncDeps struct {
	ATS        domain.ATSClient
	Mapper     *fieldmap.Mapper
	Candidates domain.CandidateRepository
	Jobs       domain.JobRepository
	Documents  domain.DocumentRepository
	Storage    domain.FileStorage
	Queue      Enqueuer
	Locker     domain.Locker
	Logger     *zap.Logger
}

func NewSyncUsecase(deps SyncDeps, cfg SyncConfig) *SyncService {
	if cfg.AsyncTimeout <= 0 {
		cfg.AsyncTimeout = 2 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = 256
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		ats:        deps.ATS,
		mapper:     deps.Mapper,
		candidates: deps.Candidates,
		jobs:       deps.Jobs,
		documents:  deps.Documents,
		storage:    deps.Storage,
		queue:      deps.Queue,
		locker:     deps.Locker,
		log:        log,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SetClock replaces the wall clock.
func (s *SyncService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SyncService) IsConfigured() bool {
	return s.ats != nil
}

func (s *SyncService) SyncCreate(ctx context.Context, candidateID string) domain.SyncResult {
	return s.Dispatch(ctx, domain.SyncRequest{CandidateID: candidateID, Type: domain.SyncTypeCreate})
}

func (s *SyncService) SyncUpdate(ctx context.Context, candidateID string, changedFields []string) domain.SyncResult {
	return s.Dispatch(ctx, newRequest(candidateID, domain.SyncTypeUpdate, domain.UpdatePayload{Fields: changedFields}))
}

func (s *SyncService) SyncDocument(ctx context.Context, candidateID, documentID string) domain.SyncResult {
	return s.Dispatch(ctx, newRequest(candidateID, domain.SyncTypeDocument, domain.DocumentPayload{DocumentID: documentID}))
}

func (s *SyncService) SyncApplication(ctx context.Context, candidateID string, jobID int64) domain.SyncResult {
	return s.Dispatch(ctx, newRequest(candidateID, domain.SyncTypeApplication, domain.ApplicationPayload{JobID: jobID}))
}

func (s *SyncService) SyncAvailability(ctx context.Context, candidateID string, availableFrom *time.Time) domain.SyncResult {
	return s.Dispatch(ctx, newRequest(candidateID, domain.SyncTypeAvailability, domain.AvailabilityPayload{AvailableFrom: availableFrom}))
}

// NewSyncRequest builds a request with a typed payload.
func NewSyncRequest(candidateID string, t domain.SyncType, payload any) domain.SyncRequest {
	return newRequest(candidateID, t, payload)
}

func newRequest(candidateID string, t domain.SyncType, payload any) domain.SyncRequest {
	req := domain.SyncRequest{CandidateID: candidateID, Type: t}
	if payload != nil {
		// The payload types are plain structs; Marshal cannot fail on them.
		req.Payload, _ = json.Marshal(payload)
	}
	return req
}

// Dispatch runs one sync inside the candidate's critical section. Retryable
// failures are written to the retry queue.
func (s *SyncService) Dispatch(ctx context.Context, req domain.SyncRequest) domain.SyncResult {
	if !s.IsConfigured() {
		return domain.SyncResult{Success: true, Skipped: true, Reason: ErrATSNotConfigured.Error()}
	}

	log := s.log.With(zap.String("candidate_id", req.CandidateID), zap.String("sync_type", string(req.Type)))

	out, err := s.locked(ctx, req)
	if err == nil {
		if out.skipped != "" {
			log.Info("sync skipped", zap.String("reason", out.skipped))
			return domain.SyncResult{Success: true, Skipped: true, Reason: out.skipped, ExternalRef: out.ref}
		}
		log.Info("sync completed", zap.String("external_ref", out.ref))
		return domain.SyncResult{Success: true, ExternalRef: out.ref}
	}

	class := ClassifyError(err)
	res := domain.SyncResult{Error: err.Error(), ErrorClass: class, ExternalRef: out.ref}
	log = log.With(zap.String("error_class", string(class)), zap.Error(err))

	if class != domain.SyncErrorRetryable || s.queue == nil {
		log.Warn("sync failed")
		return res
	}

	item, qerr := s.queue.Enqueue(context.WithoutCancel(ctx), req.CandidateID, req.Type, req.Payload, err)
	if qerr != nil {
		log.Error("sync failed and could not be queued", zap.NamedError("queue_error", qerr))
		return res
	}
	res.QueueItemID = item.ID
	if item.Status == domain.SyncStatusAbandoned {
		log.Warn("sync failed, retry budget exhausted", zap.String("queue_item_id", item.ID))
		return res
	}
	log.Warn("sync failed, queued for retry", zap.String("queue_item_id", item.ID))
	res.Queued = true
	return res
}

// Replay runs a queued item once. It never enqueues; the queue owns the
// outcome.
func (s *SyncService) Replay(ctx context.Context, item domain.SyncQueueItem) (domain.SyncErrorClass, error) {
	if !s.IsConfigured() {
		return domain.SyncErrorNone, nil
	}
	out, err := s.locked(ctx, domain.SyncRequest{CandidateID: item.CandidateID, Type: item.SyncType, Payload: item.Payload})
	if err != nil {
		return ClassifyError(err), err
	}
	if out.skipped != "" {
		s.log.Info("replay skipped", zap.String("queue_item_id", item.ID), zap.String("reason", out.skipped))
	}
	return domain.SyncErrorNone, nil
}

// Start launches the background dispatch workers used by DispatchAsync.
func (s *SyncService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks != nil || s.stopped {
		return
	}
	s.tasks = make(chan domain.SyncRequest, s.cfg.Backlog)
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(s.tasks)
	}
}

// Shutdown stops accepting work and waits for in-flight dispatches.
func (s *SyncService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.tasks != nil {
			close(s.tasks)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncService) worker(tasks <-chan domain.SyncRequest) {
	defer s.wg.Done()
	for req := range tasks {
		s.runDetached(req)
	}
}

// DispatchAsync hands req to the background pool and returns immediately.
// When the pool is full or shut down the request goes straight to the retry
// queue, so it is never lost.
func (s *SyncService) DispatchAsync(ctx context.Context, req domain.SyncRequest) {
	if !s.IsConfigured() {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tasks == nil && !s.stopped {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runDetached(req)
		}()
		return
	}
	if !s.stopped {
		select {
		case s.tasks <- req:
			return
		default:
		}
	}

	s.spill(context.WithoutCancel(ctx), req)
}

func (s *SyncService) spill(ctx context.Context, req domain.SyncRequest) {
	if s.queue == nil {
		s.log.Error("dispatch backlog full, sync dropped", zap.String("candidate_id", req.CandidateID))
		return
	}
	if _, err := s.queue.Enqueue(ctx, req.CandidateID, req.Type, req.Payload, errors.New("dispatch backlog full")); err != nil {
		s.log.Error("dispatch backlog full and queueing failed",
			zap.String("candidate_id", req.CandidateID),
			zap.String("sync_type", string(req.Type)),
			zap.Error(err),
		)
	}
}

func (s *SyncService) runDetached(req domain.SyncRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AsyncTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("background sync panicked",
				zap.String("candidate_id", req.CandidateID),
				zap.Any("panic", r),
			)
		}
	}()
	s.Dispatch(ctx, req)
}

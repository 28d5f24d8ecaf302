package v1_test

import (
	"context"
	"encoding/json"
	"time"

	"crew-recruitment-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockSyncUC struct{ mock.Mock }

func (m *MockSyncUC) SyncCreate(ctx context.Context, candidateID string) domain.SyncResult {
	return m.Called(ctx, candidateID).Get(0).(domain.SyncResult)
}
func (m *MockSyncUC) SyncUpdate(ctx context.Context, candidateID string, fields []string) domain.SyncResult {
	return m.Called(ctx, candidateID, fields).Get(0).(domain.SyncResult)
}
func (m *MockSyncUC) SyncDocument(ctx context.Context, candidateID, documentID string) domain.SyncResult {
	return m.Called(ctx, candidateID, documentID).Get(0).(domain.SyncResult)
}
func (m *MockSyncUC) SyncApplication(ctx context.Context, candidateID string, jobID int64) domain.SyncResult {
	return m.Called(ctx, candidateID, jobID).Get(0).(domain.SyncResult)
}
func (m *MockSyncUC) SyncAvailability(ctx context.Context, candidateID string, availableFrom *time.Time) domain.SyncResult {
	return m.Called(ctx, candidateID, availableFrom).Get(0).(domain.SyncResult)
}
func (m *MockSyncUC) Dispatch(ctx context.Context, req domain.SyncRequest) domain.SyncResult {
	return m.Called(ctx, req).Get(0).(domain.SyncResult)
}
func (m *MockSyncUC) DispatchAsync(ctx context.Context, req domain.SyncRequest) { m.Called(ctx, req) }
func (m *MockSyncUC) Replay(ctx context.Context, item domain.SyncQueueItem) (domain.SyncErrorClass, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.SyncErrorClass), args.Error(1)
}
func (m *MockSyncUC) PullJob(ctx context.Context, externalJobID string) (*domain.Job, error) {
	args := m.Called(ctx, externalJobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}
func (m *MockSyncUC) EnsureWebhook(ctx context.Context, url string, events []string) (*domain.Webhook, error) {
	args := m.Called(ctx, url, events)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Webhook), args.Error(1)
}
func (m *MockSyncUC) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	args := m.Called(ctx)
	hooks, _ := args.Get(0).([]domain.Webhook)
	return hooks, args.Error(1)
}
func (m *MockSyncUC) DeleteWebhook(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockSyncUC) IsConfigured() bool { return m.Called().Bool(0) }

type MockQueueUC struct{ mock.Mock }

func (m *MockQueueUC) Enqueue(ctx context.Context, candidateID string, syncType domain.SyncType, payload json.RawMessage, cause error) (*domain.SyncQueueItem, error) {
	args := m.Called(ctx, candidateID, syncType, payload, cause)
	item, _ := args.Get(0).(*domain.SyncQueueItem)
	return item, args.Error(1)
}
func (m *MockQueueUC) Drain(ctx context.Context, limit int) (domain.DrainStats, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(domain.DrainStats), args.Error(1)
}
func (m *MockQueueUC) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQueueUC) List(ctx context.Context, filter domain.SyncQueueFilter) (*domain.PaginatedResult[domain.SyncQueueItem], error) {
	args := m.Called(ctx, filter)
	res, _ := args.Get(0).(*domain.PaginatedResult[domain.SyncQueueItem])
	return res, args.Error(1)
}
func (m *MockQueueUC) Stats(ctx context.Context) (map[domain.SyncStatus]int64, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(map[domain.SyncStatus]int64)
	return stats, args.Error(1)
}
func (m *MockQueueUC) Requeue(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockQueueUC) Export(ctx context.Context, filter domain.SyncQueueFilter) ([]byte, string, error) {
	args := m.Called(ctx, filter)
	data, _ := args.Get(0).([]byte)
	return data, args.String(1), args.Error(2)
}

type MockCandidateUC struct{ mock.Mock }

func (m *MockCandidateUC) GetProfile(ctx context.Context, userID string) (*domain.Candidate, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(*domain.Candidate)
	return c, args.Error(1)
}
func (m *MockCandidateUC) UpdateAvailability(ctx context.Context, userID string, req domain.AvailabilityUpdate) (*domain.Candidate, error) {
	args := m.Called(ctx, userID, req)
	c, _ := args.Get(0).(*domain.Candidate)
	return c, args.Error(1)
}

type MockApplicationUC struct{ mock.Mock }

func (m *MockApplicationUC) ApplyToJob(ctx context.Context, userID string, jobID int64, coverLetter string) (*domain.Application, error) {
	args := m.Called(ctx, userID, jobID, coverLetter)
	app, _ := args.Get(0).(*domain.Application)
	return app, args.Error(1)
}

type MockHydrationUC struct{ mock.Mock }

func (m *MockHydrationUC) NeedsHydration(c *domain.Candidate) bool { return m.Called(c).Bool(0) }
func (m *MockHydrationUC) Hydrate(ctx context.Context, candidateID string) domain.HydrationReport {
	return m.Called(ctx, candidateID).Get(0).(domain.HydrationReport)
}
func (m *MockHydrationUC) HydrateUser(ctx context.Context, userID string) (domain.HydrationReport, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.HydrationReport), args.Error(1)
}

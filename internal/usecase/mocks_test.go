package usecase_test

import (
	"context"
	"encoding/json"
	"time"

	"crew-recruitment-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Mock Repositories
type MockCandidateRepo struct {
	mock.Mock
}

func (m *MockCandidateRepo) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepo) GetByUserID(ctx context.Context, userID string) (*domain.Candidate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepo) GetByEmail(ctx context.Context, email string) (*domain.Candidate, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepo) SetExternalRef(ctx context.Context, id, externalRef string, syncedAt time.Time) error {
	return m.Called(ctx, id, externalRef, syncedAt).Error(0)
}

func (m *MockCandidateRepo) TouchSynced(ctx context.Context, id string, syncedAt time.Time) error {
	return m.Called(ctx, id, syncedAt).Error(0)
}

func (m *MockCandidateRepo) UpdateAvailability(ctx context.Context, id string, status *string, availableFrom *time.Time) error {
	return m.Called(ctx, id, status, availableFrom).Error(0)
}

func (m *MockCandidateRepo) SaveHydrated(ctx context.Context, c *domain.Candidate) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCandidateRepo) SetPhotoURL(ctx context.Context, id, url string) error {
	return m.Called(ctx, id, url).Error(0)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockJobRepo) GetByExternalRef(ctx context.Context, externalRef string) (*domain.Job, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockJobRepo) UpsertByExternalRef(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}

type MockApplicationRepo struct {
	mock.Mock
}

func (m *MockApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	return m.Called(ctx, app).Error(0)
}

type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) GetByID(ctx context.Context, id string) (*domain.CandidateDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateDocument), args.Error(1)
}

func (m *MockDocumentRepo) Create(ctx context.Context, doc *domain.CandidateDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepo) MarkSynced(ctx context.Context, id string, syncedAt time.Time) error {
	return m.Called(ctx, id, syncedAt).Error(0)
}

type MockQueueRepo struct {
	mock.Mock
}

func (m *MockQueueRepo) Create(ctx context.Context, item *domain.SyncQueueItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockQueueRepo) GetByID(ctx context.Context, id string) (*domain.SyncQueueItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncQueueItem), args.Error(1)
}

func (m *MockQueueRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.SyncQueueItem, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncQueueItem), args.Error(1)
}

func (m *MockQueueRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockQueueRepo) MarkFailed(ctx context.Context, id string, attempts int, lastError string, at time.Time) error {
	return m.Called(ctx, id, attempts, lastError, at).Error(0)
}

func (m *MockQueueRepo) MarkAbandoned(ctx context.Context, id string, attempts int, lastError string, at time.Time) error {
	return m.Called(ctx, id, attempts, lastError, at).Error(0)
}

func (m *MockQueueRepo) Reschedule(ctx context.Context, id string, attempts int, nextRetryAt time.Time, lastError string) error {
	return m.Called(ctx, id, attempts, nextRetryAt, lastError).Error(0)
}

func (m *MockQueueRepo) RenewClaim(ctx context.Context, id string, claimedAt, at time.Time) error {
	return m.Called(ctx, id, claimedAt, at).Error(0)
}

func (m *MockQueueRepo) ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueRepo) Requeue(ctx context.Context, id string, nextRetryAt time.Time) error {
	return m.Called(ctx, id, nextRetryAt).Error(0)
}

func (m *MockQueueRepo) List(ctx context.Context, filter domain.SyncQueueFilter) ([]domain.SyncQueueItem, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.SyncQueueItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockQueueRepo) CountByStatus(ctx context.Context) (map[domain.SyncStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.SyncStatus]int64), args.Error(1)
}

// Mock collaborators
type MockATS struct {
	mock.Mock
}

func (m *MockATS) Get(ctx context.Context, path string, out any) error {
	return m.Called(ctx, path, out).Error(0)
}

func (m *MockATS) Post(ctx context.Context, path string, body, out any) error {
	return m.Called(ctx, path, body, out).Error(0)
}

func (m *MockATS) Put(ctx context.Context, path string, body, out any) error {
	return m.Called(ctx, path, body, out).Error(0)
}

func (m *MockATS) Patch(ctx context.Context, path string, body, out any) error {
	return m.Called(ctx, path, body, out).Error(0)
}

func (m *MockATS) GetRaw(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockATS) Upload(ctx context.Context, path string, file domain.FileUpload) error {
	return m.Called(ctx, path, file).Error(0)
}

func (m *MockATS) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Webhook), args.Error(1)
}

func (m *MockATS) CreateWebhook(ctx context.Context, hook domain.Webhook) (*domain.Webhook, error) {
	args := m.Called(ctx, hook)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Webhook), args.Error(1)
}

func (m *MockATS) DeleteWebhook(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, path, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Download(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, candidateID string, syncType domain.SyncType, payload json.RawMessage, cause error) (*domain.SyncQueueItem, error) {
	args := m.Called(ctx, candidateID, syncType, payload, cause)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncQueueItem), args.Error(1)
}

type MockReplayer struct {
	mock.Mock
}

func (m *MockReplayer) Replay(ctx context.Context, item domain.SyncQueueItem) (domain.SyncErrorClass, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.SyncErrorClass), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchAsync(ctx context.Context, req domain.SyncRequest) {
	m.Called(ctx, req)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(v int) *int       { return &v }

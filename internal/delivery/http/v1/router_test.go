package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crew-recruitment-backend/internal/delivery/http/middleware"
	"crew-recruitment-backend/internal/delivery/http/response"
	v1 "crew-recruitment-backend/internal/delivery/http/v1"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/usecase"
	"crew-recruitment-backend/pkg/apperror"
	"crew-recruitment-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testJWTSecret  = "jwt-secret"
	testCronSecret = "cron-secret"
)

type routerFixture struct {
	sync       *MockSyncUC
	queue      *MockQueueUC
	candidates *MockCandidateUC
	apps       *MockApplicationUC
	hydration  *MockHydrationUC
	engine     *gin.Engine
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &routerFixture{
		sync:       new(MockSyncUC),
		queue:      new(MockQueueUC),
		candidates: new(MockCandidateUC),
		apps:       new(MockApplicationUC),
		hydration:  new(MockHydrationUC),
	}
	log := zap.NewNop()
	f.engine = v1.NewRouter(v1.RouterDeps{
		CandidateUC:   f.candidates,
		ApplicationUC: f.apps,
		HydrationUC:   f.hydration,
		SyncUC:        f.sync,
		QueueUC:       f.queue,
		Verifier:      auth.NewVerifier(testJWTSecret, nil),
		RateLimiter:   middleware.NewRateLimiter(nil, log),
		Logger:        log,
		CronSecret:    testCronSecret,
		DrainLimit:    25,
		StaleAfter:    15 * time.Minute,
	})
	t.Cleanup(func() {
		f.sync.AssertExpectations(t)
		f.queue.AssertExpectations(t)
		f.candidates.AssertExpectations(t)
		f.apps.AssertExpectations(t)
		f.hydration.AssertExpectations(t)
	})
	return f
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["app_metadata"] = map[string]any{"role": role}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func (f *routerFixture) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCronSyncRetry(t *testing.T) {
	t.Run("Should reject requests without the cron secret", func(t *testing.T) {
		f := newRouterFixture(t)
		w := f.do(http.MethodPost, "/v1/cron/sync-retry", "wrong", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should release stale claims then drain with the default limit", func(t *testing.T) {
		f := newRouterFixture(t)
		f.queue.On("ReleaseStale", mock.Anything, 15*time.Minute).Return(int64(2), nil).Once()
		f.queue.On("Drain", mock.Anything, 25).Return(domain.DrainStats{Processed: 3, Succeeded: 3}, nil).Once()

		w := f.do(http.MethodPost, "/v1/cron/sync-retry", testCronSecret, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.EqualValues(t, 2, data["released"])
		assert.EqualValues(t, 3, data["stats"].(map[string]any)["succeeded"])
	})

	t.Run("Should honour and validate the limit parameter", func(t *testing.T) {
		f := newRouterFixture(t)
		f.queue.On("ReleaseStale", mock.Anything, mock.Anything).Return(int64(0), nil).Once()
		f.queue.On("Drain", mock.Anything, 5).Return(domain.DrainStats{}, nil).Once()

		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/cron/sync-retry?limit=5", testCronSecret, nil).Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/v1/cron/sync-retry?limit=abc", testCronSecret, nil).Code)
	})
}

func TestAdminSync(t *testing.T) {
	t.Run("Should require a token and the admin role", func(t *testing.T) {
		f := newRouterFixture(t)
		assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/v1/admin/sync/candidates/c1/create", "", nil).Code)
		assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/v1/admin/sync/candidates/c1/create", token(t, "u1", ""), nil).Code)
	})

	t.Run("Should map dispatcher outcomes to status codes", func(t *testing.T) {
		f := newRouterFixture(t)
		admin := token(t, "ops", "admin")

		f.sync.On("SyncCreate", mock.Anything, "c1").Return(domain.SyncResult{Success: true, ExternalRef: "55"}).Once()
		f.sync.On("SyncCreate", mock.Anything, "c2").Return(domain.SyncResult{
			Error: "status 503", ErrorClass: domain.SyncErrorRetryable, Queued: true, QueueItemID: "q1",
		}).Once()
		f.sync.On("SyncCreate", mock.Anything, "c3").Return(domain.SyncResult{
			Error: "status 422", ErrorClass: domain.SyncErrorPermanent,
		}).Once()
		f.sync.On("SyncCreate", mock.Anything, "c4").Return(domain.SyncResult{
			Error: "resource not found", ErrorClass: domain.SyncErrorLocal,
		}).Once()

		w := f.do(http.MethodPost, "/v1/admin/sync/candidates/c1/create", admin, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "55", decode(t, w)["data"].(map[string]any)["external_ref"])

		assert.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/v1/admin/sync/candidates/c2/create", admin, nil).Code)

		w = f.do(http.MethodPost, "/v1/admin/sync/candidates/c3/create", admin, nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "permanent", decode(t, w)["error"].(map[string]any)["error_class"])

		assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/v1/admin/sync/candidates/c4/create", admin, nil).Code)
	})

	t.Run("Should pass changed fields and accept an empty body", func(t *testing.T) {
		f := newRouterFixture(t)
		admin := token(t, "ops", "admin")
		f.sync.On("SyncUpdate", mock.Anything, "c1", []string{"phone"}).Return(domain.SyncResult{Success: true}).Once()
		f.sync.On("SyncUpdate", mock.Anything, "c1", []string(nil)).Return(domain.SyncResult{Success: true}).Once()

		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/admin/sync/candidates/c1/update", admin,
			map[string]any{"fields": []string{"phone"}}).Code)
		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/admin/sync/candidates/c1/update", admin, nil).Code)
	})

	t.Run("Should validate the job id of an application sync", func(t *testing.T) {
		f := newRouterFixture(t)
		admin := token(t, "ops", "admin")
		f.sync.On("SyncApplication", mock.Anything, "c1", int64(9)).Return(domain.SyncResult{Success: true, Skipped: true}).Once()

		w := f.do(http.MethodPost, "/v1/admin/sync/candidates/c1/applications/9", admin, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Sync skipped", decode(t, w)["message"])
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/v1/admin/sync/candidates/c1/applications/x", admin, nil).Code)
	})

	t.Run("Should map job pull failures", func(t *testing.T) {
		f := newRouterFixture(t)
		admin := token(t, "ops", "admin")
		f.sync.On("PullJob", mock.Anything, "1").Return(nil, usecase.ErrATSNotConfigured).Once()
		f.sync.On("PullJob", mock.Anything, "2").Return(nil, &domain.ATSError{StatusCode: 404, Method: "GET", Path: "/position/2"}).Once()
		f.sync.On("PullJob", mock.Anything, "3").Return(&domain.Job{ID: 7, Title: "Deckhand"}, nil).Once()

		assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodPost, "/v1/admin/sync/jobs/1/pull", admin, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/v1/admin/sync/jobs/2/pull", admin, nil).Code)
		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/admin/sync/jobs/3/pull", admin, nil).Code)
	})

	t.Run("Should validate webhook registrations", func(t *testing.T) {
		f := newRouterFixture(t)
		admin := token(t, "ops", "admin")
		events := []string{"candidate.created"}
		f.sync.On("EnsureWebhook", mock.Anything, "https://hooks.example.com/ats", events).
			Return(&domain.Webhook{ID: "w1", URL: "https://hooks.example.com/ats", Events: events}, nil).Once()

		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/v1/admin/sync/webhooks", admin,
			map[string]any{"url": "not a url", "events": events}).Code)
		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/admin/sync/webhooks", admin,
			map[string]any{"url": "https://hooks.example.com/ats", "events": events}).Code)
	})
}

func TestSyncQueueRoutes(t *testing.T) {
	t.Run("Should parse the list filter", func(t *testing.T) {
		f := newRouterFixture(t)
		want := domain.SyncQueueFilter{Status: domain.SyncStatusAbandoned, Page: 2, PageSize: 50}
		f.queue.On("List", mock.Anything, want).Return(&domain.PaginatedResult[domain.SyncQueueItem]{
			Data: []domain.SyncQueueItem{}, Total: 51, Page: 2, PageSize: 50, TotalPages: 2,
		}, nil).Once()

		w := f.do(http.MethodGet, "/v1/admin/sync-queue?status=abandoned&page=2&page_size=50", token(t, "ops", "admin"), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.Meta)
		assert.Equal(t, response.Meta{Total: 51, Page: 2, PageSize: 50, TotalPages: 2}, *body.Meta)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("Should stream the export as an attachment", func(t *testing.T) {
		f := newRouterFixture(t)
		f.queue.On("Export", mock.Anything, mock.Anything).Return([]byte("PK\x03\x04"), "sync_queue_20250310_120000.xlsx", nil).Once()

		w := f.do(http.MethodGet, "/v1/admin/sync-queue/export", token(t, "ops", "admin"), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "attachment; filename=sync_queue_20250310_120000.xlsx", w.Header().Get("Content-Disposition"))
		assert.Equal(t, []byte("PK\x03\x04"), w.Body.Bytes())
	})

	t.Run("Should surface requeue conflicts", func(t *testing.T) {
		f := newRouterFixture(t)
		f.queue.On("Requeue", mock.Anything, "q1").Return(apperror.Conflict("Only failed or abandoned items can be requeued")).Once()

		w := f.do(http.MethodPost, "/v1/admin/sync-queue/q1/requeue", token(t, "ops", "admin"), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCandidateRoutes(t *testing.T) {
	userInContext := mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Value(domain.KeyUserID) == "u1"
	})

	t.Run("Should pass the caller identity through the request context", func(t *testing.T) {
		f := newRouterFixture(t)
		f.candidates.On("UpdateAvailability", userInContext, "u1", mock.MatchedBy(func(req domain.AvailabilityUpdate) bool {
			return req.Status != nil && *req.Status == "available"
		})).Return(&domain.Candidate{ID: "c1"}, nil).Once()

		w := f.do(http.MethodPatch, "/v1/candidates/me/availability", token(t, "u1", ""), map[string]any{"status": "available"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should report a hydration pass", func(t *testing.T) {
		f := newRouterFixture(t)
		f.hydration.On("HydrateUser", userInContext, "u1").Return(domain.HydrationReport{
			CandidateID: "c1", Needed: true, Matched: true, ProfileSaved: true,
		}, nil).Once()

		w := f.do(http.MethodPost, "/v1/candidates/me/hydrate", token(t, "u1", ""), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Profile hydrated", decode(t, w)["message"])
	})

	t.Run("Should rate limit the hydration trigger per user", func(t *testing.T) {
		f := newRouterFixture(t)
		f.hydration.On("HydrateUser", mock.Anything, "u9").Return(domain.HydrationReport{}, nil).Times(5)

		tok := token(t, "u9", "")
		for i := 0; i < 5; i++ {
			require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/candidates/me/hydrate", tok, nil).Code)
		}
		w := f.do(http.MethodPost, "/v1/candidates/me/hydrate", tok, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("Should apply with an optional body and refuse non-candidates", func(t *testing.T) {
		f := newRouterFixture(t)
		f.apps.On("ApplyToJob", mock.Anything, "u1", int64(9), "").Return(&domain.Application{ID: 1, JobID: 9}, nil).Once()

		assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/v1/candidates/jobs/9/apply", token(t, "u1", ""), nil).Code)
		assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/v1/candidates/jobs/9/apply", token(t, "ops", "admin"), nil).Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/v1/candidates/jobs/abc/apply", token(t, "u1", ""), nil).Code)
	})
}

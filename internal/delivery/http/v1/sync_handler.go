package v1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/usecase"
	"crew-recruitment-backend/pkg/apperror"
	"crew-recruitment-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes manual sync triggers for operators. Each call runs the
// dispatcher inline so the caller sees the outcome.
type SyncHandler struct {
	syncUC domain.SyncUsecase
}

func NewSyncHandler(r *gin.RouterGroup, syncUC domain.SyncUsecase) {
	handler := &SyncHandler{syncUC: syncUC}

	sync := r.Group("/sync")
	{
		sync.POST("/candidates/:id/create", handler.SyncCreate)
		sync.POST("/candidates/:id/update", handler.SyncUpdate)
		sync.POST("/candidates/:id/availability", handler.SyncAvailability)
		sync.POST("/candidates/:id/documents/:docId", handler.SyncDocument)
		sync.POST("/candidates/:id/applications/:jobId", handler.SyncApplication)
		sync.POST("/jobs/:externalId/pull", handler.PullJob)

		sync.GET("/webhooks", handler.ListWebhooks)
		sync.POST("/webhooks", handler.EnsureWebhook)
		sync.DELETE("/webhooks/:webhookId", handler.DeleteWebhook)
	}
}

// SyncUpdateRequest limits an update to the named fields. Empty pushes all.
type SyncUpdateRequest struct {
	Fields []string `json:"fields" binding:"omitempty,dive,candidate_field"`
}

// SyncAvailabilityRequest carries the date to push; null clears it remotely.
type SyncAvailabilityRequest struct {
	AvailableFrom *time.Time `json:"available_from"`
}

// EnsureWebhookRequest registers an ATS event subscription.
type EnsureWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events" binding:"required,min=1,dive,required"`
}

// SyncCreate godoc
// @Summary      Push a candidate to the ATS
// @Description  Create (or link by email) the candidate's ATS record
// @Tags         sync
// @Produce      json
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {object}  response.Response{data=domain.SyncResult}
// @Success      202  {object}  response.Response{data=domain.SyncResult}
// @Failure      502  {object}  response.Response{error=domain.SyncResult}
// @Router       /admin/sync/candidates/{id}/create [post]
// @Security     BearerAuth
func (h *SyncHandler) SyncCreate(c *gin.Context) {
	writeSyncResult(c, h.syncUC.SyncCreate(c.Request.Context(), c.Param("id")))
}

// SyncUpdate godoc
// @Summary      Push candidate changes to the ATS
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        id    path      string             true   "Candidate ID"
// @Param        body  body      SyncUpdateRequest  false  "Changed fields"
// @Success      200   {object}  response.Response{data=domain.SyncResult}
// @Success      202   {object}  response.Response{data=domain.SyncResult}
// @Failure      502   {object}  response.Response{error=domain.SyncResult}
// @Router       /admin/sync/candidates/{id}/update [post]
// @Security     BearerAuth
func (h *SyncHandler) SyncUpdate(c *gin.Context) {
	var req SyncUpdateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	writeSyncResult(c, h.syncUC.SyncUpdate(c.Request.Context(), c.Param("id"), req.Fields))
}

// SyncAvailability godoc
// @Summary      Push availability to the ATS
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true   "Candidate ID"
// @Param        body  body      SyncAvailabilityRequest  false  "Availability date"
// @Success      200   {object}  response.Response{data=domain.SyncResult}
// @Success      202   {object}  response.Response{data=domain.SyncResult}
// @Failure      502   {object}  response.Response{error=domain.SyncResult}
// @Router       /admin/sync/candidates/{id}/availability [post]
// @Security     BearerAuth
func (h *SyncHandler) SyncAvailability(c *gin.Context) {
	var req SyncAvailabilityRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	writeSyncResult(c, h.syncUC.SyncAvailability(c.Request.Context(), c.Param("id"), req.AvailableFrom))
}

// SyncDocument godoc
// @Summary      Upload a candidate document to the ATS
// @Tags         sync
// @Produce      json
// @Param        id     path      string  true  "Candidate ID"
// @Param        docId  path      string  true  "Document ID"
// @Success      200    {object}  response.Response{data=domain.SyncResult}
// @Success      202    {object}  response.Response{data=domain.SyncResult}
// @Failure      502    {object}  response.Response{error=domain.SyncResult}
// @Router       /admin/sync/candidates/{id}/documents/{docId} [post]
// @Security     BearerAuth
func (h *SyncHandler) SyncDocument(c *gin.Context) {
	writeSyncResult(c, h.syncUC.SyncDocument(c.Request.Context(), c.Param("id"), c.Param("docId")))
}

// SyncApplication godoc
// @Summary      Shortlist a candidate on the ATS job
// @Tags         sync
// @Produce      json
// @Param        id     path      string  true  "Candidate ID"
// @Param        jobId  path      int     true  "Local job ID"
// @Success      200    {object}  response.Response{data=domain.SyncResult}
// @Success      202    {object}  response.Response{data=domain.SyncResult}
// @Failure      400    {object}  response.Response
// @Failure      502    {object}  response.Response{error=domain.SyncResult}
// @Router       /admin/sync/candidates/{id}/applications/{jobId} [post]
// @Security     BearerAuth
func (h *SyncHandler) SyncApplication(c *gin.Context) {
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}
	writeSyncResult(c, h.syncUC.SyncApplication(c.Request.Context(), c.Param("id"), jobID))
}

// PullJob godoc
// @Summary      Import a job from the ATS
// @Description  Fetch the ATS position and its custom fields and upsert the local job
// @Tags         sync
// @Produce      json
// @Param        externalId  path      string  true  "ATS position ID"
// @Success      200         {object}  response.Response{data=domain.Job}
// @Failure      400         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Failure      503         {object}  response.Response
// @Router       /admin/sync/jobs/{externalId}/pull [post]
// @Security     BearerAuth
func (h *SyncHandler) PullJob(c *gin.Context) {
	job, err := h.syncUC.PullJob(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		c.Error(atsError(err))
		return
	}
	response.Success(c, http.StatusOK, "Job imported", job)
}

// ListWebhooks godoc
// @Summary      List ATS webhooks
// @Tags         sync
// @Produce      json
// @Success      200  {object}  response.Response{data=[]domain.Webhook}
// @Failure      503  {object}  response.Response
// @Router       /admin/sync/webhooks [get]
// @Security     BearerAuth
func (h *SyncHandler) ListWebhooks(c *gin.Context) {
	hooks, err := h.syncUC.ListWebhooks(c.Request.Context())
	if err != nil {
		c.Error(atsError(err))
		return
	}
	response.Success(c, http.StatusOK, "Webhooks retrieved", hooks)
}

// EnsureWebhook godoc
// @Summary      Register an ATS webhook
// @Description  Idempotent: an identical subscription is returned instead of duplicated
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body      EnsureWebhookRequest  true  "Subscription"
// @Success      200   {object}  response.Response{data=domain.Webhook}
// @Failure      400   {object}  response.Response
// @Failure      503   {object}  response.Response
// @Router       /admin/sync/webhooks [post]
// @Security     BearerAuth
func (h *SyncHandler) EnsureWebhook(c *gin.Context) {
	var req EnsureWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(validation.Message(err)))
		return
	}
	hook, err := h.syncUC.EnsureWebhook(c.Request.Context(), req.URL, req.Events)
	if err != nil {
		c.Error(atsError(err))
		return
	}
	response.Success(c, http.StatusOK, "Webhook registered", hook)
}

// DeleteWebhook godoc
// @Summary      Remove an ATS webhook
// @Tags         sync
// @Produce      json
// @Param        webhookId  path      string  true  "Webhook ID"
// @Success      200        {object}  response.Response
// @Failure      503        {object}  response.Response
// @Router       /admin/sync/webhooks/{webhookId} [delete]
// @Security     BearerAuth
func (h *SyncHandler) DeleteWebhook(c *gin.Context) {
	if err := h.syncUC.DeleteWebhook(c.Request.Context(), c.Param("webhookId")); err != nil {
		c.Error(atsError(err))
		return
	}
	response.Success(c, http.StatusOK, "Webhook deleted", nil)
}

// writeSyncResult maps a dispatcher outcome to a status: 200 done or
// skipped, 202 queued for retry, 404 unknown local record, 502 otherwise.
func writeSyncResult(c *gin.Context, res domain.SyncResult) {
	switch {
	case res.Success:
		msg := "Sync completed"
		if res.Skipped {
			msg = "Sync skipped"
		}
		response.Success(c, http.StatusOK, msg, res)
	case res.Queued:
		response.Success(c, http.StatusAccepted, "Sync failed and was queued for retry", res)
	case res.ErrorClass == domain.SyncErrorLocal:
		response.Error(c, http.StatusNotFound, "Sync failed on local data", res)
	default:
		response.Error(c, http.StatusBadGateway, "Sync rejected by the ATS", res)
	}
}

// atsError maps errors from non-dispatch ATS operations to API errors.
func atsError(err error) error {
	var atsErr *domain.ATSError
	switch {
	case errors.Is(err, usecase.ErrATSNotConfigured):
		return apperror.ServiceUnavailable("ATS integration is not configured")
	case errors.Is(err, domain.ErrInvalidPayload):
		return apperror.BadRequest(err.Error())
	case errors.As(err, &atsErr) && atsErr.StatusCode == http.StatusNotFound:
		return apperror.NotFound("Not found on the ATS")
	case errors.As(err, &atsErr):
		return apperror.BadGateway("ATS request failed", err)
	}
	return apperror.Internal(err)
}

// bindOptionalJSON binds a body when one is sent. It reports false after
// recording a 400.
func bindOptionalJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperror.BadRequest(validation.Message(err)))
		return false
	}
	return true
}

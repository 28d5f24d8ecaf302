package v1

import (
	"net/http"
	"strconv"
	"time"

	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// SyncQueueHandler is the operator view of the retry queue.
type SyncQueueHandler struct {
	queueUC domain.RetryQueueUsecase
}

func NewSyncQueueHandler(r *gin.RouterGroup, queueUC domain.RetryQueueUsecase) {
	handler := &SyncQueueHandler{queueUC: queueUC}

	queue := r.Group("/sync-queue")
	{
		queue.GET("", handler.List)
		queue.GET("/stats", handler.Stats)
		queue.GET("/export", handler.Export)
		queue.POST("/:id/requeue", handler.Requeue)
	}
}

func parseQueueFilter(c *gin.Context) domain.SyncQueueFilter {
	var filter domain.SyncQueueFilter
	filter.Status = domain.SyncStatus(c.Query("status"))
	filter.CandidateID = c.Query("candidate_id")
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return filter
}

// List godoc
// @Summary      List retry queue items
// @Tags         sync-queue
// @Produce      json
// @Param        status        query     string  false  "pending, processing, completed, failed or abandoned"
// @Param        candidate_id  query     string  false  "Candidate ID"
// @Param        page          query     int     false  "Page (default 1)"
// @Param        page_size     query     int     false  "Page size (default 20, max 100)"
// @Success      200           {object}  response.Response{data=[]domain.SyncQueueItem,meta=response.Meta}
// @Failure      400           {object}  response.Response
// @Router       /admin/sync-queue [get]
// @Security     BearerAuth
func (h *SyncQueueHandler) List(c *gin.Context) {
	result, err := h.queueUC.List(c.Request.Context(), parseQueueFilter(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Paginated(c, http.StatusOK, "Queue items retrieved", result)
}

// Stats godoc
// @Summary      Retry queue counts by status
// @Tags         sync-queue
// @Produce      json
// @Success      200  {object}  response.Response{data=map[string]int64}
// @Router       /admin/sync-queue/stats [get]
// @Security     BearerAuth
func (h *SyncQueueHandler) Stats(c *gin.Context) {
	stats, err := h.queueUC.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Queue stats", stats)
}

// Export godoc
// @Summary      Export retry queue items to Excel
// @Tags         sync-queue
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        status        query     string  false  "Status filter"
// @Param        candidate_id  query     string  false  "Candidate ID"
// @Success      200           {file}    binary
// @Failure      400           {object}  response.Response
// @Router       /admin/sync-queue/export [get]
// @Security     BearerAuth
func (h *SyncQueueHandler) Export(c *gin.Context) {
	data, filename, err := h.queueUC.Export(c.Request.Context(), parseQueueFilter(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Requeue godoc
// @Summary      Requeue a failed or abandoned item
// @Description  Resets the attempt budget and makes the item due now
// @Tags         sync-queue
// @Produce      json
// @Param        id   path      string  true  "Queue item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /admin/sync-queue/{id}/requeue [post]
// @Security     BearerAuth
func (h *SyncQueueHandler) Requeue(c *gin.Context) {
	if err := h.queueUC.Requeue(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Queue item requeued", nil)
}

// CronHandler serves scheduler-triggered maintenance.
type CronHandler struct {
	queueUC      domain.RetryQueueUsecase
	defaultLimit int
	staleAfter   time.Duration
}

func NewCronHandler(r *gin.RouterGroup, queueUC domain.RetryQueueUsecase, defaultLimit int, staleAfter time.Duration) {
	handler := &CronHandler{queueUC: queueUC, defaultLimit: defaultLimit, staleAfter: staleAfter}

	r.POST("/sync-retry", handler.SyncRetry)
}

// SyncRetryResponse reports one cron drain.
type SyncRetryResponse struct {
	Released int64             `json:"released"`
	Stats    domain.DrainStats `json:"stats"`
}

// SyncRetry godoc
// @Summary      Drain the retry queue
// @Description  Releases stale claims, then replays due items. Authorised by the cron secret.
// @Tags         cron
// @Produce      json
// @Param        limit  query     int  false  "Maximum items to replay"
// @Success      200    {object}  response.Response{data=SyncRetryResponse}
// @Failure      400    {object}  response.Response
// @Failure      401    {object}  response.Response
// @Router       /cron/sync-retry [post]
func (h *CronHandler) SyncRetry(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.Error(apperror.BadRequest("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	released, err := h.queueUC.ReleaseStale(ctx, h.staleAfter)
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	stats, err := h.queueUC.Drain(ctx, limit)
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}

	response.Success(c, http.StatusOK, "Retry queue drained", SyncRetryResponse{Released: released, Stats: stats})
}

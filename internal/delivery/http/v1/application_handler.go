package v1

import (
	"net/http"
	"strconv"

	"crew-recruitment-backend/internal/delivery/http/middleware"
	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applicationUC domain.ApplicationUsecase
}

func NewApplicationHandler(r *gin.RouterGroup, applicationUC domain.ApplicationUsecase) {
	handler := &ApplicationHandler{applicationUC: applicationUC}

	jobs := r.Group("/candidates/jobs", middleware.RequireRole(middleware.RoleCandidate))
	jobs.POST("/:jobId/apply", handler.ApplyToJob)
}

type ApplyToJobRequest struct {
	CoverLetter string `json:"cover_letter" binding:"max=5000,no_emoji"`
}

// ApplyToJob godoc
// @Summary      Apply to a job
// @Description  Submit an application for a job. ATS-linked jobs shortlist the candidate in the background.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        jobId  path      int                true   "Job ID"
// @Param        body   body      ApplyToJobRequest  false  "Application data"
// @Success      201    {object}  response.Response{data=domain.Application}
// @Failure      400    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Failure      409    {object}  response.Response
// @Router       /candidates/jobs/{jobId}/apply [post]
// @Security     BearerAuth
func (h *ApplicationHandler) ApplyToJob(c *gin.Context) {
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	var req ApplyToJobRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	app, err := h.applicationUC.ApplyToJob(c.Request.Context(), userID, jobID, req.CoverLetter)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Application submitted successfully", app)
}

// jobIDParam reads the local job id from the :jobId path segment.
func jobIDParam(c *gin.Context) (int64, bool) {
	jobID, err := strconv.ParseInt(c.Param("jobId"), 10, 64)
	if err != nil || jobID <= 0 {
		c.Error(apperror.BadRequest("Invalid job ID"))
		return 0, false
	}
	return jobID, true
}

package v1

import (
	"net/http"

	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	candidateUC domain.CandidateUsecase
	hydrationUC domain.HydrationUsecase
}

// NewCandidateHandler registers candidate self-service routes. hydrate is
// extra middleware for the hydration trigger, typically a rate limit.
func NewCandidateHandler(r *gin.RouterGroup, candidateUC domain.CandidateUsecase, hydrationUC domain.HydrationUsecase, hydrate ...gin.HandlerFunc) {
	handler := &CandidateHandler{candidateUC: candidateUC, hydrationUC: hydrationUC}

	candidates := r.Group("/candidates")
	{
		candidates.GET("/me", handler.GetProfile)
		candidates.PATCH("/me/availability", handler.UpdateAvailability)
		candidates.POST("/me/hydrate", append(hydrate, handler.Hydrate)...)
	}
}

// GetProfile godoc
// @Summary      Get candidate profile
// @Description  Get the profile of the currently logged-in candidate
// @Tags         candidates
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.Candidate}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /candidates/me [get]
// @Security     BearerAuth
func (h *CandidateHandler) GetProfile(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	profile, err := h.candidateUC.GetProfile(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate profile", profile)
}

// UpdateAvailability godoc
// @Summary      Update availability
// @Description  Change availability status and/or the available-from date. The change is pushed to the ATS in the background.
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        body  body      domain.AvailabilityUpdate  true  "Availability change"
// @Success      200   {object}  response.Response{data=domain.Candidate}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /candidates/me/availability [patch]
// @Security     BearerAuth
func (h *CandidateHandler) UpdateAvailability(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	var req domain.AvailabilityUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	profile, err := h.candidateUC.UpdateAvailability(c.Request.Context(), userID, req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Availability updated", profile)
}

// Hydrate godoc
// @Summary      Hydrate profile from the ATS
// @Description  Fill missing profile fields, CV and photo from the matching ATS record. Called once after first login.
// @Tags         candidates
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.HydrationReport}
// @Failure      404  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /candidates/me/hydrate [post]
// @Security     BearerAuth
func (h *CandidateHandler) Hydrate(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	report, err := h.hydrationUC.HydrateUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	msg := "Profile hydrated"
	switch {
	case !report.Needed:
		msg = "Profile already complete"
	case !report.Matched:
		msg = "No matching ATS record"
	}
	response.Success(c, http.StatusOK, msg, report)
}

package middleware

import (
	"errors"
	"net/http"

	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		requestID := c.GetString(string(domain.KeyRequestID))

		status := apperror.StatusOf(err)
		if status >= http.StatusInternalServerError {
			// Internal details stay in the log.
			log.Error("request failed",
				zap.String("request_id", requestID),
				zap.String("path", c.FullPath()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		message := "An unexpected error occurred. Please try again later."
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		response.Error(c, status, message, nil)
	}
}

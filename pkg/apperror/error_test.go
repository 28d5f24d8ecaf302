package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"crew-recruitment-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	t.Run("Should read the status from a wrapped AppError", func(t *testing.T) {
		err := fmt.Errorf("sync: %w", apperror.Conflict("already queued"))
		assert.Equal(t, http.StatusConflict, apperror.StatusOf(err))
	})

	t.Run("Should default to 500 for plain errors", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(errors.New("boom")))
	})

	t.Run("Should keep the upstream cause on BadGateway", func(t *testing.T) {
		cause := errors.New("vincere: 500")
		err := apperror.BadGateway("ATS request failed", cause)
		assert.Equal(t, http.StatusBadGateway, apperror.StatusOf(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "ATS request failed", err.Error())
	})
}

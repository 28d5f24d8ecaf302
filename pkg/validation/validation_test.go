package validation_test

import (
	"errors"
	"testing"

	"crew-recruitment-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncRequest struct {
	Fields      []string `json:"fields" validate:"dive,candidate_field"`
	CoverLetter string   `json:"cover_letter" validate:"max=10,no_emoji"`
	Status      string   `json:"status" validate:"omitempty,oneof=available employed"`
}

func TestIsCandidateField(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"phone", true},
		{"desired_salary_min", true},
		{"preferred_yacht_size_max", true},
		{"salary_currency", true},
		{"password", false},
		{"phone_min", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.IsCandidateField(tt.name))
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := validator.New()
	validation.RegisterValidators(v)

	t.Run("Should pass a valid request", func(t *testing.T) {
		assert.NoError(t, v.Struct(syncRequest{Fields: []string{"phone"}, CoverLetter: "Hi", Status: "available"}))
	})

	t.Run("Should report every failure by its JSON name", func(t *testing.T) {
		err := v.Struct(syncRequest{Fields: []string{"password"}, CoverLetter: "⚓", Status: "sailing"})
		require.Error(t, err)

		msgs := validation.FormatValidationErrors(err)
		require.Len(t, msgs, 3)
		assert.Equal(t, `fields[0]: "password" is not a candidate field`, msgs[0])
		assert.Equal(t, "cover_letter: must not contain emoji or pictographs", msgs[1])
		assert.Equal(t, "status: must be one of: available, employed", msgs[2])
	})

	t.Run("Should pass through non-validation errors", func(t *testing.T) {
		assert.Equal(t, "boom", validation.Message(errors.New("boom")))
	})
}

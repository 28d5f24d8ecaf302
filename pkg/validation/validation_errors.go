package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatValidationErrors converts validator.ValidationErrors to user-facing
// messages. Other errors are returned as their text.
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// Message joins FormatValidationErrors into one line.
func Message(err error) string {
	return strings.Join(FormatValidationErrors(err), "; ")
}

func formatSingleError(e validator.FieldError) string {
	field := e.Field()
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", field)
	case "min":
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s: needs at least %s item(s)", field, param)
		}
		return fmt.Sprintf("%s: must be at least %s", field, param)
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s: must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s: must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "url":
		return fmt.Sprintf("%s: must be a valid URL", field)
	case "no_emoji":
		return fmt.Sprintf("%s: must not contain emoji or pictographs", field)
	case "candidate_field":
		return fmt.Sprintf("%s: %q is not a candidate field", field, e.Value())
	default:
		return fmt.Sprintf("%s: failed %s validation", field, e.Tag())
	}
}

package usecase

import (
	"encoding/json"
	"errors"
	"net/http"

	"crew-recruitment-backend/internal/domain"
)

// localError marks a failure of the internal store or a missing local
// record. Those are never queued.
type localError struct {
	err error
}

func (e *localError) Error() string { return e.err.Error() }
func (e *localError) Unwrap() error { return e.err }

func local(err error) error {
	if err == nil {
		return nil
	}
	return &localError{err: err}
}

// ClassifyError maps a sync failure onto the retry taxonomy. Transport
// errors and timeouts are retryable because nothing reached the remote side.
func ClassifyError(err error) domain.SyncErrorClass {
	if err == nil {
		return domain.SyncErrorNone
	}

	var le *localError
	if errors.As(err, &le) || errors.Is(err, domain.ErrNotFound) {
		return domain.SyncErrorLocal
	}
	if errors.Is(err, domain.ErrInvalidPayload) {
		return domain.SyncErrorPermanent
	}

	var atsErr *domain.ATSError
	if errors.As(err, &atsErr) {
		switch {
		case atsErr.StatusCode == http.StatusUnauthorized,
			atsErr.StatusCode == http.StatusTooManyRequests,
			atsErr.StatusCode >= 500:
			return domain.SyncErrorRetryable
		default:
			return domain.SyncErrorPermanent
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return domain.SyncErrorPermanent
	}

	return domain.SyncErrorRetryable
}

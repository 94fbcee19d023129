package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vncsmyrnk/blindpoll/internal/core/domain"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLoggedOut), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuestionClosed), errors.Is(err, domain.ErrGone):
		return http.StatusGone
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrChitsUnsigned),
		errors.Is(err, domain.ErrNoResponseChosen),
		errors.Is(err, domain.ErrNotConfirmed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownResponse), errors.Is(err, domain.ErrDuplicateResponse):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrVerificationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAuthorityUnavailable),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrSignatureMismatch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func questionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

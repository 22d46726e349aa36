// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/roster-hq/roster/internal/access"
	"github.com/roster-hq/roster/internal/accounts"
	"github.com/roster-hq/roster/internal/auth"
)

// ErrValidation marks request payloads that failed input validation.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthenticated), errors.Is(err, access.ErrUnknownUser):
		Problem(w, http.StatusUnauthorized, "Unauthenticated", err.Error())
	case errors.Is(err, access.ErrUnauthorized), errors.Is(err, accounts.ErrNoChangePermissions):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, access.ErrBadEmail),
		errors.Is(err, auth.ErrBadPassword),
		errors.Is(err, auth.ErrInvalidRefresh),
		errors.Is(err, accounts.ErrMutationFailed),
		errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, accounts.ErrObjectDoesNotExist), errors.Is(err, accounts.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, accounts.ErrAlreadyExists):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

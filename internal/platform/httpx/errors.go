package httpx

import (
	"errors"
	"net/http"

	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// RespondError maps domain errors to RFC7807 responses. Validation problems
// carry the specific reason; store failures stay generic and are logged by the
// caller.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthenticated", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	// ErrPartialCommit wraps the underlying store failure, so it has to win
	// over the plain store-unavailable mapping.
	case errors.Is(err, shared.ErrPartialCommit):
		Problem(w, http.StatusBadGateway, "Partial Commit", "checkout interrupted mid-persist, retry to reconcile")
	case errors.Is(err, shared.ErrStoreUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "temporary failure, try again")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

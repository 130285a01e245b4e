package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Every protected handler maps
// its own failures onto these rather than trusting the route guard
// alone.
var (
	ErrUnauthorized = errors.New("unauthenticated")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("duplicate entry")
)

// Error codes carried in problem responses. Stable identifiers;
// display text is resolved per locale (see locale.go).
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeValidation      = "validation_error"
	CodeDuplicate       = "duplicate"
	CodeUpstream        = "upstream_error"
)

// RespondError maps domain errors to RFC7807 responses. Unknown
// errors collapse to a generic 500 with no detail so upstream
// failures never leak.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	loc := localizerFor(r)
	switch {
	case errors.Is(err, ErrUnauthorized):
		problemWithCode(w, http.StatusUnauthorized, loc.title(CodeUnauthenticated), err.Error(), CodeUnauthenticated)
	case errors.Is(err, ErrForbidden):
		problemWithCode(w, http.StatusForbidden, loc.title(CodeForbidden), err.Error(), CodeForbidden)
	case errors.Is(err, ErrNotFound):
		problemWithCode(w, http.StatusNotFound, loc.title(CodeNotFound), err.Error(), CodeNotFound)
	case errors.Is(err, ErrValidation):
		problemWithCode(w, http.StatusBadRequest, loc.title(CodeValidation), err.Error(), CodeValidation)
	case errors.Is(err, ErrDuplicate):
		problemWithCode(w, http.StatusConflict, loc.title(CodeDuplicate), err.Error(), CodeDuplicate)
	default:
		problemWithCode(w, http.StatusInternalServerError, loc.title(CodeUpstream), "", CodeUpstream)
	}
}

func problemWithCode(w http.ResponseWriter, status int, title, detail, code string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	})
}

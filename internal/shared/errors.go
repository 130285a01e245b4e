package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage returns a message suitable for rendered pages.
// Sentinel errors have fixed texts; anything else collapses to a
// generic message so upstream failures never leak details.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Registro não encontrado"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email ou senha inválidos"
	default:
		return "Ocorreu um erro inesperado. Tente novamente."
	}
}

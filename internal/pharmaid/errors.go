package pharmaid

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailure = errors.New("pharmaid authentication failure")
	ErrAccessRequestFailure  = errors.New("pharmaid access request failure")
	ErrFetchFailure          = errors.New("pharmaid fetch failure")
	// ErrCredentialRejected se agrega cuando PharmaId responde 401 a una llamada
	// autenticada. No se re-autentica automáticamente.
	ErrCredentialRejected = errors.New("pharmaid credential rejected")
)

// StatusError conserva el status devuelto por PharmaId como causa.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

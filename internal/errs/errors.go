package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrUnprocessable is used for semantic validation failures (HTTP 422)
	ErrUnprocessable = errors.New("unprocessable")
	// ErrPartyKindMismatch indicates a record was attached to the wrong kind of party
	ErrPartyKindMismatch = errors.New("party_kind_mismatch")
	// ErrPartyInUse indicates a party still has records and cannot be deleted
	ErrPartyInUse = errors.New("party_in_use")
)

// ValidationError carries the offending field alongside ErrUnprocessable.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return ErrUnprocessable }

// Invalid builds a ValidationError for field.
func Invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

package services

import "errors"

var (
	ErrEntryNotFound = errors.New("entry not found")
	// ErrLastRow refuses removal of the only participant or expense row.
	ErrLastRow = errors.New("cannot remove the last row")
)

// ValidationError is a recoverable refusal caused by incomplete input.
// Title and Message are shown to the user as a toast; nothing was changed.
type ValidationError struct {
	Title   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

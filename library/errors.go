package library

import "errors"

var (
	// ErrNotFound indicates the requested book or user does not exist.
	ErrNotFound = errors.New("not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")

	ErrFavoriteLimit    = errors.New("favorite limit reached")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnknownField     = errors.New("unknown field")
	ErrImmutableField   = errors.New("field cannot be changed")
	ErrEmptyField       = errors.New("required field is empty")
	ErrAmbiguousContent = errors.New("both pdfUrl and pageImages given")

	// ErrInvalidTransition is returned when an intent does not apply to the current view.
	ErrInvalidTransition = errors.New("invalid view transition")
	// ErrStaleUpload means the form an upload was started for is gone.
	ErrStaleUpload = errors.New("upload target no longer open")
	ErrNotLoggedIn = errors.New("not logged in")
)

// AuthError reports a failed login or registration.
type AuthError struct{ Err error }

func (e *AuthError) Error() string { return "auth: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports input that was rejected before any state changed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Err.Error()
	}
	return "validation: " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

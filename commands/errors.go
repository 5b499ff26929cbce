package commands

import (
	"errors"
	"fmt"

	"air-library/library"
)

// userError carries a message meant for people while keeping the
// library error reachable through errors.Is/As.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// describe rewords library errors for the terminal.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var ve *library.ValidationError
	switch {
	case errors.Is(err, library.ErrInvalidCredentials):
		return &userError{"invalid username or password", err}
	case errors.Is(err, library.ErrUsernameTaken):
		return &userError{"that username is already taken", err}
	case errors.Is(err, library.ErrFavoriteLimit):
		return &userError{fmt.Sprintf("you can keep at most %d favorites; remove one first", library.MaxFavorites), err}
	case errors.Is(err, library.ErrInvalidTransition):
		return &userError{"not available from this screen", err}
	case errors.Is(err, library.ErrNotFound):
		return &userError{"no such book", err}
	case errors.As(err, &ve) && ve.Field != "":
		return &userError{fmt.Sprintf("%s: %v", ve.Field, ve.Err), err}
	}
	return err
}

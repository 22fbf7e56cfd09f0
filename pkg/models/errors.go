package models

import "errors"

// ErrInvalidInput classifies caller mistakes: a blank ticker, an empty
// growth-rate sequence and the like. Match with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InputError carries the human-readable reason a request was rejected.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidInput returns an *InputError with the given message.
func InvalidInput(msg string) error {
	return &InputError{Msg: msg}
}

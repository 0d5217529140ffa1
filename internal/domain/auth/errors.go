package auth

import "errors"

var (
	ErrSubmitInFlight = errors.New("a submission of this form is already in flight")
	ErrInvalidForm    = errors.New("form is invalid")
)

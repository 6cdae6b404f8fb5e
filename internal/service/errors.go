package service

import "errors"

var (
	// ErrInvalidReference flags an activity or request referencing a
	// course, user or object that does not exist.
	ErrInvalidReference = errors.New("referenced entity does not exist")

	// ErrForbidden flags an operation the authenticated user may not
	// perform.
	ErrForbidden = errors.New("operation not permitted")

	// ErrDevAuthDisabled is returned when the developer login gate is off.
	ErrDevAuthDisabled = errors.New("developer auth is disabled")

	// ErrInvalidCredentials is returned on a failed developer login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

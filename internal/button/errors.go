package button

import "errors"

// Domain errors for the button package.
var (
	// ErrDuplicateName is returned when two buttons share a name.
	ErrDuplicateName = errors.New("button: duplicate name")

	// ErrHandlerFile is returned when a handler file cannot be read.
	ErrHandlerFile = errors.New("button: handler file unreadable")

	// ErrInvalidHandler is returned when a handler has neither or both of code and file.
	ErrInvalidHandler = errors.New("button: invalid handler")

	// ErrInvalidName is returned when a button name is empty.
	ErrInvalidName = errors.New("button: invalid name")
)

package page

import "errors"

// Domain errors for the page package.
var (
	// ErrInvalidPattern is returned when a window condition regex does not compile.
	ErrInvalidPattern = errors.New("page: invalid pattern")

	// ErrInvalidPosition is returned when a position cannot be parsed.
	ErrInvalidPosition = errors.New("page: invalid position")

	// ErrInvalidButton is returned when a page button entry is malformed.
	ErrInvalidButton = errors.New("page: invalid button")

	// ErrDuplicatePage is returned when two pages share a name.
	ErrDuplicatePage = errors.New("page: duplicate name")
)

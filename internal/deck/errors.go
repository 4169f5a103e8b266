package deck

import "errors"

// Domain errors for the deck package.
var (
	// ErrPageNotFound is returned when a page name is not in the layout.
	ErrPageNotFound = errors.New("deck: page not found")

	// ErrButtonNotFound is returned when a named button does not exist.
	ErrButtonNotFound = errors.New("deck: button not found")

	// ErrInvalidGeometry is returned when the device grid or key size is empty.
	ErrInvalidGeometry = errors.New("deck: invalid geometry")
)

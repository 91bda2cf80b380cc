package reconstruct

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/resym-go/pdb"
)

// Reconstruction failures. An *Error matches exactly one of the first
// four with errors.Is.
var (
	ErrNotFound            = pdb.ErrNotFound
	ErrAmbiguous           = pdb.ErrAmbiguous
	ErrUnresolvedReference = pdb.ErrUnresolvedReference
	ErrLayoutFailed        = errors.New("reconstruct: layout failed")
	ErrInvalidPolicy       = errors.New("reconstruct: invalid policy")
)

// Error reports a failed reconstruction request.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reconstruct %q: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// layoutFailure classifies a layout error. Dangling references keep
// their own kind; everything else is a layout failure.
func layoutFailure(err error) error {
	if errors.Is(err, pdb.ErrUnresolvedReference) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLayoutFailed, err)
}

func unresolved(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnresolvedReference, fmt.Sprintf(format, args...))
}

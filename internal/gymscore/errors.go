package gymscore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/gymscore/internal/gymscore/reconcile"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrScoreboardNotFound = errors.New("scoreboard not found")
)

// PersistenceError is returned when one or more category writes failed.
// Categories written before the failure stay written.
type PersistenceError struct {
	Failed []reconcile.Category
	Err    error
}

func (e *PersistenceError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for _, c := range e.Failed {
		names = append(names, string(c))
	}
	if len(names) == 0 {
		return fmt.Sprintf("persist gymscore: %s", e.Err)
	}
	return fmt.Sprintf("persist gymscore [%s]: %s", strings.Join(names, ", "), e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Package booking drives the multi-step appointment flow up to the page
// that lists the earliest date.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/david/termin-watch/internal/extract"
)

var (
	// ErrNotFound is returned by a Driver when no visible control matches.
	ErrNotFound = errors.New("control not found")
	// ErrTimeout marks a wait that exceeded the navigation timeout.
	ErrTimeout = errors.New("navigation timed out")
)

// NavigationError reports a required control that could not be found.
type NavigationError struct {
	Step  string
	Label string
	Err   error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation step %s: %q not found", e.Step, e.Label)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// Role narrows which elements a Target may match.
type Role string

const (
	RoleButton Role = "button"
	RoleLink   Role = "link"
	// RoleText matches any element by its own text.
	RoleText Role = "text"
)

// Target names a control by its visible label. Exact requires the
// whitespace-normalized label to equal the control's text; otherwise the
// text only has to contain it.
type Target struct {
	Label string
	Role  Role
	Exact bool
}

func (t Target) String() string {
	mode := "contains"
	if t.Exact {
		mode = "exact"
	}
	return fmt.Sprintf("%s(%s %q)", t.Role, mode, t.Label)
}

// Driver is the page automation the flow needs. It also exposes the
// current page to the extraction strategies.
type Driver interface {
	extract.Page
	Navigate(ctx context.Context, url string) error
	// Click clicks the first visible match or returns ErrNotFound.
	Click(ctx context.Context, t Target) error
	// IncrementQuantity presses the "+" control on the row whose text is
	// exactly label.
	IncrementQuantity(ctx context.Context, label string) error
	WaitIdle(ctx context.Context) error
}

// Session is a Driver bound to a browser that must be closed.
type Session interface {
	Driver
	Close() error
}

// Opener starts a fresh session for one cycle.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// Package bookingtest provides an in-memory booking.Session for tests.
package bookingtest

import (
	"context"
	"sync"

	"github.com/david/termin-watch/internal/booking"
	"github.com/david/termin-watch/internal/htmlpage"
)

// Driver serves a fixed result page and accepts clicks on a configured
// set of targets. The zero value has no controls at all.
type Driver struct {
	*htmlpage.Page

	mu       sync.Mutex
	controls map[booking.Target]bool
	rows     map[string]bool
	errs     map[string]error

	Visited []string
	Clicked []booking.Target
	Plus    []string
	Closed  bool
}

// New returns a Driver whose extraction page is resultHTML.
func New(resultHTML string) (*Driver, error) {
	page, err := htmlpage.FromHTML(resultHTML)
	if err != nil {
		return nil, err
	}
	return &Driver{
		Page:     page,
		controls: make(map[booking.Target]bool),
		rows:     make(map[string]bool),
		errs:     make(map[string]error),
	}, nil
}

// WithControl makes t clickable.
func (d *Driver) WithControl(t booking.Target) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.controls[t] = true
	return d
}

// WithRow adds a service row with a working "+" control.
func (d *Driver) WithRow(label string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows[label] = true
	return d
}

// FailOn makes any call that names label return err. Use the URL for
// Navigate.
func (d *Driver) FailOn(label string, err error) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[label] = err
	return d
}

func (d *Driver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.errs[url]; err != nil {
		return err
	}
	d.Visited = append(d.Visited, url)
	return nil
}

func (d *Driver) Click(_ context.Context, t booking.Target) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.errs[t.Label]; err != nil {
		return err
	}
	if !d.controls[t] {
		return booking.ErrNotFound
	}
	d.Clicked = append(d.Clicked, t)
	return nil
}

func (d *Driver) IncrementQuantity(_ context.Context, label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.errs[label]; err != nil {
		return err
	}
	if !d.rows[label] {
		return booking.ErrNotFound
	}
	d.Plus = append(d.Plus, label)
	return nil
}

func (d *Driver) WaitIdle(context.Context) error {
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return nil
}

// Opener hands out the same Driver for every cycle, or Err.
type Opener struct {
	Driver *Driver
	Err    error
	Opened int
}

func (o *Opener) Open(context.Context) (booking.Session, error) {
	o.Opened++
	if o.Err != nil {
		return nil, o.Err
	}
	o.Driver.mu.Lock()
	o.Driver.Closed = false
	o.Driver.mu.Unlock()
	return o.Driver, nil
}

// Mainz returns a Driver with every control of the default Mainz flow.
func Mainz(resultHTML string) (*Driver, error) {
	d, err := New(resultHTML)
	if err != nil {
		return nil, err
	}
	d.WithControl(booking.Target{Label: "Abteilung Ausländerangelegenheiten", Role: booking.RoleButton}).
		WithRow("Überträge von Aufenthaltstiteln (neuer Pass)").
		WithControl(booking.Target{Label: "Überträge von Aufenthaltstiteln (neuer Pass)", Role: booking.RoleButton, Exact: true}).
		WithControl(booking.Target{Label: "Weiter", Role: booking.RoleButton})
	return d, nil
}

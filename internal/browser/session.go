// Package browser implements booking.Session on Chrome through go-rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/david/termin-watch/internal/booking"
	"github.com/david/termin-watch/internal/extract"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// settle is the pause after the network goes quiet; the booking pages
// re-render shortly after their last request.
const settle = 300 * time.Millisecond

// Session is one Chrome tab driven through a booking flow.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher // nil for a remote browser
	timeout time.Duration
}

// bounded returns the page bound to ctx and the navigation timeout.
func (s *Session) bounded(ctx context.Context) (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.page.Context(ctx), cancel
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	p, cancel := s.bounded(ctx)
	defer cancel()
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, timeoutOr(err))
	}
	if err := p.WaitDOMStable(settle, 0); err != nil {
		return fmt.Errorf("wait for %s: %w", url, timeoutOr(err))
	}
	return nil
}

func (s *Session) Click(ctx context.Context, t booking.Target) error {
	el, err := s.find(ctx, rod.Eval(findControlJS, string(t.Role), t.Label, t.Exact))
	if err != nil {
		return err
	}
	return s.click(ctx, el)
}

func (s *Session) IncrementQuantity(ctx context.Context, label string) error {
	el, err := s.find(ctx, rod.Eval(findPlusJS, label))
	if err != nil {
		return err
	}
	return s.click(ctx, el)
}

func (s *Session) WaitIdle(ctx context.Context) error {
	p, cancel := s.bounded(ctx)
	defer cancel()
	if err := p.WaitLoad(); err != nil {
		return timeoutOr(err)
	}
	// Returns once no request has been in flight for settle, or when the
	// bounded context ends.
	p.WaitRequestIdle(settle, nil, nil, nil)()
	if err := p.GetContext().Err(); err != nil {
		return timeoutOr(err)
	}
	return nil
}

// find evaluates a finder script that yields an element or null.
func (s *Session) find(ctx context.Context, js *rod.EvalOptions) (*rod.Element, error) {
	p, cancel := s.bounded(ctx)
	defer cancel()
	obj, err := p.Evaluate(js.ByObject())
	if err != nil {
		return nil, timeoutOr(err)
	}
	if obj.ObjectID == "" || obj.Subtype == proto.RuntimeRemoteObjectSubtypeNull {
		return nil, booking.ErrNotFound
	}
	el, err := s.page.ElementFromObject(obj)
	if err != nil {
		return nil, fmt.Errorf("resolve element: %w", err)
	}
	return el, nil
}

func (s *Session) click(ctx context.Context, el *rod.Element) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	el = el.Context(ctx)
	if err := el.ScrollIntoView(); err != nil {
		return timeoutOr(err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return timeoutOr(err)
	}
	return nil
}

func (s *Session) VisibleText(ctx context.Context, scope string) (string, error) {
	p, cancel := s.bounded(ctx)
	defer cancel()
	res, err := p.Eval(innerTextJS, scope)
	if err != nil {
		return "", timeoutOr(err)
	}
	if res.Value.Nil() {
		return "", fmt.Errorf("%s: %w", scope, extract.ErrNoElement)
	}
	return res.Value.Str(), nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	p, cancel := s.bounded(ctx)
	defer cancel()
	html, err := p.HTML()
	if err != nil {
		return "", timeoutOr(err)
	}
	return html, nil
}

func (s *Session) Query(ctx context.Context, q extract.Query) ([]extract.Element, error) {
	p, cancel := s.bounded(ctx)
	defer cancel()
	els, err := p.Elements(q.Selector)
	if err != nil {
		return nil, timeoutOr(err)
	}

	var out []extract.Element
	for _, el := range els {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if len(q.HasText) > 0 || q.HasNotText != "" {
			text, err := el.Text()
			if err != nil || !q.Matches(text) {
				continue
			}
		}
		out = append(out, &element{el: el.Context(ctx)})
	}
	return out, nil
}

// Close releases the tab, and the browser when this session launched it.
func (s *Session) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if s.lnch != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.lnch.Cleanup()
	}
	return errors.Join(errs...)
}

type element struct {
	el *rod.Element
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

func (e *element) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", booking.ErrTimeout, err)
	}
	return err
}

var _ booking.Session = (*Session)(nil)

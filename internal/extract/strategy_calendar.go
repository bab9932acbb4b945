package extract

import (
	"context"
	"errors"
	"strings"
)

var errNoHeading = errors.New("extract: no calendar heading")

// CalendarStrategy reads a month grid: the heading names month and year,
// each bookable cell carries only the day number.
type CalendarStrategy struct {
	Headings      []Query
	CellSelector  string
	UnavailableIn string
	Limit         int
}

func (s *CalendarStrategy) ID() string { return StrategyCalendar }

func (s *CalendarStrategy) Extract(ctx context.Context, page Page) ([]Candidate, error) {
	heading := s.heading(ctx, page)
	if heading == "" {
		return nil, errNoHeading
	}

	cells, err := page.Query(ctx, Query{
		Selector:   s.CellSelector,
		HasNotText: s.UnavailableIn,
		Limit:      s.Limit,
	})
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, cell := range cells {
		if visible, err := cell.Visible(); err != nil || !visible {
			continue
		}
		text, err := cell.Text()
		if err != nil {
			continue
		}
		d, ok := ParseFromHeading(strings.TrimSpace(text), heading)
		if !ok || isDisabled(cell) {
			continue
		}
		out = append(out, Candidate{Date: d})
	}
	return out, nil
}

// heading returns the first heading naming a month and year, or the
// first heading found at all.
func (s *CalendarStrategy) heading(ctx context.Context, page Page) string {
	var first string
	for _, q := range s.Headings {
		els, err := page.Query(ctx, q)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text()
			if err != nil {
				continue
			}
			text = normalizeSpace(text)
			if text == "" {
				continue
			}
			if HasMonthYear(text) {
				return text
			}
			if first == "" {
				first = text
			}
		}
	}
	return first
}

func isDisabled(el Element) bool {
	if class, ok, err := el.Attribute("class"); err == nil && ok {
		if strings.Contains(strings.ToLower(class), "disabled") {
			return true
		}
	}
	if aria, ok, err := el.Attribute("aria-disabled"); err == nil && ok && strings.EqualFold(aria, "true") {
		return true
	}
	if _, ok, err := el.Attribute("disabled"); err == nil && ok {
		return true
	}
	return false
}

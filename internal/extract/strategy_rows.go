package extract

import (
	"context"
)

const rowSelector = "div, li, table tr"

// RowsStrategy scans list rows and table rows that mention appointments
// and takes the earliest explicit date among them.
type RowsStrategy struct {
	Keyword string
	Limit   int
}

func (s *RowsStrategy) ID() string { return StrategyRows }

func (s *RowsStrategy) Extract(ctx context.Context, page Page) ([]Candidate, error) {
	rows, err := page.Query(ctx, Query{
		Selector: rowSelector,
		HasText:  []string{s.Keyword},
		Limit:    s.Limit,
	})
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, row := range rows {
		text, err := row.Text()
		if err != nil {
			continue
		}
		if d, ok := ParseExplicit(text); ok {
			out = append(out, Candidate{Date: d})
		}
	}
	return out, nil
}

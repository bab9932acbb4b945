package extract

import (
	"context"
)

// FallbackStrategy scans the whole rendered document for anything that
// looks like D.M.YYYY.
type FallbackStrategy struct{}

func (s *FallbackStrategy) ID() string { return StrategyFallback }

func (s *FallbackStrategy) Extract(ctx context.Context, page Page) ([]Candidate, error) {
	doc, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return candidatesOf(FindAllDates(HTMLToText(doc))), nil
}

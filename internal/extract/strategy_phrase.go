package extract

import (
	"context"
	"regexp"
	"strings"
)

// PhraseStrategy reads the "Nächster Termin ab 15.10.2025, 09:30 Uhr"
// banner some result pages show above the calendar.
type PhraseStrategy struct {
	withTime *regexp.Regexp
	dateOnly *regexp.Regexp
}

// NewPhraseStrategy builds the patterns for a lead phrase. Whitespace in
// the phrase matches any run of whitespace, case is ignored.
func NewPhraseStrategy(lead string) *PhraseStrategy {
	words := strings.Fields(lead)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	leadPattern := strings.Join(words, `\s+`)

	return &PhraseStrategy{
		withTime: regexp.MustCompile(`(?is)` + leadPattern + `\s+(\d{1,2}\.\d{1,2}\.\d{4})[^\d]{0,20}?(\d{1,2}:\d{2})\s*Uhr`),
		dateOnly: regexp.MustCompile(`(?is)` + leadPattern + `.{0,80}?(\d{1,2}\.\d{1,2}\.\d{4})`),
	}
}

func (s *PhraseStrategy) ID() string { return StrategyPhrase }

func (s *PhraseStrategy) Extract(ctx context.Context, page Page) ([]Candidate, error) {
	text, err := page.VisibleText(ctx, "body")
	if err != nil {
		return nil, err
	}

	if m := s.withTime.FindStringSubmatch(text); m != nil {
		if d, ok := parseLooseDate(m[1]); ok {
			return []Candidate{{Date: d, Detail: m[2] + " Uhr"}}, nil
		}
	}
	if m := s.dateOnly.FindStringSubmatch(text); m != nil {
		if d, ok := parseLooseDate(m[1]); ok {
			return []Candidate{{Date: d}}, nil
		}
	}
	return nil, nil
}

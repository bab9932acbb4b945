package extract

import (
	"context"
	"fmt"

	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
	"github.com/sirupsen/logrus"
)

// Strategy IDs, also used in flow.yaml to order the chain.
const (
	StrategyPhrase   = "phrase"
	StrategyRows     = "rows"
	StrategyCalendar = "calendar"
	StrategyFallback = "fallback"
)

// DefaultOrder is the fallback order used when no order is configured.
var DefaultOrder = []string{StrategyPhrase, StrategyRows, StrategyCalendar, StrategyFallback}

// Candidate is a date found by a strategy. Detail is free-form context
// such as the time of day printed next to the date.
type Candidate struct {
	Date   models.Date
	Detail string
}

// Strategy is one heuristic for recovering dates from the result page.
// It returns every candidate it found; an error means it found nothing.
type Strategy interface {
	ID() string
	Extract(ctx context.Context, page Page) ([]Candidate, error)
}

func candidatesOf(dates []models.Date) []Candidate {
	out := make([]Candidate, len(dates))
	for i, d := range dates {
		out[i] = Candidate{Date: d}
	}
	return out
}

func earliestCandidate(cs []Candidate) (Candidate, bool) {
	if len(cs) == 0 {
		return Candidate{}, false
	}
	best := cs[0]
	for _, c := range cs[1:] {
		if c.Date.Before(best.Date) {
			best = c
		}
	}
	return best, true
}

// Result is the outcome of a chain run. A zero Result means no strategy
// produced a date, which is a normal outcome.
type Result struct {
	Date       *models.Date
	Strategy   string
	Candidates int
	Detail     string
}

func (r Result) Found() bool {
	return r.Date != nil
}

// StrategyFactory maps strategy IDs to implementations.
type StrategyFactory struct {
	strategies map[string]Strategy
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{
		strategies: make(map[string]Strategy),
	}
}

func (f *StrategyFactory) Register(s Strategy) {
	f.strategies[s.ID()] = s
}

func (f *StrategyFactory) Get(id string) (Strategy, error) {
	s, ok := f.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return s, nil
}

// Settings carries the page wording the strategies look for.
type Settings struct {
	LeadPhrase string
	RowKeyword string
	// Headings are queried in order; the first whose text names a month
	// and a year wins.
	Headings      []Query
	CellSelector  string
	UnavailableIn string
	MaxRows       int
	MaxCells      int
}

// DefaultSettings matches the Mainz booking pages.
func DefaultSettings() Settings {
	return Settings{
		LeadPhrase: "Nächster Termin ab",
		RowKeyword: "Termin",
		Headings: []Query{
			{Selector: "h2", HasText: []string{"Kalender", "Termin"}},
			{Selector: ".calendar h2"},
		},
		CellSelector:  "td, button[role='gridcell'], div[role='gridcell']",
		UnavailableIn: "keine",
		MaxRows:       50,
		MaxCells:      240,
	}
}

// NewDefaultFactory registers the four built-in strategies.
func NewDefaultFactory(s Settings) *StrategyFactory {
	f := NewStrategyFactory()
	f.Register(NewPhraseStrategy(s.LeadPhrase))
	f.Register(&RowsStrategy{Keyword: s.RowKeyword, Limit: s.MaxRows})
	f.Register(&CalendarStrategy{
		Headings:      s.Headings,
		CellSelector:  s.CellSelector,
		UnavailableIn: s.UnavailableIn,
		Limit:         s.MaxCells,
	})
	f.Register(&FallbackStrategy{})
	return f
}

// Chain runs strategies in order and stops at the first one that yields
// at least one candidate.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// BuildChain resolves order against the factory. An empty order uses
// DefaultOrder.
func BuildChain(f *StrategyFactory, order []string) (*Chain, error) {
	if len(order) == 0 {
		order = DefaultOrder
	}
	strategies := make([]Strategy, 0, len(order))
	for _, id := range order {
		s, err := f.Get(id)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return NewChain(strategies...), nil
}

// IDs lists the strategy IDs in run order.
func (c *Chain) IDs() []string {
	ids := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		ids[i] = s.ID()
	}
	return ids
}

func (c *Chain) Run(ctx context.Context, page Page) Result {
	for _, s := range c.strategies {
		candidates, err := runStrategy(ctx, s, page)
		log := logger.Log.WithField("strategy", s.ID())
		if err != nil {
			log.WithError(err).Debug("Strategy contributed nothing")
			continue
		}
		best, ok := earliestCandidate(candidates)
		if !ok {
			log.Debug("Strategy found no dates")
			continue
		}

		found := best.Date
		log.WithFields(logrus.Fields{
			"found":      found.String(),
			"candidates": len(candidates),
		}).Info("Strategy produced a date")
		return Result{Date: &found, Strategy: s.ID(), Candidates: len(candidates), Detail: best.Detail}
	}
	return Result{}
}

// runStrategy shields the chain from a panicking strategy.
func runStrategy(ctx context.Context, s Strategy, page Page) (candidates []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.ID(), r)
		}
	}()
	return s.Extract(ctx, page)
}

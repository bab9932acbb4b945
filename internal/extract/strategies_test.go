package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/termin-watch/internal/logger"
	"github.com/david/termin-watch/internal/models"
)

type stubStrategy struct {
	id     string
	result []Candidate
	err    error
	panics bool
	calls  int
}

func (s *stubStrategy) ID() string { return s.id }

func (s *stubStrategy) Extract(ctx context.Context, page Page) ([]Candidate, error) {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func TestChain_StopsAtFirstStrategyWithCandidates(t *testing.T) {
	logger.Discard()

	first := &stubStrategy{id: "first"}
	second := &stubStrategy{id: "second", result: []Candidate{
		{Date: models.MustDate(2025, time.March, 9)},
		{Date: models.MustDate(2025, time.March, 2), Detail: "09:30 Uhr"},
	}}
	third := &stubStrategy{id: "third", result: []Candidate{{Date: models.MustDate(2025, time.January, 1)}}}

	res := NewChain(first, second, third).Run(context.Background(), nil)

	require.True(t, res.Found())
	assert.Equal(t, models.MustDate(2025, time.March, 2), *res.Date)
	assert.Equal(t, "second", res.Strategy)
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, "09:30 Uhr", res.Detail)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls, "later strategies must not run once one succeeded")
}

func TestChain_FailingStrategiesContributeNothing(t *testing.T) {
	logger.Discard()

	failing := &stubStrategy{id: "failing", err: errors.New("no body")}
	panicking := &stubStrategy{id: "panicking", panics: true}
	empty := &stubStrategy{id: "empty", result: []Candidate{}}
	last := &stubStrategy{id: "last", result: []Candidate{{Date: models.MustDate(2025, time.May, 5)}}}

	res := NewChain(failing, panicking, empty, last).Run(context.Background(), nil)

	require.True(t, res.Found())
	assert.Equal(t, "last", res.Strategy)
	assert.Equal(t, 1, panicking.calls)
}

func TestChain_NoResult(t *testing.T) {
	logger.Discard()

	res := NewChain(&stubStrategy{id: "a"}, &stubStrategy{id: "b", err: ErrNoElement}).Run(context.Background(), nil)
	assert.False(t, res.Found())
	assert.Equal(t, Result{}, res)
}

func TestBuildChain(t *testing.T) {
	f := NewDefaultFactory(DefaultSettings())

	c, err := BuildChain(f, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOrder, c.IDs())

	c, err = BuildChain(f, []string{StrategyFallback, StrategyPhrase})
	require.NoError(t, err)
	assert.Equal(t, []string{StrategyFallback, StrategyPhrase}, c.IDs())

	_, err = BuildChain(f, []string{"phrase", "ocr"})
	assert.EqualError(t, err, "strategy not found: ocr")
}

package extract

import (
	"context"
	"errors"
	"strings"
)

// ErrNoElement is returned by Page implementations when a scope or
// selector matches nothing. Strategies treat it like any other failure.
var ErrNoElement = errors.New("extract: element not found")

// Query selects elements on a page. HasText keeps elements whose text
// contains any of the given substrings, HasNotText drops elements whose
// text contains it. Both filters ignore case. Limit caps the number of returned elements, 0 means
// no cap.
type Query struct {
	Selector   string
	HasText    []string
	HasNotText string
	Limit      int
}

// Matches applies the text filters of q to an element's text.
func (q Query) Matches(text string) bool {
	text = strings.ToLower(text)
	if q.HasNotText != "" && strings.Contains(text, strings.ToLower(q.HasNotText)) {
		return false
	}
	if len(q.HasText) == 0 {
		return true
	}
	for _, t := range q.HasText {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// Element is a single node returned by Page.Query.
type Element interface {
	Text() (string, error)
	Visible() (bool, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
}

// Page is the read side of the booking page: everything the extraction
// strategies are allowed to ask. Every call may fail.
type Page interface {
	// VisibleText returns the rendered text of the first element matching scope.
	VisibleText(ctx context.Context, scope string) (string, error)
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	Query(ctx context.Context, q Query) ([]Element, error)
}

// Package htmlpage implements extract.Page over a static HTML snapshot.
// It backs the probe tool and the strategy tests; the live flow uses the
// browser package instead.
package htmlpage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/david/termin-watch/internal/extract"
)

// Page is a parsed document.
type Page struct {
	doc *goquery.Document
}

var _ extract.Page = (*Page)(nil)

func FromReader(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{doc: doc}, nil
}

func FromHTML(s string) (*Page, error) {
	return FromReader(strings.NewReader(s))
}

func (p *Page) VisibleText(ctx context.Context, scope string) (string, error) {
	sel := p.doc.Find(scope).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", extract.ErrNoElement, scope)
	}
	return renderedText(sel), nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.doc.Html()
}

func (p *Page) Query(ctx context.Context, q extract.Query) ([]extract.Element, error) {
	var out []extract.Element
	p.doc.Find(q.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !q.Matches(renderedText(s)) {
			return true
		}
		out = append(out, &Element{sel: s})
		return q.Limit <= 0 || len(out) < q.Limit
	})
	return out, nil
}

// Contains reports whether any element's own rendered text equals label
// after whitespace normalization. The probe tool uses it to check that
// the landing page still offers the expected unit.
func (p *Page) Contains(label string) bool {
	want := strings.Join(strings.Fields(label), " ")
	found := false
	p.doc.Find("a, button, span, li, div, label").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if renderedText(s) == want {
			found = true
			return false
		}
		return true
	})
	return found
}

// Element wraps a single goquery node.
type Element struct {
	sel *goquery.Selection
}

func (e *Element) Text() (string, error) {
	return renderedText(e.sel), nil
}

// Visible approximates CSS visibility from markup alone: hidden
// attributes, aria-hidden and inline display/visibility styles on the
// element or any ancestor.
func (e *Element) Visible() (bool, error) {
	for n := e.sel.Get(0); n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if hiddenNode(n) {
			return false, nil
		}
	}
	return true, nil
}

func (e *Element) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func hiddenNode(n *html.Node) bool {
	if n.Data == "input" && attr(n, "type") == "hidden" {
		return true
	}
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(a.Val, "true") {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

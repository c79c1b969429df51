package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type selectionNode struct {
	sel *goquery.Selection
}

// FromSelection wraps a goquery selection as a listing node.
func FromSelection(sel *goquery.Selection) Node {
	return selectionNode{sel: sel}
}

func (n selectionNode) find(selector string) (*goquery.Selection, error) {
	if selector == "" {
		return n.sel, nil
	}
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	return found, nil
}

func (n selectionNode) Text(selector string) (string, error) {
	s, err := n.find(selector)
	if err != nil {
		return "", err
	}
	return s.Text(), nil
}

func (n selectionNode) Attr(selector, name string) (string, error) {
	s, err := n.find(selector)
	if err != nil {
		return "", err
	}
	v, ok := s.Attr(name)
	if !ok {
		return "", fmt.Errorf("%w: %s@%s", ErrNoMatch, selector, name)
	}
	return v, nil
}

// Listings parses a page snapshot and returns the listing nodes matched by the
// first selector that finds anything.
func Listings(html string, selectors []string) ([]Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	for _, selector := range selectors {
		found := doc.Find(selector)
		if found.Length() == 0 {
			continue
		}
		nodes := make([]Node, 0, found.Length())
		found.Each(func(_ int, s *goquery.Selection) {
			nodes = append(nodes, FromSelection(s))
		})
		return nodes, nil
	}
	return nil, nil
}

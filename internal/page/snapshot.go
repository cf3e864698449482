package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a Document backed by a parsed HTML string. It is what the
// extractor tests run against, and what batch runs use when pages are
// captured once and parsed offline.
type Snapshot struct {
	doc *goquery.Document
}

func NewSnapshot(html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Snapshot{doc: doc}, nil
}

func (s *Snapshot) First(selector string) (Element, bool) {
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &snapshotElement{sel: sel}, true
}

func (s *Snapshot) All(selector string) []Element {
	var out []Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &snapshotElement{sel: sel})
	})
	return out
}

func (s *Snapshot) Text() string {
	return strings.TrimSpace(s.doc.Text())
}

type snapshotElement struct {
	sel *goquery.Selection
}

func (e *snapshotElement) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e *snapshotElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *snapshotElement) First(selector string) (Element, bool) {
	sel := e.sel.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &snapshotElement{sel: sel}, true
}

func (e *snapshotElement) All(selector string) []Element {
	var out []Element
	e.sel.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &snapshotElement{sel: sel})
	})
	return out
}

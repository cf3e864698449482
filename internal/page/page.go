// Package page isolates the site-specific DOM coupling behind a small
// read-only query interface. The extractor only ever talks to a
// Document, so it can run against live Playwright pages and against
// offline HTML snapshots alike.
package page

import "errors"

// ErrElementNotFound is returned by lookups that matched nothing. The
// extractor treats it as a signal to try the next fallback strategy.
var ErrElementNotFound = errors.New("element not found")

// Element is one matched DOM node. Sub-queries are scoped to the node.
type Element interface {
	// Text returns the node's trimmed text content.
	Text() string
	// Attr returns the named attribute value.
	Attr(name string) (string, bool)
	// First returns the first descendant matching the selector.
	First(selector string) (Element, bool)
	// All returns every descendant matching the selector, in document
	// order.
	All(selector string) []Element
}

// Document is a full page snapshot.
type Document interface {
	// First returns the first element matching the selector.
	First(selector string) (Element, bool)
	// All returns every element matching the selector, in document
	// order.
	All(selector string) []Element
	// Text returns the text content of the whole page. Used only by
	// last-resort page-wide scans.
	Text() string
}

// Count reports how many elements match the selector.
func Count(d Document, selector string) int {
	return len(d.All(selector))
}

package page

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Live is a Document over an open Playwright page. Lookup errors from
// the browser layer surface as "not found" outcomes; the extractor's
// fallback chains are the retry mechanism.
type Live struct {
	page playwright.Page
}

func NewLive(p playwright.Page) *Live {
	return &Live{page: p}
}

func (l *Live) First(selector string) (Element, bool) {
	handle, err := l.page.QuerySelector(selector)
	if err != nil || handle == nil {
		return nil, false
	}
	return &liveElement{handle: handle}, true
}

func (l *Live) All(selector string) []Element {
	handles, err := l.page.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &liveElement{handle: h})
	}
	return out
}

func (l *Live) Text() string {
	body, err := l.page.QuerySelector("body")
	if err != nil || body == nil {
		return ""
	}
	text, err := body.TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

type liveElement struct {
	handle playwright.ElementHandle
}

func (e *liveElement) Text() string {
	text, err := e.handle.TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *liveElement) Attr(name string) (string, bool) {
	val, err := e.handle.GetAttribute(name)
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func (e *liveElement) First(selector string) (Element, bool) {
	handle, err := e.handle.QuerySelector(selector)
	if err != nil || handle == nil {
		return nil, false
	}
	return &liveElement{handle: handle}, true
}

func (e *liveElement) All(selector string) []Element {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &liveElement{handle: h})
	}
	return out
}

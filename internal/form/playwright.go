package form

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// select2Placeholder is the untranslated placeholder the destination
// ERP renders in unselected dropdowns ("please select").
const select2Placeholder = "请选择"

// PageWriter fills the destination form on a live browser page. Each
// form field sits in a container div carrying an attrkey attribute; the
// widget inside decides the write strategy.
type PageWriter struct {
	page   playwright.Page
	logger *slog.Logger
}

func NewPageWriter(page playwright.Page, logger *slog.Logger) *PageWriter {
	return &PageWriter{
		page:   page,
		logger: logger.With("component", "form_writer"),
	}
}

func (w *PageWriter) container(target string) (playwright.Locator, error) {
	loc := w.page.Locator(fmt.Sprintf("div[attrkey=%q]", target)).First()
	count, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to query field container: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, target)
	}
	return loc, nil
}

// Fill locates the container for target and writes value using the
// first widget strategy that applies: textarea, select2 dropdown,
// plain text input, then TinyMCE rich-text iframe.
func (w *PageWriter) Fill(ctx context.Context, target, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	container, err := w.container(target)
	if err != nil {
		return err
	}

	if ok, err := w.fillTextarea(container, value); ok || err != nil {
		return err
	}
	if ok, err := w.fillSelect2(container, value); ok || err != nil {
		return err
	}
	if ok, err := w.fillTextInput(container, value); ok || err != nil {
		return err
	}
	if ok, err := w.fillRichText(container, value); ok || err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedWidget, target)
}

func (w *PageWriter) fillTextarea(container playwright.Locator, value string) (bool, error) {
	loc := container.Locator("textarea").First()
	count, err := loc.Count()
	if err != nil || count == 0 {
		return false, nil
	}
	if err := loc.Fill(value); err != nil {
		return true, fmt.Errorf("failed to fill textarea: %w", err)
	}
	return true, nil
}

// fillSelect2 opens the dropdown and picks the option matching value,
// preferring an exact text match over a substring match.
func (w *PageWriter) fillSelect2(container playwright.Locator, value string) (bool, error) {
	dropdown := container.Locator("div.select2-container.selectBatchAdd").First()
	count, err := dropdown.Count()
	if err != nil || count == 0 {
		return false, nil
	}

	// Unselected dropdowns render a placeholder link; already-selected
	// ones still expose the choice anchor.
	link := dropdown.Locator(fmt.Sprintf(`a:has-text(%q)`, select2Placeholder)).First()
	if linkCount, err := link.Count(); err != nil || linkCount == 0 {
		link = dropdown.Locator("a.select2-choice").First()
	}
	if err := link.Click(); err != nil {
		return true, fmt.Errorf("failed to open dropdown: %w", err)
	}
	// The option list is rendered into a detached overlay, not inside
	// the container.
	options := w.page.Locator("ul.select2-results li div.select2-result-label")
	texts, err := options.AllTextContents()
	if err != nil {
		return true, fmt.Errorf("failed to read dropdown options: %w", err)
	}

	index := matchOption(texts, value)
	if index < 0 {
		// Close the overlay so the next field is reachable.
		w.page.Keyboard().Press("Escape")
		return true, fmt.Errorf("%w: %q", ErrOptionNotFound, value)
	}
	if err := options.Nth(index).Click(); err != nil {
		return true, fmt.Errorf("failed to click dropdown option: %w", err)
	}
	return true, nil
}

func matchOption(options []string, value string) int {
	for i, opt := range options {
		if strings.TrimSpace(opt) == value {
			return i
		}
	}
	for i, opt := range options {
		if strings.Contains(opt, value) || strings.Contains(value, strings.TrimSpace(opt)) {
			return i
		}
	}
	return -1
}

// fillTextInput writes the value and confirms with Enter; several of
// the destination inputs only commit their value on Enter.
func (w *PageWriter) fillTextInput(container playwright.Locator, value string) (bool, error) {
	loc := container.Locator("input[type='text']").First()
	count, err := loc.Count()
	if err != nil || count == 0 {
		return false, nil
	}
	if err := loc.Fill(value); err != nil {
		return true, fmt.Errorf("failed to fill text input: %w", err)
	}
	if err := loc.Press("Enter"); err != nil {
		return true, fmt.Errorf("failed to confirm text input: %w", err)
	}
	return true, nil
}

func (w *PageWriter) fillRichText(container playwright.Locator, value string) (bool, error) {
	iframe := container.Locator("iframe").First()
	count, err := iframe.Count()
	if err != nil || count == 0 {
		return false, nil
	}
	body := container.FrameLocator("iframe").Locator("body").First()
	if err := body.Fill(value); err != nil {
		return true, fmt.Errorf("failed to fill rich text editor: %w", err)
	}
	return true, nil
}

// Inspect walks every attrkey container on the page and reports its
// label, widget kind and whether it is marked required. Used to build
// mapping rule files against a new form layout.
func (w *PageWriter) Inspect(ctx context.Context) ([]Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	containers := w.page.Locator("div[attrkey]")
	count, err := containers.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate form fields: %w", err)
	}

	fields := make([]Field, 0, count)
	for i := 0; i < count; i++ {
		container := containers.Nth(i)
		key, err := container.GetAttribute("attrkey")
		if err != nil || key == "" {
			continue
		}
		fields = append(fields, Field{
			Key:      key,
			Label:    w.fieldLabel(container),
			Widget:   w.widgetKind(container),
			Required: w.fieldRequired(container),
		})
	}
	w.logger.Info("form inspected", "fields", len(fields))
	return fields, nil
}

func (w *PageWriter) fieldLabel(container playwright.Locator) string {
	label := container.Locator("label, span.item-title").First()
	if count, err := label.Count(); err != nil || count == 0 {
		return ""
	}
	text, err := label.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "*"))
}

func (w *PageWriter) fieldRequired(container playwright.Locator) bool {
	marker := container.Locator("span.required, em.required").First()
	if count, err := marker.Count(); err == nil && count > 0 {
		return true
	}
	label := container.Locator("label, span.item-title").First()
	if count, err := label.Count(); err != nil || count == 0 {
		return false
	}
	text, err := label.TextContent()
	if err != nil {
		return false
	}
	return strings.Contains(text, "*")
}

func (w *PageWriter) widgetKind(container playwright.Locator) WidgetKind {
	probes := []struct {
		selector string
		kind     WidgetKind
	}{
		{"textarea", WidgetTextarea},
		{"div.select2-container.selectBatchAdd", WidgetSelect},
		{"input[type='text']", WidgetTextInput},
		{"iframe", WidgetRichText},
	}
	for _, p := range probes {
		if count, err := container.Locator(p.selector).First().Count(); err == nil && count > 0 {
			return p.kind
		}
	}
	return WidgetUnknown
}

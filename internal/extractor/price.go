package extractor

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/page"
	"github.com/hanwei-dev/listing-autofill/internal/units"
)

// Amazon renders the regular (non-member) price in several layouts
// depending on the template in use. The tiers below are ordered from
// most to least reliable; the first hit wins. Member and subscription
// prices live in differently labelled accordion rows and are never
// picked up.
const (
	strategyHiddenField  = "hidden_field"
	strategyAccordionRow = "regular_price_accordion"
	strategyStandard     = "standard_selectors"
)

var standardPriceSelectors = []string{
	"span.a-price.a-text-price.a-size-medium span.a-offscreen",
	"#corePrice_feature_div span.a-price span.a-offscreen",
	"#corePriceDisplay_desktop_feature_div span.a-price span.a-offscreen",
	"span[data-a-color='price'] span.a-offscreen",
	"div.a-price span.a-offscreen",
}

func (e *Extractor) extractPrice(ctx context.Context, doc page.Document, rec *models.Record, runID uuid.UUID) {
	if price := e.priceFromHiddenFields(ctx, doc, rec.ASIN, runID); price != nil {
		rec.Price = price
		return
	}
	if price := e.priceFromAccordion(ctx, doc, rec.ASIN, runID); price != nil {
		rec.Price = price
		return
	}
	if price := e.priceFromStandardSelectors(ctx, doc, rec.ASIN, runID); price != nil {
		rec.Price = price
		return
	}
	e.logger.Warn("no price found", "asin", rec.ASIN)
}

// priceFromHiddenFields reads the hidden inputs the add-accessory
// widget carries. When present they hold the exact base product price,
// unaffected by promotions rendered on top.
func (e *Extractor) priceFromHiddenFields(ctx context.Context, doc page.Document, asin string, runID uuid.UUID) *models.Price {
	input, ok := doc.First("input#attach-base-product-price")
	if !ok {
		e.record(ctx, runID, asin, "price", strategyHiddenField, audit.OutcomeNotFound, "", "hidden price input absent")
		return nil
	}
	raw, _ := input.Attr("value")
	amount, symbol, err := units.Currency(raw)
	if err != nil {
		e.record(ctx, runID, asin, "price", strategyHiddenField, audit.OutcomeUnparseable, raw, err.Error())
		return nil
	}
	if sym, ok := doc.First("input#attach-base-product-currency-symbol"); ok {
		if v, found := sym.Attr("value"); found && strings.TrimSpace(v) != "" {
			symbol = strings.TrimSpace(v)
		}
	}
	e.record(ctx, runID, asin, "price", strategyHiddenField, audit.OutcomeOK, raw, "")
	return &models.Price{Amount: amount, CurrencySymbol: symbol, Source: models.PriceSourceHiddenField}
}

// priceFromAccordion walks the buying-options accordion and takes the
// price out of the row whose caption says "Regular Price". Rows for
// member or subscribe-and-save prices fail the caption check.
func (e *Extractor) priceFromAccordion(ctx context.Context, doc page.Document, asin string, runID uuid.UUID) *models.Price {
	rows := doc.All("div[data-a-accordion-row-name]")
	if len(rows) == 0 {
		e.record(ctx, runID, asin, "price", strategyAccordionRow, audit.OutcomeNotFound, "", "no accordion rows")
		return nil
	}
	for _, row := range rows {
		if !rowIsRegularPrice(row) {
			continue
		}
		if amount, symbol, raw, ok := priceFromRow(row); ok {
			e.record(ctx, runID, asin, "price", strategyAccordionRow, audit.OutcomeOK, raw, "")
			return &models.Price{Amount: amount, CurrencySymbol: symbol, Source: models.PriceSourceRegularPriceSection}
		}
	}
	e.record(ctx, runID, asin, "price", strategyAccordionRow, audit.OutcomeNotFound, "", "no regular price row")
	return nil
}

func rowIsRegularPrice(row page.Element) bool {
	if caption, ok := row.First(".accordion-caption"); ok {
		return containsFold(caption.Text(), "regular price")
	}
	for _, caption := range row.All("[id*='Caption']") {
		if containsFold(caption.Text(), "regular price") {
			return true
		}
	}
	name, _ := row.Attr("data-a-accordion-row-name")
	return containsFold(name, "regular")
}

func priceFromRow(row page.Element) (amount float64, symbol, raw string, ok bool) {
	for _, off := range row.All("span.a-offscreen") {
		text := off.Text()
		if a, s, err := units.Currency(text); err == nil {
			return a, s, text, true
		}
	}
	whole, haveWhole := row.First("span.a-price-whole")
	fraction, haveFraction := row.First("span.a-price-fraction")
	if haveWhole && haveFraction {
		text := strings.TrimSuffix(whole.Text(), ".") + "." + fraction.Text()
		if sym, found := row.First("span.a-price-symbol"); found {
			text = sym.Text() + text
		}
		if a, s, err := units.Currency(text); err == nil {
			return a, s, text, true
		}
	}
	return 0, "", "", false
}

// priceFromStandardSelectors is the last resort. Sections that carry an
// explicit "Regular Price" label are preferred over the first matching
// generic price element.
func (e *Extractor) priceFromStandardSelectors(ctx context.Context, doc page.Document, asin string, runID uuid.UUID) *models.Price {
	for _, section := range doc.All("div.a-section") {
		if !containsFold(section.Text(), "regular price") {
			continue
		}
		for _, off := range section.All("span.a-offscreen") {
			text := off.Text()
			if amount, symbol, err := units.Currency(text); err == nil {
				e.record(ctx, runID, asin, "price", strategyStandard, audit.OutcomeOK, text, "labelled section")
				return &models.Price{Amount: amount, CurrencySymbol: symbol, Source: models.PriceSourceStandard}
			}
		}
	}
	for _, sel := range standardPriceSelectors {
		el, ok := doc.First(sel)
		if !ok {
			continue
		}
		text := el.Text()
		amount, symbol, err := units.Currency(text)
		if err != nil {
			e.record(ctx, runID, asin, "price", strategyStandard, audit.OutcomeUnparseable, text, err.Error())
			continue
		}
		e.record(ctx, runID, asin, "price", strategyStandard, audit.OutcomeOK, text, "")
		return &models.Price{Amount: amount, CurrencySymbol: symbol, Source: models.PriceSourceStandard}
	}
	e.record(ctx, runID, asin, "price", strategyStandard, audit.OutcomeNotFound, "", "no selector matched")
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

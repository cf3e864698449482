package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/page"
)

// Variant picker selectors. Amazon exposes the selected option either
// through the expanded twister text or the dimension title value.
var (
	selectedColorSelectors = []string{
		"#inline-twister-expanded-dimension-text-color_name",
		"#inline-twister-dim-title-color_name .inline-twister-dim-title-value",
		"#variation_color_name .selection",
	}
	colorSwatchSelector = "#inline-twister-row-color_name li img.swatch-image"

	selectedQuantitySelectors = []string{
		"#inline-twister-expanded-dimension-text-item_package_quantity",
		"#inline-twister-dim-title-item_package_quantity .inline-twister-dim-title-value",
	}
)

var packPrefix = regexp.MustCompile(`(?i)^\d+-pack\s+`)

// extractVariants fills Color and Package Quantity from the variant
// picker when the detail tables did not provide them. Swatch images
// carry the full option list in their alt text.
func (e *Extractor) extractVariants(ctx context.Context, doc page.Document, rec *models.Record, runID uuid.UUID) {
	if _, ok := rec.Details.Get("Color"); !ok {
		if color := selectedVariant(doc, selectedColorSelectors); color != "" {
			rec.Details.Set("Color", color)
			e.record(ctx, runID, rec.ASIN, "color", "variant_selection", audit.OutcomeOK, color, "")
		}
	}
	if colors := availableColors(doc); len(colors) > 0 {
		rec.Details.Set("Available Colors", strings.Join(colors, ", "))
	}
	if _, ok := rec.Details.Get("Package Quantity"); !ok {
		if qty := selectedVariant(doc, selectedQuantitySelectors); qty != "" {
			rec.Details.Set("Package Quantity", qty)
			e.record(ctx, runID, rec.ASIN, "package_quantity", "variant_selection", audit.OutcomeOK, qty, "")
		}
	}
}

func selectedVariant(doc page.Document, sels []string) string {
	for _, sel := range sels {
		el, ok := doc.First(sel)
		if !ok {
			continue
		}
		if text := cleanVariantText(el.Text()); text != "" {
			return text
		}
	}
	return ""
}

func availableColors(doc page.Document) []string {
	var colors []string
	for _, img := range doc.All(colorSwatchSelector) {
		alt, _ := img.Attr("alt")
		if c := cleanVariantText(alt); c != "" {
			colors = append(colors, c)
		}
	}
	return colors
}

func cleanVariantText(raw string) string {
	s := strings.TrimSpace(raw)
	s = packPrefix.ReplaceAllString(s, "")
	for _, prefix := range []string{"color:", "colour:"} {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	return strings.TrimSpace(strings.TrimRight(s, "."))
}

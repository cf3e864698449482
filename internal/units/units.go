// Package units parses numeric strings with embedded units (currency,
// weight, length) into canonical numeric + unit pairs.
package units

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/hanwei-dev/listing-autofill/internal/models"
)

var (
	// ErrNotFound means no recognizable numeric+unit pair was present.
	ErrNotFound = errors.New("no recognizable value")
	// ErrAmbiguous means the text matched but its structure could not be
	// resolved without guessing (e.g. a two-component dimension string).
	ErrAmbiguous = errors.New("ambiguous structure")
)

const (
	PoundsPerOunce     = 1.0 / 16.0
	PoundsPerKilogram  = 2.20462
	PoundsPerGram      = 0.00220462
	CentimetersPerInch = 2.54
)

var (
	weightPattern = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)\s*(pounds?|lbs?|ounces?|oz|kilograms?|kgs?|kg|grams?|g)\b`)

	currencyPattern = regexp.MustCompile(`^([$€£¥])?\s*(\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)$`)

	lengthUnitPattern = regexp.MustCompile(`(?i)\b(inch(?:es)?|in|centimeters?|cm)\b|"`)

	dimensionSplit = regexp.MustCompile(`\s*[x×]\s*`)

	numberPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?`)
)

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

// Weight parses text like "2.5 kg" or "16 ounces" and converts the
// amount to pounds. The returned Unit records the scraped unit.
func Weight(raw string) (*models.Weight, error) {
	m := weightPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, ErrNotFound
	}
	amount, err := parseNumber(m[1])
	if err != nil {
		return nil, ErrNotFound
	}

	unit := normalizeWeightUnit(m[2])
	switch unit {
	case models.WeightUnitOunce:
		amount *= PoundsPerOunce
	case models.WeightUnitKilogram:
		amount *= PoundsPerKilogram
	case models.WeightUnitGram:
		amount *= PoundsPerGram
	}

	return &models.Weight{Amount: amount, Unit: unit}, nil
}

func normalizeWeightUnit(unit string) models.WeightUnit {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "lb", "lbs", "pound", "pounds":
		return models.WeightUnitPound
	case "oz", "ounce", "ounces":
		return models.WeightUnitOunce
	case "kg", "kgs", "kilogram", "kilograms":
		return models.WeightUnitKilogram
	default:
		return models.WeightUnitGram
	}
}

// Currency parses a money string such as "$1,299.99". A leading symbol
// determines the currency symbol; an empty symbol is allowed.
func Currency(raw string) (amount float64, symbol string, err error) {
	m := currencyPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, "", ErrNotFound
	}
	amount, perr := parseNumber(m[2])
	if perr != nil {
		return 0, "", ErrNotFound
	}
	return amount, m[1], nil
}

// Length parses a single length value like `24 inches` or `15"D`.
func Length(raw string) (float64, models.LengthUnit, error) {
	nums := numberPattern.FindAllString(raw, -1)
	if len(nums) != 1 {
		return 0, "", ErrNotFound
	}
	v, err := parseNumber(nums[0])
	if err != nil {
		return 0, "", ErrNotFound
	}
	return v, lengthUnitOf(raw), nil
}

func lengthUnitOf(raw string) models.LengthUnit {
	m := lengthUnitPattern.FindString(raw)
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "cm", "centimeter", "centimeters":
		return models.LengthUnitCentimeter
	default:
		// Inches are the default on amazon.com listings, including the
		// `15"D` notation.
		return models.LengthUnitInch
	}
}

// Dimensions parses a compound "L x W x H" string such as
// `15"D x 22.83"W x 24"H` or "10 x 8 x 6 inches". A trailing unit token
// applies to every component. Any component count other than exactly
// three is rejected rather than guessed.
func Dimensions(raw string) (*models.Dimensions, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNotFound
	}

	parts := dimensionSplit.Split(raw, -1)
	if len(parts) == 1 {
		return nil, ErrNotFound
	}
	if len(parts) != 3 {
		return nil, ErrAmbiguous
	}

	unit := lengthUnitOf(raw)
	var vals [3]float64
	for i, part := range parts {
		nums := numberPattern.FindAllString(part, -1)
		if len(nums) != 1 {
			return nil, ErrAmbiguous
		}
		v, err := parseNumber(nums[0])
		if err != nil {
			return nil, ErrAmbiguous
		}
		vals[i] = v
	}

	return &models.Dimensions{
		Length: vals[0],
		Width:  vals[1],
		Height: vals[2],
		Unit:   unit,
	}, nil
}

// ToCentimeters converts a dimensions value from inches to centimeters.
// Values already in centimeters are returned unchanged.
func ToCentimeters(d *models.Dimensions) *models.Dimensions {
	if d == nil || d.Unit == models.LengthUnitCentimeter {
		return d
	}
	return &models.Dimensions{
		Length: round2(d.Length * CentimetersPerInch),
		Width:  round2(d.Width * CentimetersPerInch),
		Height: round2(d.Height * CentimetersPerInch),
		Unit:   models.LengthUnitCentimeter,
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanwei-dev/listing-autofill/internal/models"
)

func TestWeight(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		pounds   float64
		unit     models.WeightUnit
		hasError bool
	}{
		{
			name:   "pounds pass through",
			raw:    "12.6 pounds",
			pounds: 12.6,
			unit:   models.WeightUnitPound,
		},
		{
			name:   "lbs abbreviation",
			raw:    "Shipping Weight: 3 lbs",
			pounds: 3,
			unit:   models.WeightUnitPound,
		},
		{
			name:   "ounces convert exactly",
			raw:    "16 oz",
			pounds: 1.0,
			unit:   models.WeightUnitOunce,
		},
		{
			name:   "kilograms convert",
			raw:    "2.5 kg",
			pounds: 2.5 * 2.20462,
			unit:   models.WeightUnitKilogram,
		},
		{
			name:   "grams convert",
			raw:    "500 grams",
			pounds: 500 * 0.00220462,
			unit:   models.WeightUnitGram,
		},
		{
			name:   "thousands separator",
			raw:    "1,200 pounds",
			pounds: 1200,
			unit:   models.WeightUnitPound,
		},
		{
			name:   "unit is case insensitive",
			raw:    "4 Pounds",
			pounds: 4,
			unit:   models.WeightUnitPound,
		},
		{
			name:     "number without unit",
			raw:      "42",
			hasError: true,
		},
		{
			name:     "no numeric content",
			raw:      "heavy item",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Weight(tt.raw)
			if tt.hasError {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.pounds, w.Amount, 0.01)
			assert.Equal(t, tt.unit, w.Unit)
		})
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		amount   float64
		symbol   string
		hasError bool
	}{
		{name: "dollar price", raw: "$99.99", amount: 99.99, symbol: "$"},
		{name: "thousands separator", raw: "$1,299.00", amount: 1299, symbol: "$"},
		{name: "euro symbol", raw: "€45.50", amount: 45.5, symbol: "€"},
		{name: "bare number keeps empty symbol", raw: "12.95", amount: 12.95, symbol: ""},
		{name: "symbol with space", raw: "$ 7.25", amount: 7.25, symbol: "$"},
		{name: "non numeric remainder", raw: "$see options", hasError: true},
		{name: "empty string", raw: "", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, symbol, err := Currency(tt.raw)
			if tt.hasError {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.amount, amount, 0.001)
			assert.Equal(t, tt.symbol, symbol)
		})
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *models.Dimensions
		wantErr error
	}{
		{
			name: "trailing unit applies to all components",
			raw:  "10 x 8 x 6 inches",
			want: &models.Dimensions{Length: 10, Width: 8, Height: 6, Unit: models.LengthUnitInch},
		},
		{
			name: "per component inch markers",
			raw:  `15"D x 22.83"W x 24"H`,
			want: &models.Dimensions{Length: 15, Width: 22.83, Height: 24, Unit: models.LengthUnitInch},
		},
		{
			name: "centimeters",
			raw:  "30 x 20 x 10 cm",
			want: &models.Dimensions{Length: 30, Width: 20, Height: 10, Unit: models.LengthUnitCentimeter},
		},
		{
			name: "unicode multiplication sign",
			raw:  "5 × 4 × 3 in",
			want: &models.Dimensions{Length: 5, Width: 4, Height: 3, Unit: models.LengthUnitInch},
		},
		{
			name:    "two components are rejected not guessed",
			raw:     "10 x 8 inches",
			wantErr: ErrAmbiguous,
		},
		{
			name:    "four components are rejected",
			raw:     "1 x 2 x 3 x 4 in",
			wantErr: ErrAmbiguous,
		},
		{
			name:    "single value is not a compound",
			raw:     "24 inches",
			wantErr: ErrNotFound,
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dimensions(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLength(t *testing.T) {
	v, unit, err := Length("24 inches")
	require.NoError(t, err)
	assert.Equal(t, 24.0, v)
	assert.Equal(t, models.LengthUnitInch, unit)

	v, unit, err = Length("12.5 cm")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)
	assert.Equal(t, models.LengthUnitCentimeter, unit)

	_, _, err = Length("10 x 8")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToCentimeters(t *testing.T) {
	in := &models.Dimensions{Length: 10, Width: 8, Height: 6, Unit: models.LengthUnitInch}
	cm := ToCentimeters(in)

	assert.InDelta(t, 25.4, cm.Length, 0.01)
	assert.InDelta(t, 20.32, cm.Width, 0.01)
	assert.InDelta(t, 15.24, cm.Height, 0.01)
	assert.Equal(t, models.LengthUnitCentimeter, cm.Unit)

	// already metric, unchanged
	metric := &models.Dimensions{Length: 30, Width: 20, Height: 10, Unit: models.LengthUnitCentimeter}
	assert.Same(t, metric, ToCentimeters(metric))
}

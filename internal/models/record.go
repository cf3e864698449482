package models

import (
	"strings"
	"time"
)

// PriceSource records which extraction strategy produced a price value.
type PriceSource string

const (
	PriceSourceHiddenField         PriceSource = "hidden_field"
	PriceSourceRegularPriceSection PriceSource = "regular_price_section"
	PriceSourceStandard            PriceSource = "standard"
)

type WeightUnit string

const (
	WeightUnitPound    WeightUnit = "lb"
	WeightUnitOunce    WeightUnit = "oz"
	WeightUnitKilogram WeightUnit = "kg"
	WeightUnitGram     WeightUnit = "g"
)

type LengthUnit string

const (
	LengthUnitInch       LengthUnit = "in"
	LengthUnitCentimeter LengthUnit = "cm"
)

type Price struct {
	Amount         float64     `json:"amount"`
	CurrencySymbol string      `json:"currency_symbol"`
	Source         PriceSource `json:"source"`
}

// Weight holds a normalized weight. Amount is always in pounds; Unit
// records the unit the value was scraped in.
type Weight struct {
	Amount float64    `json:"amount"`
	Unit   WeightUnit `json:"unit"`
}

type Dimensions struct {
	Length float64    `json:"length"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Unit   LengthUnit `json:"unit"`
}

// Record is the canonical output of one product page extraction.
type Record struct {
	ASIN         string      `json:"asin"`
	URL          string      `json:"url"`
	Title        string      `json:"title"`
	Brand        string      `json:"brand"`
	Manufacturer string      `json:"manufacturer"`
	Price        *Price      `json:"price,omitempty"`
	Weight       *Weight     `json:"weight,omitempty"`
	Dimensions   *Dimensions `json:"dimensions,omitempty"`
	Details      *Details    `json:"details"`
	Features     []string    `json:"features"`
	ScrapedAt    time.Time   `json:"scraped_at"`
}

func NewRecord(asin string) *Record {
	return &Record{
		ASIN:      asin,
		Details:   NewDetails(),
		Features:  make([]string, 0),
		ScrapedAt: time.Now(),
	}
}

// HasData reports whether extraction produced anything usable. A record
// that fails this check is still returned to the caller.
func (r *Record) HasData() bool {
	return r.Title != "" || r.Details.Len() > 0
}

func (r *Record) Validate() []string {
	var errs []string
	if r.ASIN == "" {
		errs = append(errs, "ASIN is required")
	}
	if r.Title == "" {
		errs = append(errs, "Title is required")
	}
	if r.Weight == nil || r.Weight.Amount <= 0 {
		errs = append(errs, "Invalid weight")
	}
	return errs
}

// Details is a label/value collection scraped from product detail
// tables. Keys are normalized to lower case; the first value seen for a
// key wins and later duplicates are rejected.
type Details struct {
	keys   []string
	values map[string]string
}

func NewDetails() *Details {
	return &Details{values: make(map[string]string)}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Set stores a label/value pair. It returns false when the key is
// already present (first-seen-wins) or when either side is empty.
func (d *Details) Set(key, value string) bool {
	k := normalizeKey(key)
	v := strings.TrimSpace(value)
	if k == "" || v == "" {
		return false
	}
	if _, dup := d.values[k]; dup {
		return false
	}
	d.keys = append(d.keys, k)
	d.values[k] = v
	return true
}

func (d *Details) Get(key string) (string, bool) {
	v, ok := d.values[normalizeKey(key)]
	return v, ok
}

func (d *Details) GetDefault(key, def string) string {
	if v, ok := d.Get(key); ok {
		return v
	}
	return def
}

func (d *Details) Len() int {
	return len(d.keys)
}

// Keys returns the detail keys in insertion order.
func (d *Details) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Clone returns a deep copy. Projection code works on copies so the
// record itself is never mutated.
func (d *Details) Clone() *Details {
	c := NewDetails()
	for _, k := range d.keys {
		c.keys = append(c.keys, k)
		c.values[k] = d.values[k]
	}
	return c
}

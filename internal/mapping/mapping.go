// Package mapping turns a product record into an ordered list of
// destination form writes. Rules are static configuration loaded once
// at startup; projection is a pure function over (record, rules).
package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/hanwei-dev/listing-autofill/internal/models"
)

// Kind selects the projection behavior of one rule.
type Kind string

const (
	// KindFixed writes a constant value regardless of record content.
	KindFixed Kind = "fixed"
	// KindDirect copies one record value to one form field.
	KindDirect Kind = "direct"
	// KindAggregate joins several record values into one field.
	KindAggregate Kind = "aggregate"
	// KindCompound writes a numeric component of a structured value
	// together with its unit.
	KindCompound Kind = "compound"
)

// AggregateSeparator joins aggregate source values. Destination
// textareas render it as a line break.
const AggregateSeparator = "\n"

// Rule maps record data onto one destination form field. Source keys
// name either a record attribute (title, brand, manufacturer, asin,
// url, features, price, price_symbol, weight) or, with the "detail:"
// prefix, an entry of the scraped detail table.
type Rule struct {
	Target     string   `json:"target"`
	Kind       Kind     `json:"kind"`
	Source     string   `json:"source,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Component  string   `json:"component,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	UnitTarget string   `json:"unit_target,omitempty"`
	Value      string   `json:"value,omitempty"`
}

// Write is one (target field, value) pair produced by projection.
type Write struct {
	Target string
	Value  string
}

// RuleSet is an ordered, validated list of rules. Order is preserved
// from the configuration file so that form writes stay deterministic;
// some destination widgets reveal further fields once filled.
type RuleSet struct {
	rules []Rule
}

func NewRuleSet(rules []Rule) (*RuleSet, error) {
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d (target %q): %w", i, r.Target, err)
		}
	}
	return &RuleSet{rules: rules}, nil
}

// Load reads a rule set from a JSON file.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping rules: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*RuleSet, error) {
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse mapping rules: %w", err)
	}
	return NewRuleSet(rules)
}

func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns a copy of the rule list.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

func validateRule(r Rule) error {
	if r.Target == "" {
		return fmt.Errorf("missing target")
	}
	switch r.Kind {
	case KindFixed:
		if r.Value == "" {
			return fmt.Errorf("fixed rule needs a value")
		}
	case KindDirect:
		if r.Source == "" {
			return fmt.Errorf("direct rule needs a source")
		}
		if !validSource(r.Source) {
			return fmt.Errorf("unknown source %q", r.Source)
		}
	case KindAggregate:
		if len(r.Sources) == 0 {
			return fmt.Errorf("aggregate rule needs sources")
		}
		for _, s := range r.Sources {
			if !validSource(s) {
				return fmt.Errorf("unknown source %q", s)
			}
		}
	case KindCompound:
		if r.Source != "dimensions" && r.Source != "weight" {
			return fmt.Errorf("compound rule source must be dimensions or weight, got %q", r.Source)
		}
		if r.Source == "dimensions" {
			switch r.Component {
			case "length", "width", "height":
			default:
				return fmt.Errorf("unknown dimension component %q", r.Component)
			}
		}
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	return nil
}

func validSource(s string) bool {
	if strings.HasPrefix(s, "detail:") {
		return len(s) > len("detail:")
	}
	switch s {
	case "title", "brand", "manufacturer", "asin", "url", "features", "price", "price_symbol", "weight":
		return true
	}
	return false
}

// Project applies the rules to the record in declared order. Rules
// whose source data is absent produce no write. The record is never
// modified.
func (rs *RuleSet) Project(rec *models.Record) []Write {
	writes := make([]Write, 0, len(rs.rules))
	for _, rule := range rs.rules {
		writes = append(writes, projectRule(rec, rule)...)
	}
	return writes
}

func projectRule(rec *models.Record, rule Rule) []Write {
	switch rule.Kind {
	case KindFixed:
		return []Write{{Target: rule.Target, Value: rule.Value}}
	case KindDirect:
		v, ok := resolve(rec, rule.Source)
		if !ok {
			return nil
		}
		return []Write{{Target: rule.Target, Value: v}}
	case KindAggregate:
		var parts []string
		for _, src := range rule.Sources {
			if v, ok := resolve(rec, src); ok {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		return []Write{{Target: rule.Target, Value: strings.Join(parts, AggregateSeparator)}}
	case KindCompound:
		return projectCompound(rec, rule)
	}
	return nil
}

func projectCompound(rec *models.Record, rule Rule) []Write {
	var amount float64
	var unit string

	switch rule.Source {
	case "dimensions":
		if rec.Dimensions == nil {
			return nil
		}
		switch rule.Component {
		case "length":
			amount = rec.Dimensions.Length
		case "width":
			amount = rec.Dimensions.Width
		case "height":
			amount = rec.Dimensions.Height
		}
		unit = string(rec.Dimensions.Unit)
	case "weight":
		if rec.Weight == nil {
			return nil
		}
		amount = rec.Weight.Amount
		unit = "lb"
	}
	if rule.Unit != "" {
		unit = rule.Unit
	}

	value := formatAmount(amount)
	if rule.UnitTarget != "" {
		return []Write{
			{Target: rule.Target, Value: value},
			{Target: rule.UnitTarget, Value: unit},
		}
	}
	return []Write{{Target: rule.Target, Value: value + " " + unit}}
}

func resolve(rec *models.Record, source string) (string, bool) {
	if key, ok := strings.CutPrefix(source, "detail:"); ok {
		return rec.Details.Get(key)
	}
	switch source {
	case "title":
		return nonEmpty(rec.Title)
	case "brand":
		return nonEmpty(rec.Brand)
	case "manufacturer":
		return nonEmpty(rec.Manufacturer)
	case "asin":
		return nonEmpty(rec.ASIN)
	case "url":
		return nonEmpty(rec.URL)
	case "features":
		if len(rec.Features) == 0 {
			return "", false
		}
		return strings.Join(rec.Features, AggregateSeparator), true
	case "price":
		if rec.Price == nil {
			return "", false
		}
		return formatAmount(rec.Price.Amount), true
	case "price_symbol":
		if rec.Price == nil || rec.Price.CurrencySymbol == "" {
			return "", false
		}
		return rec.Price.CurrencySymbol, true
	case "weight":
		if rec.Weight == nil {
			return "", false
		}
		return formatAmount(rec.Weight.Amount), true
	}
	return "", false
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

// formatAmount rounds to two decimals and trims trailing zeros, so
// 24.00 renders as "24" and 5.5115 as "5.51".
func formatAmount(v float64) string {
	rounded := math.Round(v*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

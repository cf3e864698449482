package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailsFirstSeenWins(t *testing.T) {
	d := NewDetails()

	assert.True(t, d.Set("Brand", "Acme"))
	assert.False(t, d.Set("brand", "Other"))
	assert.False(t, d.Set(" BRAND ", "Third"))

	v, ok := d.Get("Brand")
	require.True(t, ok)
	assert.Equal(t, "Acme", v)
	assert.Equal(t, 1, d.Len())
}

func TestDetailsRejectsEmptyPairs(t *testing.T) {
	d := NewDetails()

	assert.False(t, d.Set("", "value"))
	assert.False(t, d.Set("key", "  "))
	assert.Equal(t, 0, d.Len())
}

func TestDetailsKeysInsertionOrder(t *testing.T) {
	d := NewDetails()
	d.Set("Color", "Black")
	d.Set("Material", "Steel")
	d.Set("Brand", "Acme")

	assert.Equal(t, []string{"color", "material", "brand"}, d.Keys())
}

func TestDetailsCloneIsIndependent(t *testing.T) {
	d := NewDetails()
	d.Set("Color", "Black")

	c := d.Clone()
	c.Set("Material", "Steel")

	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 2, c.Len())
}

func TestDetailsJSONRoundTrip(t *testing.T) {
	d := NewDetails()
	d.Set("Color", "Black")
	d.Set("Item Weight", "35 pounds")

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var back Details
	require.NoError(t, json.Unmarshal(data, &back))

	v, ok := back.Get("item weight")
	require.True(t, ok)
	assert.Equal(t, "35 pounds", v)
}

func TestRecordHasData(t *testing.T) {
	rec := NewRecord("B0TEST0001")
	assert.False(t, rec.HasData())

	rec.Title = "Acme Desk"
	assert.True(t, rec.HasData())

	withDetails := NewRecord("B0TEST0002")
	withDetails.Details.Set("Color", "Black")
	assert.True(t, withDetails.HasData())
}

func TestRecordValidate(t *testing.T) {
	rec := NewRecord("")
	errs := rec.Validate()
	assert.Contains(t, errs, "ASIN is required")
	assert.Contains(t, errs, "Title is required")
	assert.Contains(t, errs, "Invalid weight")

	rec = NewRecord("B0TEST0001")
	rec.Title = "Acme Desk"
	rec.Weight = &Weight{Amount: 35, Unit: WeightUnitPound}
	assert.Empty(t, rec.Validate())
}

package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanwei-dev/listing-autofill/internal/models"
)

func sampleRecord() *models.Record {
	rec := models.NewRecord("B0TEST0001")
	rec.Title = "Acme Standing Desk"
	rec.Brand = "Acme"
	rec.Manufacturer = "Acme Corp"
	rec.Features = []string{"Adjustable height", "Powder-coated frame"}
	rec.Price = &models.Price{Amount: 99.99, CurrencySymbol: "$", Source: models.PriceSourceHiddenField}
	rec.Weight = &models.Weight{Amount: 5.5115, Unit: models.WeightUnitKilogram}
	rec.Dimensions = &models.Dimensions{Length: 15, Width: 22.83, Height: 24, Unit: models.LengthUnitInch}
	rec.Details.Set("Color", "Black")
	rec.Details.Set("Material", "Steel")
	return rec
}

func TestParseRejectsUnknownSource(t *testing.T) {
	_, err := Parse([]byte(`[{"target": "f1", "kind": "direct", "source": "nonsense"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte(`[{"target": "f1", "kind": "teleport"}]`))
	require.Error(t, err)
}

func TestProjectDirectRules(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "productName", Kind: KindDirect, Source: "title"},
		{Target: "brandName", Kind: KindDirect, Source: "detail:Color"},
		{Target: "salePrice", Kind: KindDirect, Source: "price"},
	})
	require.NoError(t, err)

	writes := rs.Project(sampleRecord())
	assert.Equal(t, []Write{
		{Target: "productName", Value: "Acme Standing Desk"},
		{Target: "brandName", Value: "Black"},
		{Target: "salePrice", Value: "99.99"},
	}, writes)
}

func TestProjectSkipsAbsentSources(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "f1", Kind: KindDirect, Source: "detail:Voltage"},
		{Target: "f2", Kind: KindDirect, Source: "title"},
	})
	require.NoError(t, err)

	writes := rs.Project(sampleRecord())
	require.Len(t, writes, 1)
	assert.Equal(t, "f2", writes[0].Target)
}

func TestProjectAggregateJoinOrder(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "description", Kind: KindAggregate, Sources: []string{
			"detail:Color", "detail:Voltage", "detail:Material",
		}},
	})
	require.NoError(t, err)

	writes := rs.Project(sampleRecord())
	require.Len(t, writes, 1)
	assert.Equal(t, "Black\nSteel", writes[0].Value)
}

func TestProjectAggregateAllAbsentSkipped(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "description", Kind: KindAggregate, Sources: []string{"detail:Voltage", "detail:Wattage"}},
	})
	require.NoError(t, err)

	assert.Empty(t, rs.Project(sampleRecord()))
}

func TestProjectFixedRule(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "condition", Kind: KindFixed, Value: "New"},
	})
	require.NoError(t, err)

	writes := rs.Project(models.NewRecord("B0EMPTY000"))
	require.Len(t, writes, 1)
	assert.Equal(t, Write{Target: "condition", Value: "New"}, writes[0])
}

func TestProjectCompoundDimensionCombined(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "depth", Kind: KindCompound, Source: "dimensions", Component: "length"},
	})
	require.NoError(t, err)

	writes := rs.Project(sampleRecord())
	require.Len(t, writes, 1)
	assert.Equal(t, Write{Target: "depth", Value: "15 in"}, writes[0])
}

func TestProjectCompoundDimensionSplitTargets(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "width", Kind: KindCompound, Source: "dimensions", Component: "width", UnitTarget: "widthUnit", Unit: "inch"},
	})
	require.NoError(t, err)

	writes := rs.Project(sampleRecord())
	assert.Equal(t, []Write{
		{Target: "width", Value: "22.83"},
		{Target: "widthUnit", Value: "inch"},
	}, writes)
}

func TestProjectCompoundWeight(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "itemWeight", Kind: KindCompound, Source: "weight"},
	})
	require.NoError(t, err)

	writes := rs.Project(sampleRecord())
	require.Len(t, writes, 1)
	assert.Equal(t, "5.51 lb", writes[0].Value)
}

func TestProjectCompoundSkippedWhenValueAbsent(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "depth", Kind: KindCompound, Source: "dimensions", Component: "length"},
	})
	require.NoError(t, err)

	assert.Empty(t, rs.Project(models.NewRecord("B0EMPTY000")))
}

func TestProjectDeterministic(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "productName", Kind: KindDirect, Source: "title"},
		{Target: "description", Kind: KindAggregate, Sources: []string{"title", "features", "detail:Material"}},
		{Target: "depth", Kind: KindCompound, Source: "dimensions", Component: "length"},
		{Target: "condition", Kind: KindFixed, Value: "New"},
	})
	require.NoError(t, err)

	rec := sampleRecord()
	first := rs.Project(rec)
	second := rs.Project(rec)
	assert.Equal(t, first, second)
}

func TestProjectLeavesRecordUnchanged(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{Target: "description", Kind: KindAggregate, Sources: []string{"title", "detail:Color"}},
	})
	require.NoError(t, err)

	rec := sampleRecord()
	before := rec.Details.Len()
	_ = rs.Project(rec)
	assert.Equal(t, before, rec.Details.Len())
	assert.Equal(t, "Acme Standing Desk", rec.Title)
}

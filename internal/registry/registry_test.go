package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

func TestNewCatalogValidates(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Len(t, r.List(), 17)
}

func TestGetKnownSeries(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	m, ok := r.Get("UNRATE")
	require.True(t, ok)
	assert.Equal(t, models.FamilyEmployment, m.Family)
	assert.Equal(t, models.DirectionalityInverse, m.Directionality)

	_, ok = r.Get("NOPE")
	assert.False(t, ok)
}

func TestOverrideReplacesCatalogEntry(t *testing.T) {
	custom := models.IndicatorMetadata{
		SeriesID: "UNRATE", DisplayName: "U-3 Unemployment",
		Type: models.TypeLagging, Category: "labor", Family: models.FamilyEmployment,
		Unit: models.UnitPercent, Frequency: models.FreqMonthly,
		Directionality: models.DirectionalityInverse,
	}
	r, err := New(custom)
	require.NoError(t, err)
	assert.Len(t, r.List(), 17)

	m, _ := r.Get("UNRATE")
	assert.Equal(t, "U-3 Unemployment", m.DisplayName)
}

func TestExtraEntryExtends(t *testing.T) {
	extra := models.IndicatorMetadata{
		SeriesID: "T10Y2Y", DisplayName: "10Y-2Y Spread",
		Type: models.TypeLeading, Category: "monetary_policy", Family: models.FamilyRates,
		Unit: models.UnitRate, Frequency: models.FreqDaily,
		Directionality: models.DirectionalityDirect,
	}
	r, err := New(extra)
	require.NoError(t, err)
	assert.Len(t, r.List(), 18)
}

func TestDuplicateConfigEntryRejected(t *testing.T) {
	entry := models.IndicatorMetadata{
		SeriesID: "T10Y2Y", DisplayName: "10Y-2Y Spread",
		Type: models.TypeLeading, Category: "monetary_policy", Family: models.FamilyRates,
		Unit: models.UnitRate, Frequency: models.FreqDaily,
		Directionality: models.DirectionalityDirect,
	}
	_, err := New(entry, entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configured twice")
}

func TestUnknownFamilyRejected(t *testing.T) {
	bad := models.IndicatorMetadata{
		SeriesID: "XYZ", DisplayName: "Mystery",
		Type: models.TypeLeading, Category: "growth", Family: "astrology",
		Unit: models.UnitIndex, Frequency: models.FreqMonthly,
		Directionality: models.DirectionalityDirect,
	}
	_, err := New(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown family")
}

func TestMissingDirectionalityRejected(t *testing.T) {
	bad := models.IndicatorMetadata{
		SeriesID: "XYZ", DisplayName: "Mystery",
		Type: models.TypeLeading, Category: "growth", Family: models.FamilyGrowth,
		Unit: models.UnitIndex, Frequency: models.FreqMonthly,
	}
	_, err := New(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directionality")
}

func TestFilterByCategoryAndType(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	inflation := r.Filter("inflation", "")
	assert.Len(t, inflation, 3)

	leadingGrowth := r.Filter("growth", models.TypeLeading)
	for _, m := range leadingGrowth {
		assert.Equal(t, models.TypeLeading, m.Type)
		assert.Equal(t, "growth", m.Category)
	}
	assert.NotEmpty(t, leadingGrowth)
}

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

func meta(family models.Family, dir models.Directionality) models.IndicatorMetadata {
	return models.IndicatorMetadata{
		SeriesID:       "TEST",
		DisplayName:    "Test Indicator",
		Family:         family,
		Directionality: dir,
	}
}

func TestInflationRisingTrendOverride(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(0.6, 1.8, meta(models.FamilyInflation, models.DirectionalityInverse))
	require.NoError(t, err)

	// the trend override beats the merely-moderate level
	assert.Equal(t, models.InsightNegative, got.OverallSignal)
	assert.Equal(t, models.ConfidenceMedium, got.Confidence)
	assert.Equal(t, models.AlertWarning, got.AlertLevel)
}

func TestInflationLowAndStable(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(-1.2, 0.2, meta(models.FamilyInflation, models.DirectionalityInverse))
	require.NoError(t, err)
	assert.Equal(t, models.InsightPositive, got.OverallSignal)
}

func TestInflationTrendDominanceFalling(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(0.8, -1.4, meta(models.FamilyInflation, models.DirectionalityInverse))
	require.NoError(t, err)
	assert.Equal(t, models.InsightPositive, got.OverallSignal)
}

func TestInflationDeepLevelEscapesOverride(t *testing.T) {
	c := NewInsightClassifier()
	// deep disinflation outweighs a noisy rebound: the rising-trend
	// override needs the level above -1, and the trend never dominates a
	// larger level magnitude
	got, err := c.Classify(-1.8, 1.6, meta(models.FamilyInflation, models.DirectionalityInverse))
	require.NoError(t, err)
	assert.Equal(t, models.InsightPositive, got.OverallSignal)
}

func TestEmploymentDivergenceMixed(t *testing.T) {
	c := NewInsightClassifier()
	m := meta(models.FamilyEmployment, models.DirectionalityInverse)

	got, err := c.Classify(1.2, 1.6, m)
	require.NoError(t, err)
	assert.Equal(t, models.InsightMixed, got.OverallSignal)
	assert.Equal(t, models.AlertWatch, got.AlertLevel)

	got, err = c.Classify(-1.5, -1.2, m)
	require.NoError(t, err)
	assert.Equal(t, models.InsightMixed, got.OverallSignal)
}

func TestRatesExtremesNegative(t *testing.T) {
	c := NewInsightClassifier()
	m := meta(models.FamilyRates, models.DirectionalityInverse)

	got, err := c.Classify(2.5, 0.1, m)
	require.NoError(t, err)
	assert.Equal(t, models.InsightNegative, got.OverallSignal)
	assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	assert.Equal(t, models.AlertCritical, got.AlertLevel)

	got, err = c.Classify(0.2, -2.3, m)
	require.NoError(t, err)
	assert.Equal(t, models.InsightNegative, got.OverallSignal)
}

func TestRatesCalmMiddlePositive(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(0.3, 0.2, meta(models.FamilyRates, models.DirectionalityInverse))
	require.NoError(t, err)
	assert.Equal(t, models.InsightPositive, got.OverallSignal)
	assert.Equal(t, models.AlertNormal, got.AlertLevel)
}

func TestRatesBetweenBandsFallsToGeneral(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(1.5, 0.5, meta(models.FamilyRates, models.DirectionalityInverse))
	require.NoError(t, err)
	// level dominates: adjusted level reads negative for an inverse series
	assert.Equal(t, models.InsightNegative, got.OverallSignal)
	assert.Equal(t, models.AlertNormal, got.AlertLevel)
}

func TestGeneralAgreement(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(1.0, 0.8, meta(models.FamilyGrowth, models.DirectionalityDirect))
	require.NoError(t, err)
	assert.Equal(t, models.InsightPositive, got.OverallSignal)
	assert.Equal(t, models.InsightPositive, got.LevelSignal)
	assert.Equal(t, models.InsightPositive, got.TrendSignal)
}

func TestGeneralConflictWithoutDominanceIsMixed(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(0.8, -0.9, meta(models.FamilyGrowth, models.DirectionalityDirect))
	require.NoError(t, err)
	assert.Equal(t, models.InsightMixed, got.OverallSignal)
}

func TestGeneralMagnitudeDominance(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(2.2, -0.7, meta(models.FamilySentiment, models.DirectionalityDirect))
	require.NoError(t, err)
	assert.Equal(t, models.InsightPositive, got.OverallSignal)
}

func TestNeutralQuietIndicator(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(0.1, -0.2, meta(models.FamilyGeneral, models.DirectionalityDirect))
	require.NoError(t, err)
	assert.Equal(t, models.InsightNeutral, got.OverallSignal)
	assert.Equal(t, models.ConfidenceLow, got.Confidence)
	assert.Equal(t, models.AlertNormal, got.AlertLevel)
}

func TestUnknownFamilyFailsLoudly(t *testing.T) {
	c := NewInsightClassifier()
	_, err := c.Classify(0.5, 0.5, meta("exotic", models.DirectionalityDirect))
	assert.Error(t, err)
}

func TestUnknownDirectionalityFailsLoudly(t *testing.T) {
	c := NewInsightClassifier()
	_, err := c.Classify(0.5, 0.5, meta(models.FamilyGrowth, "upside-down"))
	assert.Error(t, err)
}

func TestReasoningPhrasing(t *testing.T) {
	c := NewInsightClassifier()
	got, err := c.Classify(2.5, 2.1, meta(models.FamilyInflation, models.DirectionalityInverse))
	require.NoError(t, err)
	assert.Equal(t, "Price pressure is well above its historical average and accelerating rapidly.", got.Reasoning)

	got, err = c.Classify(-2.2, -0.1, meta(models.FamilyGrowth, models.DirectionalityDirect))
	require.NoError(t, err)
	assert.Equal(t, "Growth momentum is well below its historical average and holding stable.", got.Reasoning)

	got, err = c.Classify(0.0, 0.0, meta(models.FamilySentiment, models.DirectionalityDirect))
	require.NoError(t, err)
	assert.Contains(t, got.Reasoning, "Test Indicator")
}

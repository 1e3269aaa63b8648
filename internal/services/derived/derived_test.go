package derived

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

func series(freq models.Frequency, end time.Time, values []float64) models.Series {
	s := make(models.Series, len(values))
	for i, v := range values {
		var d time.Time
		switch freq {
		case models.FreqMonthly:
			d = end.AddDate(0, -(len(values) - 1 - i), 0)
		case models.FreqQuarterly:
			d = end.AddDate(0, -3*(len(values)-1-i), 0)
		default:
			d = end.AddDate(0, 0, -(len(values) - 1 - i))
		}
		s[i] = models.Observation{SeriesID: "TEST", Value: v, PeriodDate: d}
	}
	return s
}

func TestComputeMonthlyIndex(t *testing.T) {
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{99, 100, 100.5, 101, 101.2, 101.5, 101.8, 102, 102.3, 102.6, 102.8, 103, 103, 104}
	meta := models.IndicatorMetadata{
		SeriesID:    "INDPRO",
		Unit:        models.UnitIndex,
		Frequency:   models.FreqMonthly,
		Forecast:    103.5,
		HasForecast: true,
	}

	got := NewCalculator().Compute(series(models.FreqMonthly, end, values), meta, end)

	assert.Equal(t, 104.0, got.Current)
	require.NotNil(t, got.Prior)
	assert.Equal(t, 103.0, *got.Prior)
	require.NotNil(t, got.VsPrior)
	assert.Equal(t, 1.0, *got.VsPrior)

	require.NotNil(t, got.YoYChange)
	assert.InDelta(t, 4.0, *got.YoYChange, 1e-9) // vs 100 twelve months back

	require.NotNil(t, got.PeriodChange)
	assert.InDelta(t, 0.970874, *got.PeriodChange, 1e-5)

	require.NotNil(t, got.AnnualizedChange)
	assert.InDelta(t, 4.7516, *got.AnnualizedChange, 1e-3) // (104/102.8)^4 - 1

	require.NotNil(t, got.VsForecast)
	assert.InDelta(t, 0.5, *got.VsForecast, 1e-9)

	require.NotNil(t, got.NextRelease)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), *got.NextRelease)
}

func TestComputeQuarterlyRateSkipsAnnualized(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{2.1, 2.4, 1.8, 2.9, 3.1}
	meta := models.IndicatorMetadata{
		SeriesID:  "A191RL1Q225SBEA",
		Unit:      models.UnitPercent,
		Frequency: models.FreqQuarterly,
	}

	got := NewCalculator().Compute(series(models.FreqQuarterly, end, values), meta, end)

	assert.Nil(t, got.AnnualizedChange)
	require.NotNil(t, got.YoYChange) // vs 2.1 four quarters back
	assert.InDelta(t, (3.1/2.1-1)*100, *got.YoYChange, 1e-9)
	require.NotNil(t, got.NextRelease)
	assert.Equal(t, end.AddDate(0, 0, 90), *got.NextRelease)
}

func TestComputeDailyNextBusinessDay(t *testing.T) {
	friday := time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC)
	values := []float64{4.1, 4.2, 4.15}
	meta := models.IndicatorMetadata{SeriesID: "GS10", Unit: models.UnitRate, Frequency: models.FreqDaily}

	got := NewCalculator().Compute(series(models.FreqDaily, friday, values), meta, friday)

	require.NotNil(t, got.NextRelease)
	assert.Equal(t, time.Monday, got.NextRelease.Weekday())
	assert.Nil(t, got.YoYChange)
	assert.Nil(t, got.AnnualizedChange)
}

func TestComputeShortWindowOmits(t *testing.T) {
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	got := NewCalculator().Compute(series(models.FreqMonthly, end, []float64{101}), models.IndicatorMetadata{
		Unit: models.UnitIndex, Frequency: models.FreqMonthly,
	}, end)

	assert.Equal(t, 101.0, got.Current)
	assert.Nil(t, got.Prior)
	assert.Nil(t, got.YoYChange)
	assert.Nil(t, got.PeriodChange)
	assert.Nil(t, got.AnnualizedChange)
	assert.Nil(t, got.VsForecast)
}

func TestComputeEmptySeries(t *testing.T) {
	got := NewCalculator().Compute(nil, models.IndicatorMetadata{}, time.Now())
	assert.Equal(t, 0.0, got.Current)
	assert.Nil(t, got.NextRelease)
}

func TestComputePriorOffset(t *testing.T) {
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{10, 20, 30, 40}
	meta := models.IndicatorMetadata{Unit: models.UnitIndex, Frequency: models.FreqMonthly, PriorOffset: 2}

	got := NewCalculator().Compute(series(models.FreqMonthly, end, values), meta, end)
	require.NotNil(t, got.Prior)
	assert.Equal(t, 20.0, *got.Prior)
}

package derived

import (
	"math"
	"time"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/pkg/util"
)

// Calculator produces the display transforms shown next to a raw reading:
// year-over-year and period changes, annualized run rates, deltas against
// forecast and prior, and the estimated next release date. Every metric is
// optional; a window too short to support one simply omits it.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Compute(series models.Series, meta models.IndicatorMetadata, now time.Time) models.DerivedMetrics {
	values := series.Values()
	if len(values) == 0 {
		return models.DerivedMetrics{}
	}
	current := values[len(values)-1]
	out := models.DerivedMetrics{Current: current}

	offset := meta.PriorOffset
	if offset <= 0 {
		offset = 1
	}
	if len(values) > offset {
		prior := values[len(values)-1-offset]
		out.Prior = fptr(prior)
		out.VsPrior = fptr(current - prior)
	}

	if back := yoyOffset(meta.Frequency); back > 0 && len(values) > back {
		base := values[len(values)-1-back]
		if base != 0 {
			out.YoYChange = fptr((current/base - 1) * 100)
		}
	}

	if len(values) > 1 {
		prev := values[len(values)-2]
		if prev != 0 {
			out.PeriodChange = fptr((current/prev - 1) * 100)
		}
	}

	out.AnnualizedChange = annualized(values, meta)

	if meta.HasForecast {
		out.VsForecast = fptr(current - meta.Forecast)
	}

	if latest, ok := series.Latest(); ok {
		out.NextRelease = nextRelease(latest.PeriodDate, meta.Frequency)
	}
	return out
}

func yoyOffset(freq models.Frequency) int {
	switch freq {
	case models.FreqMonthly:
		return 12
	case models.FreqQuarterly:
		return 4
	default:
		return 0
	}
}

// annualized extrapolates the recent run rate to a full year: the
// three-month change compounded four times for monthly series, the
// quarter-over-quarter change compounded four times for quarterly ones.
// Series already expressed as a rate or percent are skipped.
func annualized(values []float64, meta models.IndicatorMetadata) *float64 {
	if meta.Unit == models.UnitPercent || meta.Unit == models.UnitRate {
		return nil
	}
	var back int
	switch meta.Frequency {
	case models.FreqMonthly:
		back = 3
	case models.FreqQuarterly:
		back = 1
	default:
		return nil
	}
	if len(values) <= back {
		return nil
	}
	current := values[len(values)-1]
	base := values[len(values)-1-back]
	if base <= 0 || current <= 0 {
		return nil
	}
	return fptr((math.Pow(current/base, 4) - 1) * 100)
}

// nextRelease estimates when the following print lands: monthly data
// arrives around the 15th of the next month, quarterly roughly 90 days
// out, daily on the next business day.
func nextRelease(lastPeriod time.Time, freq models.Frequency) *time.Time {
	if lastPeriod.IsZero() {
		return nil
	}
	var next time.Time
	switch freq {
	case models.FreqMonthly:
		n := lastPeriod.AddDate(0, 1, 0)
		next = time.Date(n.Year(), n.Month(), 15, 0, 0, 0, 0, time.UTC)
	case models.FreqQuarterly:
		next = lastPeriod.AddDate(0, 0, 90)
	case models.FreqDaily:
		next = util.NextBusinessDay(lastPeriod)
	default:
		return nil
	}
	return &next
}

func fptr(v float64) *float64 { return &v }

var _ domsvc.DerivedCalculator = (*Calculator)(nil)

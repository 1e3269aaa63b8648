package features

import (
	"math"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/services/scoring"
	"MacroPulse/internal/services/stats"
)

// Technical indicator extraction over daily bars. Each indicator is
// computed as a full series so the latest reading can be z-scored against
// its own trailing distribution; the resulting component map feeds the
// composite scorer.

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	rsiPeriod        = 14
	bollingerPeriod  = 20
	bollingerMult    = 2.0
	maShort          = 50
	maLong           = 200
	momentumLookback = 10
	atrPeriod        = 14

	// minimum bars before any component is worth scoring
	minBars = 30
)

// closeSeries extracts the close series from bars in order.
func closeSeries(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func ema(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	k := 2.0 / (float64(period) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = k*values[i] + (1-k)*out[i-1]
	}
	return out
}

func sma(values []float64, period int, at int) float64 {
	if at+1 < period {
		return 0
	}
	var sum float64
	for i := at + 1 - period; i <= at; i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// MACDHistogram returns the MACD(12,26,9) histogram series.
func MACDHistogram(closes []float64) []float64 {
	if len(closes) == 0 {
		return nil
	}
	fast := ema(closes, macdFast)
	slow := ema(closes, macdSlow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal := ema(line, macdSignal)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}
	return hist
}

// RSI returns the Wilder-smoothed relative strength index series. Indices
// before the first full period read neutral (50).
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = 50
	}
	if len(closes) <= period {
		return out
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// BollingerPercentB returns the %B series: where the close sits inside its
// 20-period, 2-sigma band. A flat band reads 0.5.
func BollingerPercentB(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i+1 < bollingerPeriod {
			out[i] = 0.5
			continue
		}
		window := closes[i+1-bollingerPeriod : i+1]
		m := stats.Mean(window)
		sd := stats.StdDev(window)
		if sd == 0 {
			out[i] = 0.5
			continue
		}
		lower := m - bollingerMult*sd
		out[i] = (closes[i] - lower) / (2 * bollingerMult * sd)
	}
	return out
}

// MATrendGap returns the 50-vs-200 moving-average gap as a percentage of
// the long average. Indices before a full long window read 0.
func MATrendGap(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i+1 < maLong {
			continue
		}
		short := sma(closes, maShort, i)
		long := sma(closes, maLong, i)
		if long == 0 {
			continue
		}
		out[i] = (short - long) / long * 100
	}
	return out
}

// Momentum returns the lookback percentage change series.
func Momentum(closes []float64, lookback int) []float64 {
	out := make([]float64, len(closes))
	for i := lookback; i < len(closes); i++ {
		if closes[i-lookback] == 0 {
			continue
		}
		out[i] = (closes[i]/closes[i-lookback] - 1) * 100
	}
	return out
}

// ATR returns the Wilder-smoothed average true range series.
func ATR(bars []models.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	if len(bars) < 2 {
		return out
	}
	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		h, l, pc := bars[i].High, bars[i].Low, bars[i-1].Close
		tr[i] = math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))
	}
	if len(bars) <= period {
		copy(out, tr)
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < len(bars); i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// ComponentZScores computes the named component map consumed by the
// composite scorer: each technical indicator's latest value scored against
// its own series. Too few bars return an empty map; the composite treats
// absent components as zero contribution.
func ComponentZScores(bars []models.Bar) map[string]float64 {
	if len(bars) < minBars {
		return map[string]float64{}
	}
	closes := closeSeries(bars)
	return map[string]float64{
		"macdZ":      latestZ(MACDHistogram(closes)),
		"rsiZ":       latestZ(RSI(closes, rsiPeriod)),
		"bollingerZ": latestZ(BollingerPercentB(closes)),
		"maTrendZ":   latestZ(MATrendGap(closes)),
		"momentumZ":  latestZ(Momentum(closes, momentumLookback)),
		"atrZ":       latestZ(ATR(bars, atrPeriod)),
	}
}

func latestZ(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return scoring.ZScore(series[len(series)-1], series)
}

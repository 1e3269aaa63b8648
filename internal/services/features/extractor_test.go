package features

import (
	"math"
	"testing"
	"time"

	"MacroPulse/internal/domain/models"
)

func barsFromCloses(closes []float64) []models.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{
			Symbol: "SPY",
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

func rampCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestRSITrendingUp(t *testing.T) {
	rsi := RSI(rampCloses(40, 100, 1), rsiPeriod)
	last := rsi[len(rsi)-1]
	if last < 90 {
		t.Fatalf("steady gains should push RSI high, got %v", last)
	}
}

func TestRSITrendingDown(t *testing.T) {
	rsi := RSI(rampCloses(40, 140, -1), rsiPeriod)
	last := rsi[len(rsi)-1]
	if last > 10 {
		t.Fatalf("steady losses should push RSI low, got %v", last)
	}
}

func TestRSIShortSeriesNeutral(t *testing.T) {
	rsi := RSI([]float64{100, 101, 102}, rsiPeriod)
	for _, v := range rsi {
		if v != 50 {
			t.Fatalf("expected neutral padding, got %v", v)
		}
	}
}

func TestMACDHistogramAcceleration(t *testing.T) {
	closes := make([]float64, 0, 80)
	for i := 0; i < 60; i++ {
		closes = append(closes, 100+0.1*float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 106+2.0*float64(i))
	}
	hist := MACDHistogram(closes)
	if hist[len(hist)-1] <= 0 {
		t.Fatalf("accelerating uptrend should give positive histogram, got %v", hist[len(hist)-1])
	}
}

func TestBollingerPercentBBreakout(t *testing.T) {
	closes := rampCloses(25, 100, 0)
	closes[len(closes)-1] = 110 // jump out of a flat band
	pb := BollingerPercentB(closes)
	if pb[len(pb)-1] <= 0.9 {
		t.Fatalf("breakout close should sit at the top of the band, got %v", pb[len(pb)-1])
	}
}

func TestBollingerPercentBFlatBand(t *testing.T) {
	pb := BollingerPercentB(rampCloses(30, 100, 0))
	if pb[len(pb)-1] != 0.5 {
		t.Fatalf("flat band reads 0.5, got %v", pb[len(pb)-1])
	}
}

func TestMATrendGapUptrend(t *testing.T) {
	gap := MATrendGap(rampCloses(260, 100, 0.5))
	if gap[len(gap)-1] <= 0 {
		t.Fatalf("uptrend should have short MA above long MA, got %v", gap[len(gap)-1])
	}
	if gap[100] != 0 {
		t.Fatalf("indices before a full long window read 0, got %v", gap[100])
	}
}

func TestMomentum(t *testing.T) {
	closes := rampCloses(20, 100, 0)
	closes[len(closes)-1] = 110
	mom := Momentum(closes, momentumLookback)
	if math.Abs(mom[len(mom)-1]-10) > 1e-9 {
		t.Fatalf("expected 10%% momentum, got %v", mom[len(mom)-1])
	}
}

func TestATRWidensWithRange(t *testing.T) {
	quiet := barsFromCloses(rampCloses(40, 100, 0.1))
	wild := barsFromCloses(rampCloses(40, 100, 0.1))
	for i := range wild {
		wild[i].High = wild[i].Close + 5
		wild[i].Low = wild[i].Close - 5
	}
	atrQuiet := ATR(quiet, atrPeriod)
	atrWild := ATR(wild, atrPeriod)
	if atrWild[len(atrWild)-1] <= atrQuiet[len(atrQuiet)-1] {
		t.Fatalf("wider ranges must give larger ATR")
	}
}

func TestComponentZScoresTooFewBars(t *testing.T) {
	got := ComponentZScores(barsFromCloses(rampCloses(10, 100, 1)))
	if len(got) != 0 {
		t.Fatalf("expected empty component map, got %v", got)
	}
}

func TestComponentZScoresComplete(t *testing.T) {
	got := ComponentZScores(barsFromCloses(rampCloses(120, 100, 0.3)))
	for _, name := range []string{"macdZ", "rsiZ", "bollingerZ", "maTrendZ", "momentumZ", "atrZ"} {
		v, ok := got[name]
		if !ok {
			t.Fatalf("missing component %s", name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("component %s is not finite: %v", name, v)
		}
	}
}

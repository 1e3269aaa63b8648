package stats

import (
	"math"
	"testing"

	"MacroPulse/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeanEmpty(t *testing.T) {
	if !math.IsNaN(Mean(nil)) {
		t.Fatalf("expected NaN for empty input")
	}
}

func TestMeanAndStdDev(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(vals); !almostEqual(got, 5) {
		t.Fatalf("mean: got %v", got)
	}
	// population stddev of the classic sequence is exactly 2
	if got := StdDev(vals); !almostEqual(got, 2) {
		t.Fatalf("stddev: got %v", got)
	}
}

func TestStdDevConstantSeries(t *testing.T) {
	if got := StdDev([]float64{3, 3, 3, 3}); !almostEqual(got, 0) {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestPercentileRankBoundaries(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	if got := PercentileRank(1, vals); !almostEqual(got, 0) {
		t.Fatalf("min should rank 0, got %v", got)
	}
	if got := PercentileRank(6, vals); !almostEqual(got, 100) {
		t.Fatalf("above max should rank 100, got %v", got)
	}
	if got := PercentileRank(3, vals); !almostEqual(got, 40) {
		t.Fatalf("middle rank: got %v", got)
	}
}

func TestCoefficientOfVariationZeroMean(t *testing.T) {
	if got := CoefficientOfVariation([]float64{-1, 1}); got != CVSentinel {
		t.Fatalf("expected sentinel, got %v", got)
	}
	if got := CoefficientOfVariation(nil); got != CVSentinel {
		t.Fatalf("expected sentinel on empty, got %v", got)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	vals := []float64{10, 10, 10, 10}
	if got := CoefficientOfVariation(vals); !almostEqual(got, 0) {
		t.Fatalf("constant series CV should be 0, got %v", got)
	}
}

func TestTrendDirectionUpward(t *testing.T) {
	vals := []float64{100, 100, 100, 110, 110, 110}
	if got := TrendDirection(vals); got != models.TrendUpward {
		t.Fatalf("expected UPWARD, got %v", got)
	}
}

func TestTrendDirectionDownward(t *testing.T) {
	vals := []float64{110, 110, 110, 100, 100, 100}
	if got := TrendDirection(vals); got != models.TrendDownward {
		t.Fatalf("expected DOWNWARD, got %v", got)
	}
}

func TestTrendDirectionSidewaysWithinThreshold(t *testing.T) {
	vals := []float64{100, 100, 100, 102, 102, 102}
	if got := TrendDirection(vals); got != models.TrendSideways {
		t.Fatalf("expected SIDEWAYS, got %v", got)
	}
}

func TestPercentChangesSkipsZeroBase(t *testing.T) {
	got := PercentChanges([]float64{100, 110, 0, 50})
	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(got))
	}
	if !almostEqual(got[0], 0.1) {
		t.Fatalf("first change: got %v", got[0])
	}
}

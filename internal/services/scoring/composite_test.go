package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/domain/models"
)

func TestDefaultCompositeConfigValid(t *testing.T) {
	require.NoError(t, DefaultCompositeConfig().Validate())
}

func TestCompositeConfigRejectsBadWeights(t *testing.T) {
	cfg := DefaultCompositeConfig()
	cfg.Weights["macdZ"] = 0.50
	assert.Error(t, cfg.Validate())

	cfg = DefaultCompositeConfig()
	cfg.Weights["rsiZ"] = -0.25
	cfg.Weights["macdZ"] = 0.85
	assert.Error(t, cfg.Validate())
}

func TestCompositeConfigRejectsBadThresholds(t *testing.T) {
	cfg := DefaultCompositeConfig()
	cfg.SellThreshold = 0.1
	assert.Error(t, cfg.Validate())
}

func TestAggregatePartialComponentsHolds(t *testing.T) {
	s := NewCompositeScorer(DefaultCompositeConfig())
	got := s.Aggregate(map[string]float64{
		"macdZ":      1.0,
		"rsiZ":       1.0,
		"bollingerZ": 0,
		"maTrendZ":   0,
		"momentumZ":  0,
	})
	assert.InDelta(t, 0.60, got.CompositeZ, 1e-9)
	assert.Equal(t, models.SignalHold, got.Signal)
}

func TestAggregateBuySellBands(t *testing.T) {
	s := NewCompositeScorer(DefaultCompositeConfig())

	// all components at the same z drive the composite to exactly that z
	all := func(z float64) map[string]float64 {
		return map[string]float64{
			"macdZ": z, "rsiZ": z, "bollingerZ": z, "maTrendZ": z, "momentumZ": z,
		}
	}

	assert.Equal(t, models.SignalBuy, s.Aggregate(all(0.75)).Signal)
	assert.Equal(t, models.SignalHold, s.Aggregate(all(0.7499)).Signal)
	assert.Equal(t, models.SignalSell, s.Aggregate(all(-0.75)).Signal)
	assert.Equal(t, models.SignalHold, s.Aggregate(all(-0.7499)).Signal)
	assert.Equal(t, models.SignalHold, s.Aggregate(all(0)).Signal)
}

func TestAggregateMissingComponentsContributeZero(t *testing.T) {
	s := NewCompositeScorer(DefaultCompositeConfig())
	// only macd present at a strong reading: no renormalization means the
	// composite stays below the buy threshold
	got := s.Aggregate(map[string]float64{"macdZ": 2.0})
	assert.InDelta(t, 0.70, got.CompositeZ, 1e-9)
	assert.Equal(t, models.SignalHold, got.Signal)
}

func TestAggregateAtrTrackedButUnscored(t *testing.T) {
	s := NewCompositeScorer(DefaultCompositeConfig())
	got := s.Aggregate(map[string]float64{"atrZ": 5.0})
	assert.Equal(t, 0.0, got.CompositeZ)
	assert.Equal(t, 5.0, got.Components["atrZ"])
}

func TestAggregateIgnoresUnknownComponents(t *testing.T) {
	s := NewCompositeScorer(DefaultCompositeConfig())
	got := s.Aggregate(map[string]float64{"volumeZ": 3.0})
	assert.Equal(t, 0.0, got.CompositeZ)
	assert.Equal(t, models.SignalHold, got.Signal)
}

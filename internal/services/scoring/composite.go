package scoring

import (
	"fmt"
	"math"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
)

// CompositeConfig fixes the component weights and signal thresholds. The
// defaults are the production values; config may override them but the
// weights must still sum to 1.
type CompositeConfig struct {
	Weights       map[string]float64 `yaml:"weights"`
	BuyThreshold  float64            `yaml:"buy_threshold"`
	SellThreshold float64            `yaml:"sell_threshold"`
}

func DefaultCompositeConfig() CompositeConfig {
	return CompositeConfig{
		Weights: map[string]float64{
			"macdZ":      0.35,
			"rsiZ":       0.25,
			"maTrendZ":   0.20,
			"bollingerZ": 0.15,
			"momentumZ":  0.05,
			"atrZ":       0, // tracked for display, excluded from the score
		},
		BuyThreshold:  0.75,
		SellThreshold: -0.75,
	}
}

func (c CompositeConfig) Validate() error {
	var sum float64
	for name, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("composite weight %s is negative", name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("composite weights sum to %.4f, want 1.0", sum)
	}
	if c.BuyThreshold <= 0 || c.SellThreshold >= 0 {
		return fmt.Errorf("composite thresholds must straddle zero (buy %.2f, sell %.2f)", c.BuyThreshold, c.SellThreshold)
	}
	return nil
}

// CompositeScorer folds component z-scores into one weighted composite.
type CompositeScorer struct {
	cfg CompositeConfig
}

func NewCompositeScorer(cfg CompositeConfig) *CompositeScorer {
	return &CompositeScorer{cfg: cfg}
}

// Aggregate computes compositeZ = sum(weight_i * component_i). A missing
// component contributes exactly 0 and the remaining weights are NOT
// renormalized; sparse coverage therefore pulls the composite toward HOLD.
// Changing that would shift signal output for every thin indicator, so the
// behavior is kept.
func (s *CompositeScorer) Aggregate(components map[string]float64) models.CompositeSignal {
	var composite float64
	for name, w := range s.cfg.Weights {
		if z, ok := components[name]; ok {
			composite += w * z
		}
	}

	signal := models.SignalHold
	switch {
	case composite >= s.cfg.BuyThreshold:
		signal = models.SignalBuy
	case composite <= s.cfg.SellThreshold:
		signal = models.SignalSell
	}

	echoed := make(map[string]float64, len(components))
	for name, z := range components {
		echoed[name] = z
	}
	return models.CompositeSignal{
		CompositeZ: composite,
		Signal:     signal,
		Components: echoed,
	}
}

var _ domsvc.CompositeScorer = (*CompositeScorer)(nil)

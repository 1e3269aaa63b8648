package scoring

import (
	"fmt"
	"math"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
)

// signalThreshold is the band around zero inside which a
// directionality-adjusted z-score reads as neutral.
const signalThreshold = 0.5

// InsightClassifier turns a level z-score and a delta z-score into a
// qualitative verdict. Family overrides run on the raw scores; the
// level/trend signals run on directionality-adjusted ones. Unknown family
// or directionality fails loudly rather than defaulting.
type InsightClassifier struct{}

func NewInsightClassifier() *InsightClassifier { return &InsightClassifier{} }

func (c *InsightClassifier) Classify(levelZ, deltaZ float64, meta models.IndicatorMetadata) (models.InsightClassification, error) {
	var dir float64
	switch meta.Directionality {
	case models.DirectionalityDirect:
		dir = 1
	case models.DirectionalityInverse:
		dir = -1
	default:
		return models.InsightClassification{}, fmt.Errorf("indicator %s: unknown directionality %q", meta.SeriesID, meta.Directionality)
	}

	levelSignal := signalFor(levelZ * dir)
	trendSignal := signalFor(deltaZ * dir)

	overall, err := c.overall(levelZ, deltaZ, levelSignal, trendSignal, meta)
	if err != nil {
		return models.InsightClassification{}, err
	}

	maxAbs := math.Max(math.Abs(levelZ), math.Abs(deltaZ))
	return models.InsightClassification{
		OverallSignal: overall,
		LevelSignal:   levelSignal,
		TrendSignal:   trendSignal,
		Confidence:    confidenceFor(maxAbs),
		Reasoning:     reasoning(meta, levelZ, deltaZ),
		AlertLevel:    alertFor(overall, maxAbs),
	}, nil
}

func signalFor(adjusted float64) models.InsightSignal {
	switch {
	case adjusted > signalThreshold:
		return models.InsightPositive
	case adjusted < -signalThreshold:
		return models.InsightNegative
	default:
		return models.InsightNeutral
	}
}

func (c *InsightClassifier) overall(levelZ, deltaZ float64, levelSignal, trendSignal models.InsightSignal, meta models.IndicatorMetadata) (models.InsightSignal, error) {
	switch meta.Family {
	case models.FamilyInflation:
		return inflationOverall(levelZ, deltaZ), nil
	case models.FamilyEmployment:
		if overall, ok := employmentOverride(levelZ, deltaZ); ok {
			return overall, nil
		}
		return generalOverall(levelZ, deltaZ, levelSignal, trendSignal), nil
	case models.FamilyRates:
		if overall, ok := ratesOverride(levelZ, deltaZ); ok {
			return overall, nil
		}
		return generalOverall(levelZ, deltaZ, levelSignal, trendSignal), nil
	case models.FamilyGrowth, models.FamilySentiment, models.FamilyGeneral:
		return generalOverall(levelZ, deltaZ, levelSignal, trendSignal), nil
	default:
		return "", fmt.Errorf("indicator %s: unknown family %q", meta.SeriesID, meta.Family)
	}
}

// inflationOverall: a sharply rising trend overrides an otherwise
// acceptable level; a low and stable-or-falling level is the good case; a
// conflict goes to the trend when it clearly outweighs the level.
func inflationOverall(levelZ, deltaZ float64) models.InsightSignal {
	if deltaZ > 1.5 && levelZ > -1 {
		return models.InsightNegative
	}
	if levelZ < -signalThreshold && deltaZ < signalThreshold {
		return models.InsightPositive
	}
	if math.Abs(deltaZ) > math.Abs(levelZ) && math.Abs(deltaZ) > 1.0 {
		if deltaZ > 0 {
			return models.InsightNegative
		}
		return models.InsightPositive
	}
	switch {
	case levelZ > signalThreshold:
		return models.InsightNegative
	case levelZ < -signalThreshold:
		return models.InsightPositive
	default:
		return models.InsightNeutral
	}
}

// employmentOverride flags the two divergence cases where level and trend
// tell opposite stories hard enough that neither should win outright.
func employmentOverride(levelZ, deltaZ float64) (models.InsightSignal, bool) {
	if levelZ > 1 && deltaZ > 1.5 {
		return models.InsightMixed, true
	}
	if levelZ < -1 && deltaZ < -1 {
		return models.InsightMixed, true
	}
	return "", false
}

// ratesOverride reads extremes as bad in either direction and a calm
// middle as good; anything else falls through to the general rule.
func ratesOverride(levelZ, deltaZ float64) (models.InsightSignal, bool) {
	if math.Abs(levelZ) > 2 || math.Abs(deltaZ) > 2 {
		return models.InsightNegative, true
	}
	if math.Abs(levelZ) < 1 && math.Abs(deltaZ) < 1 {
		return models.InsightPositive, true
	}
	return "", false
}

// generalOverall: agreement wins outright; a clear magnitude dominance
// (1.5x and itself beyond 1) lets one side win; everything else is mixed.
func generalOverall(levelZ, deltaZ float64, levelSignal, trendSignal models.InsightSignal) models.InsightSignal {
	if levelSignal == trendSignal {
		return levelSignal
	}
	al, at := math.Abs(levelZ), math.Abs(deltaZ)
	if al >= 1.5*at && al > 1 {
		return levelSignal
	}
	if at >= 1.5*al && at > 1 {
		return trendSignal
	}
	return models.InsightMixed
}

func confidenceFor(maxAbs float64) models.InsightConfidence {
	switch {
	case maxAbs > 2:
		return models.ConfidenceHigh
	case maxAbs > 1:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func alertFor(overall models.InsightSignal, maxAbs float64) models.AlertLevel {
	switch {
	case overall == models.InsightNegative && maxAbs > 2:
		return models.AlertCritical
	case overall == models.InsightNegative && maxAbs > 1.5:
		return models.AlertWarning
	case overall == models.InsightMixed && maxAbs > 1.5:
		return models.AlertWatch
	default:
		return models.AlertNormal
	}
}

func reasoning(meta models.IndicatorMetadata, levelZ, deltaZ float64) string {
	return fmt.Sprintf("%s is %s and %s.", subjectFor(meta), levelPhrase(levelZ), trendPhrase(deltaZ))
}

func subjectFor(meta models.IndicatorMetadata) string {
	switch meta.Family {
	case models.FamilyGrowth:
		return "Growth momentum"
	case models.FamilyInflation:
		return "Price pressure"
	case models.FamilyEmployment:
		return "Labor market slack"
	case models.FamilyRates:
		return "The rate environment"
	default:
		return meta.DisplayName
	}
}

func levelPhrase(z float64) string {
	switch {
	case z >= 2:
		return "well above its historical average"
	case z >= 1:
		return "above its historical average"
	case z >= signalThreshold:
		return "moderately above its historical average"
	case z > -signalThreshold:
		return "near its historical average"
	case z > -1:
		return "moderately below its historical average"
	case z > -2:
		return "below its historical average"
	default:
		return "well below its historical average"
	}
}

func trendPhrase(dz float64) string {
	switch {
	case dz >= 2:
		return "accelerating rapidly"
	case dz >= 1:
		return "rising"
	case dz <= -2:
		return "falling rapidly"
	case dz <= -1:
		return "declining"
	default:
		return "holding stable"
	}
}

var _ domsvc.InsightClassifier = (*InsightClassifier)(nil)

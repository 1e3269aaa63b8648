package registry

import "MacroPulse/internal/domain/models"

// Catalog returns the built-in set of tracked series. Display names and
// classifications follow the upstream FRED identifiers; config may
// override or extend any entry. Forecast hints are carried only where the
// consensus number is quoted in the raw series' own units.
func Catalog() []models.IndicatorMetadata {
	return []models.IndicatorMetadata{
		{
			SeriesID: "A191RL1Q225SBEA", DisplayName: "GDP Growth Rate",
			Type: models.TypeCoincident, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitPercent, Frequency: models.FreqQuarterly,
			Directionality: models.DirectionalityDirect,
			Forecast:       1.0, HasForecast: true,
		},
		{
			SeriesID: "CPIAUCSL", DisplayName: "Consumer Price Index",
			Type: models.TypeLagging, Category: "inflation", Family: models.FamilyInflation,
			Unit: models.UnitIndex, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityInverse,
		},
		{
			SeriesID: "CPILFESL", DisplayName: "Core CPI",
			Type: models.TypeLagging, Category: "inflation", Family: models.FamilyInflation,
			Unit: models.UnitIndex, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityInverse,
		},
		{
			SeriesID: "PCEPI", DisplayName: "PCE Price Index",
			Type: models.TypeLagging, Category: "inflation", Family: models.FamilyInflation,
			Unit: models.UnitIndex, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityInverse,
		},
		{
			SeriesID: "MANEMP", DisplayName: "Manufacturing Employment",
			Type: models.TypeLeading, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitCount, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
		},
		{
			SeriesID: "UNRATE", DisplayName: "Unemployment Rate",
			Type: models.TypeLagging, Category: "labor", Family: models.FamilyEmployment,
			Unit: models.UnitPercent, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityInverse,
			Forecast:       4.3, HasForecast: true,
		},
		{
			SeriesID: "PAYEMS", DisplayName: "Nonfarm Payrolls",
			Type: models.TypeCoincident, Category: "labor", Family: models.FamilyGrowth,
			Unit: models.UnitCount, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
		},
		{
			SeriesID: "FEDFUNDS", DisplayName: "Federal Funds Rate",
			Type: models.TypeLagging, Category: "monetary_policy", Family: models.FamilyRates,
			Unit: models.UnitRate, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityInverse,
			Forecast:       4.25, HasForecast: true,
		},
		{
			SeriesID: "GS10", DisplayName: "10-Year Treasury Yield",
			Type: models.TypeLeading, Category: "monetary_policy", Family: models.FamilyRates,
			Unit: models.UnitRate, Frequency: models.FreqDaily,
			Directionality: models.DirectionalityInverse,
			Forecast:       4.25, HasForecast: true,
		},
		{
			SeriesID: "CSCICP03USM665S", DisplayName: "Consumer Confidence",
			Type: models.TypeLeading, Category: "sentiment", Family: models.FamilySentiment,
			Unit: models.UnitIndex, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
			Forecast:       93.5, HasForecast: true,
		},
		{
			SeriesID: "UMCSENT", DisplayName: "Michigan Consumer Sentiment",
			Type: models.TypeLeading, Category: "sentiment", Family: models.FamilySentiment,
			Unit: models.UnitIndex, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
			Forecast:       61.5, HasForecast: true,
		},
		{
			SeriesID: "RSAFS", DisplayName: "Retail Sales",
			Type: models.TypeCoincident, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitCurrency, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
		},
		{
			SeriesID: "INDPRO", DisplayName: "Industrial Production",
			Type: models.TypeCoincident, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitIndex, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
		},
		{
			SeriesID: "HOUST", DisplayName: "Housing Starts",
			Type: models.TypeLeading, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitCount, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
			Forecast:       1350, HasForecast: true,
		},
		{
			SeriesID: "PERMIT", DisplayName: "Building Permits",
			Type: models.TypeLeading, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitCount, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
			Forecast:       1390, HasForecast: true,
		},
		{
			SeriesID: "DGORDER", DisplayName: "Durable Goods Orders",
			Type: models.TypeLeading, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitCurrency, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
		},
		{
			SeriesID: "USSLIND", DisplayName: "Leading Economic Index",
			Type: models.TypeLeading, Category: "growth", Family: models.FamilyGrowth,
			Unit: models.UnitIndex, Frequency: models.FreqMonthly,
			Directionality: models.DirectionalityDirect,
		},
	}
}

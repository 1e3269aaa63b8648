package registry

import (
	"fmt"

	"MacroPulse/internal/domain/models"
)

// Registry is the validated, read-only lookup of indicator metadata. It is
// built once at startup; a bad entry is a configuration fault and refuses
// to boot rather than silently defaulting a family or directionality.
type Registry struct {
	byID  map[string]models.IndicatorMetadata
	order []string
}

// New builds a registry from the built-in catalog plus config-supplied
// entries. A supplied entry with a known series id replaces the catalog
// one, otherwise it extends the set. The same id twice in the supplied
// entries is rejected: that is a config mistake, not an override.
func New(extra ...models.IndicatorMetadata) (*Registry, error) {
	r := &Registry{byID: make(map[string]models.IndicatorMetadata)}
	for _, m := range Catalog() {
		r.put(m)
	}
	seen := make(map[string]struct{}, len(extra))
	for _, m := range extra {
		if _, dup := seen[m.SeriesID]; dup {
			return nil, fmt.Errorf("registry: series %s configured twice", m.SeriesID)
		}
		seen[m.SeriesID] = struct{}{}
		r.put(m)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) put(m models.IndicatorMetadata) {
	if _, ok := r.byID[m.SeriesID]; !ok {
		r.order = append(r.order, m.SeriesID)
	}
	r.byID[m.SeriesID] = m
}

func (r *Registry) validate() error {
	for _, id := range r.order {
		m := r.byID[id]
		if m.SeriesID == "" || m.DisplayName == "" {
			return fmt.Errorf("registry: entry %q missing id or display name", id)
		}
		switch m.Directionality {
		case models.DirectionalityDirect, models.DirectionalityInverse:
		default:
			return fmt.Errorf("registry: %s has unknown directionality %q", id, m.Directionality)
		}
		switch m.Family {
		case models.FamilyGrowth, models.FamilyInflation, models.FamilyEmployment,
			models.FamilyRates, models.FamilySentiment, models.FamilyGeneral:
		default:
			return fmt.Errorf("registry: %s has unknown family %q", id, m.Family)
		}
		switch m.Frequency {
		case models.FreqDaily, models.FreqMonthly, models.FreqQuarterly:
		default:
			return fmt.Errorf("registry: %s has unknown frequency %q", id, m.Frequency)
		}
		switch m.Type {
		case models.TypeLeading, models.TypeLagging, models.TypeCoincident:
		default:
			return fmt.Errorf("registry: %s has unknown type %q", id, m.Type)
		}
	}
	return nil
}

// Get looks up one series.
func (r *Registry) Get(seriesID string) (models.IndicatorMetadata, bool) {
	m, ok := r.byID[seriesID]
	return m, ok
}

// List returns every entry in stable registration order.
func (r *Registry) List() []models.IndicatorMetadata {
	out := make([]models.IndicatorMetadata, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Filter narrows List by category and/or indicator type; empty arguments
// match everything.
func (r *Registry) Filter(category string, typ models.IndicatorType) []models.IndicatorMetadata {
	out := make([]models.IndicatorMetadata, 0, len(r.order))
	for _, id := range r.order {
		m := r.byID[id]
		if category != "" && m.Category != category {
			continue
		}
		if typ != "" && m.Type != typ {
			continue
		}
		out = append(out, m)
	}
	return out
}

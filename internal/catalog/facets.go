package catalog

import (
	"context"
	"sort"
)

// FacetEngine computes which facet values remain selectable. Every call
// rescans the matching products; there is no cached index.
type FacetEngine struct {
	store Store
}

func NewFacetEngine(store Store) *FacetEngine {
	return &FacetEngine{store: store}
}

// AvailableValues returns the sorted distinct non-empty values of target
// among products matching every constraint in others. A constraint on the
// target itself is ignored.
func (e *FacetEngine) AvailableValues(ctx context.Context, target Facet, others Filters) ([]string, error) {
	if !target.Valid() {
		return nil, invalid("facet", string(target))
	}
	pred := FilterPredicate(others.Normalize().Without(target))
	values, err := e.store.DistinctValues(ctx, target, pred)
	if err != nil {
		return nil, err
	}
	return dedupeSorted(values), nil
}

// GlobalValues is AvailableValues with no constraints.
func (e *FacetEngine) GlobalValues(ctx context.Context, target Facet) ([]string, error) {
	return e.AvailableValues(ctx, target, Filters{})
}

// Cardinalities counts the global distinct values of every facet.
func (e *FacetEngine) Cardinalities(ctx context.Context) (map[Facet]int, error) {
	out := make(map[Facet]int, len(Facets))
	for _, f := range Facets {
		values, err := e.GlobalValues(ctx, f)
		if err != nil {
			return nil, err
		}
		out[f] = len(values)
	}
	return out, nil
}

func dedupeSorted(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

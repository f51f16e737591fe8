package catalog

import (
	"strings"

	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/pkg/common"
	"golang.org/x/text/cases"
)

type Facet string

const (
	FacetCategory Facet = "category"
	FacetFinish   Facet = "finish"
	FacetMaterial Facet = "material"
)

// Facets lists every facet in display order.
var Facets = []Facet{FacetCategory, FacetFinish, FacetMaterial}

func (f Facet) Valid() bool {
	switch f {
	case FacetCategory, FacetFinish, FacetMaterial:
		return true
	}
	return false
}

// Column is the database column backing the facet.
func (f Facet) Column() string {
	return string(f)
}

func (f Facet) Value(p *domain.Product) string {
	switch f {
	case FacetCategory:
		return p.Category
	case FacetFinish:
		return p.Finish
	case FacetMaterial:
		return p.Material
	}
	return ""
}

// ParseFacet accepts singular and plural names ("categories", "finishes").
func ParseFacet(s string) (Facet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category", "categories":
		return FacetCategory, nil
	case "finish", "finishes":
		return FacetFinish, nil
	case "material", "materials":
		return FacetMaterial, nil
	}
	return "", invalid("facet", "unknown facet "+s)
}

// Filters holds exact-match facet constraints. An empty value is unconstrained.
type Filters struct {
	Category string `json:"category,omitempty"`
	Finish   string `json:"finish,omitempty"`
	Material string `json:"material,omitempty"`
}

// Normalize trims values and maps the "all" marker to unconstrained.
func (f Filters) Normalize() Filters {
	norm := func(v string) string {
		if common.IsEmptyOrAll(v) {
			return ""
		}
		return strings.TrimSpace(v)
	}
	return Filters{Category: norm(f.Category), Finish: norm(f.Finish), Material: norm(f.Material)}
}

func (f Filters) Get(facet Facet) string {
	switch facet {
	case FacetCategory:
		return f.Category
	case FacetFinish:
		return f.Finish
	case FacetMaterial:
		return f.Material
	}
	return ""
}

// Without drops the constraint on facet.
func (f Filters) Without(facet Facet) Filters {
	switch facet {
	case FacetCategory:
		f.Category = ""
	case FacetFinish:
		f.Finish = ""
	case FacetMaterial:
		f.Material = ""
	}
	return f
}

func (f Filters) Match(p *domain.Product) bool {
	for _, facet := range Facets {
		if v := f.Get(facet); v != "" && facet.Value(p) != v {
			return false
		}
	}
	return true
}

// Predicate selects products either by free-text search or by facet
// filters. A non-empty Search switches to search mode and Filters are ignored.
// Status scopes both modes to one lifecycle state when set.
type Predicate struct {
	Search  string
	Filters Filters
	Status  string
}

func SearchPredicate(q string) Predicate {
	return Predicate{Search: strings.TrimSpace(q)}
}

func FilterPredicate(f Filters) Predicate {
	return Predicate{Filters: f.Normalize()}
}

func (p Predicate) IsSearch() bool {
	return strings.TrimSpace(p.Search) != ""
}

// Match evaluates the predicate in process, used by the memory store.
func (p Predicate) Match(prod *domain.Product) bool {
	if p.Status != "" && prod.Status != p.Status {
		return false
	}
	if !p.IsSearch() {
		return p.Filters.Normalize().Match(prod)
	}
	needle, ok := p.needle()
	return ok && strings.Contains(SearchKey(prod), needle)
}

// searchSep separates the fields inside a search key so a needle never
// matches across two of them.
const searchSep = "\x1f"

// SearchKey is the case-folded text free-text search matches against. Both
// stores use it: the memory store computes it on the fly and the gorm store
// persists it in the search_key column.
func SearchKey(p *domain.Product) string {
	folder := cases.Fold()
	return strings.Join([]string{
		folder.String(p.Name),
		folder.String(p.Code),
		folder.String(p.Category),
		folder.String(p.Finish),
	}, searchSep)
}

// needle folds the search text the same way SearchKey folds fields. It
// reports false when the text could only match across a field boundary.
func (p Predicate) needle() (string, bool) {
	n := cases.Fold().String(strings.TrimSpace(p.Search))
	if n == "" || strings.Contains(n, searchSep) {
		return "", false
	}
	return n, true
}

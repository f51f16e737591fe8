package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/internal/testutil"
)

func TestFacetNarrowing(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		seed(t, s,
			testutil.Product("A", "A", "X", "F1", ""),
			testutil.Product("B", "B", "Y", "F1", ""),
			testutil.Product("C", "C", "X", "F2", ""),
		)
		engine := NewFacetEngine(s)
		ctx := context.Background()

		values, err := engine.AvailableValues(ctx, FacetCategory, Filters{Finish: "F1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"X", "Y"}, values)

		values, err = engine.AvailableValues(ctx, FacetCategory, Filters{Finish: "F2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"X"}, values)

		values, err = engine.AvailableValues(ctx, FacetFinish, Filters{Category: "Y"})
		require.NoError(t, err)
		assert.Equal(t, []string{"F1"}, values)
	})
}

func TestFacetUnconstrainedEqualsGlobal(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		seed(t, s,
			testutil.Product("1", "1", "Tables", "Walnut", "Wood"),
			testutil.Product("2", "2", "Decor", "Brass", ""),
			testutil.Product("3", "3", "Lighting", "Brass", "Metal"),
			testutil.Product("4", "4", "Decor", "Gilt", "Glass"),
		)
		engine := NewFacetEngine(s)
		ctx := context.Background()

		global, err := engine.GlobalValues(ctx, FacetCategory)
		require.NoError(t, err)
		assert.Equal(t, []string{"Decor", "Lighting", "Tables"}, global)

		all, err := engine.AvailableValues(ctx, FacetCategory, Filters{Finish: "all", Material: "ALL"})
		require.NoError(t, err)
		assert.Equal(t, global, all)

		materials, err := engine.GlobalValues(ctx, FacetMaterial)
		require.NoError(t, err)
		assert.Equal(t, []string{"Glass", "Metal", "Wood"}, materials)
	})
}

func TestFacetIgnoresConstraintOnTarget(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		seed(t, s,
			testutil.Product("1", "1", "Tables", "Oak", "Wood"),
			testutil.Product("2", "2", "Decor", "Oak", "Wood"),
			testutil.Product("3", "3", "Decor", "Brass", "Metal"),
		)
		engine := NewFacetEngine(s)
		values, err := engine.AvailableValues(context.Background(), FacetCategory,
			Filters{Category: "Tables", Material: "Wood"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Decor", "Tables"}, values)
	})
}

func TestFacetNoMatchIsEmptyNotError(t *testing.T) {
	engine := NewFacetEngine(NewMemoryStore(nil))
	values, err := engine.AvailableValues(context.Background(), FacetFinish, Filters{Category: "Nothing"})
	require.NoError(t, err)
	assert.NotNil(t, values)
	assert.Empty(t, values)
}

func TestFacetInvalidTarget(t *testing.T) {
	engine := NewFacetEngine(NewMemoryStore(nil))
	_, err := engine.AvailableValues(context.Background(), Facet("size"), Filters{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFacetCardinalities(t *testing.T) {
	s := NewMemoryStore(nil)
	seed(t, s,
		testutil.Product("1", "1", "Tables", "Oak", "Wood"),
		testutil.Product("2", "2", "Decor", "Oak", ""),
	)
	counts, err := NewFacetEngine(s).Cardinalities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[Facet]int{FacetCategory: 2, FacetFinish: 1, FacetMaterial: 1}, counts)
}

func TestParseFacet(t *testing.T) {
	for in, want := range map[string]Facet{
		"categories": FacetCategory,
		"Category":   FacetCategory,
		"finishes":   FacetFinish,
		"materials":  FacetMaterial,
	} {
		got, err := ParseFacet(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFacet("colours")
	assert.ErrorIs(t, err, ErrValidation)
}

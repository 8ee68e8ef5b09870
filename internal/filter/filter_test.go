package filter_test

import (
	"testing"

	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/filter"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleLeaf(t *testing.T) {
	obj := map[string]interface{}{"active": map[string]interface{}{"_eq": true}}
	f, err := filter.Parse(obj)
	require.NoError(t, err)
	require.Equal(t, filter.Leaf, f.Kind)
	require.Equal(t, "active", f.Column)
	require.Equal(t, dialect.OpEq, f.Op)
	require.Equal(t, true, f.Value)
}

func TestParseImplicitAnd(t *testing.T) {
	obj := map[string]interface{}{
		"active": map[string]interface{}{"_eq": true},
		"role":   map[string]interface{}{"_eq": "admin"},
	}
	f, err := filter.Parse(obj)
	require.NoError(t, err)
	require.Equal(t, filter.And, f.Kind)
	require.Len(t, f.Children, 2)
}

func TestRoundTripFilterIdentity(t *testing.T) {
	// Scenario E from the compiled-SQL examples: an _or of two equalities.
	original := filter.NewOr(
		filter.NewLeaf("role", dialect.OpEq, "admin"),
		filter.NewLeaf("role", dialect.OpEq, "editor"),
	)

	rendered := filter.Render(original)
	reparsed, err := filter.Parse(rendered)
	require.NoError(t, err)
	require.True(t, filter.Equal(original, reparsed))
}

func TestRoundTripNestedAndOr(t *testing.T) {
	original := filter.NewAnd(
		filter.NewLeaf("active", dialect.OpEq, true),
		filter.NewOr(
			filter.NewLeaf("role", dialect.OpEq, "admin"),
			filter.NewLeaf("role", dialect.OpEq, "editor"),
		),
	)
	rendered := filter.Render(original)
	reparsed, err := filter.Parse(rendered)
	require.NoError(t, err)
	require.True(t, filter.Equal(original, reparsed))
}

func TestInRequiresList(t *testing.T) {
	obj := map[string]interface{}{"id": map[string]interface{}{"_in": 5}}
	_, err := filter.Parse(obj)
	require.Error(t, err)
}

func TestBetweenRequiresTwoElements(t *testing.T) {
	obj := map[string]interface{}{
		"total": map[string]interface{}{"_between": []interface{}{1}},
	}
	_, err := filter.Parse(obj)
	require.Error(t, err)
}

func TestAndWithComposesAroundNilSides(t *testing.T) {
	leaf := filter.NewLeaf("tenant_id", dialect.OpEq, 42)
	require.Same(t, leaf, filter.AndWith(nil, leaf))
	require.Same(t, leaf, filter.AndWith(leaf, nil))

	other := filter.NewLeaf("active", dialect.OpEq, true)
	combined := filter.AndWith(leaf, other)
	require.Equal(t, filter.And, combined.Kind)
	require.Len(t, combined.Children, 2)
}

func TestEqualIgnoresChildOrdering(t *testing.T) {
	a := filter.NewAnd(filter.NewLeaf("x", dialect.OpEq, 1), filter.NewLeaf("y", dialect.OpEq, 2))
	b := filter.NewAnd(filter.NewLeaf("y", dialect.OpEq, 2), filter.NewLeaf("x", dialect.OpEq, 1))
	require.True(t, filter.Equal(a, b))
}

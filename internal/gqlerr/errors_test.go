package gqlerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/brightloom/sqlgraph/internal/gqlerr"
	"github.com/stretchr/testify/require"
)

func TestUserVisibleKinds(t *testing.T) {
	cases := []struct {
		err     *gqlerr.Error
		visible bool
	}{
		{gqlerr.Parse("bad token"), true},
		{gqlerr.Validation("field unknown"), true},
		{gqlerr.MissingVariable("id"), true},
		{gqlerr.UnknownLink("owner"), true},
		{gqlerr.FilterType("expected int"), true},
		{gqlerr.UserVisible("missing tenant"), true},
		{gqlerr.ConnectionFailed(errors.New("dial tcp refused")), true},
		{gqlerr.ExecutionFailed(errors.New("driver: bad conn"), "users", []string{"p0"}), true},
		{gqlerr.SchemaRead(errors.New("read failed"), "could not read catalog"), false},
		{gqlerr.Observer(errors.New("boom"), "audit-log"), false},
	}
	for _, c := range cases {
		require.Equal(t, c.visible, c.err.UserVisible(), c.err.Kind)
	}
}

func TestConnectionFailedHidesDetail(t *testing.T) {
	err := gqlerr.ConnectionFailed(errors.New("password authentication failed for user \"root\""))
	require.Contains(t, err.Message, "could not connect")
	require.NotContains(t, err.Message, "password")
	require.Contains(t, err.Detail, "password")
}

func TestExecutionFailedCarriesParamNamesNotValues(t *testing.T) {
	err := gqlerr.ExecutionFailed(errors.New("duplicate key"), "users_insert", []string{"p0", "p1"})
	require.Contains(t, err.Detail, "users_insert")
	require.Contains(t, err.Detail, "p0")
}

func TestObserverErrorNeverAborts(t *testing.T) {
	err := gqlerr.Observer(errors.New("boom"), "audit")
	require.False(t, err.Aborts())
	require.False(t, err.UserVisible())
}

func TestOtherKindsAbort(t *testing.T) {
	require.True(t, gqlerr.UnknownLink("owner").Aborts())
	require.True(t, gqlerr.ExecutionFailed(errors.New("x"), "s", nil).Aborts())
}

func TestSchemaReadIsFatal(t *testing.T) {
	err := gqlerr.SchemaRead(errors.New("conn refused"), "could not load catalog")
	require.True(t, err.Fatal())
}

func TestAsUnwraps(t *testing.T) {
	base := gqlerr.UnknownLink("author")
	wrapped := fmt.Errorf("compiling query: %w", base)

	got, ok := gqlerr.As(wrapped)
	require.True(t, ok)
	require.Equal(t, gqlerr.KindUnknownLink, got.Kind)
	require.True(t, gqlerr.Is(wrapped, gqlerr.KindUnknownLink))
	require.False(t, gqlerr.Is(wrapped, gqlerr.KindParse))
}

package dialect_test

import (
	"testing"

	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/stretchr/testify/require"
)

func TestSQLServerPaginateDefaultsOrderByWhenSortEmpty(t *testing.T) {
	d := dialect.SQLServer{}
	got := d.Paginate(nil, 0, nil)
	require.Equal(t, " ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 100 ROWS ONLY", got)
}

func TestSQLServerPaginateUnbounded(t *testing.T) {
	d := dialect.SQLServer{}
	n := -1
	got := d.Paginate([]string{"[name] asc"}, 0, &n)
	require.Equal(t, " ORDER BY [name] asc OFFSET 0 ROWS", got)
}

func TestSQLServerPaginateCustomLimit(t *testing.T) {
	d := dialect.SQLServer{}
	n := 10
	got := d.Paginate(nil, 0, &n)
	require.Equal(t, " ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY", got)
}

func TestEscapeIdentifierPerEngine(t *testing.T) {
	require.Equal(t, `[id]`, dialect.SQLServer{}.EscapeIdentifier("id"))
	require.Equal(t, "`id`", dialect.MySQL{}.EscapeIdentifier("id"))
	require.Equal(t, `"id"`, dialect.Postgres{}.EscapeIdentifier("id"))
	require.Equal(t, `"id"`, dialect.SQLite{}.EscapeIdentifier("id"))
}

func TestLastInsertedIdentityPerEngine(t *testing.T) {
	require.Equal(t, "SCOPE_IDENTITY()", dialect.SQLServer{}.LastInsertedIdentity())
	require.Equal(t, "LAST_INSERT_ID()", dialect.MySQL{}.LastInsertedIdentity())
	require.Equal(t, "last_insert_rowid()", dialect.SQLite{}.LastInsertedIdentity())
	require.Equal(t, "LASTVAL()", dialect.Postgres{}.LastInsertedIdentity())
}

func TestMapOperatorSharedTable(t *testing.T) {
	for _, d := range []dialect.Dialect{dialect.Postgres{}, dialect.MySQL{}, dialect.SQLServer{}, dialect.SQLite{}} {
		op, err := d.MapOperator(dialect.OpEq)
		require.NoError(t, err)
		require.Equal(t, "=", op)

		_, err = d.MapOperator(dialect.Op("_bogus"))
		require.Error(t, err)
	}
}

func TestUpsertClauseMatrix(t *testing.T) {
	cols := []string{"id", "name"}

	pg := dialect.Postgres{}.UpsertClause("users", "id", cols)
	require.Contains(t, pg, "ON CONFLICT")
	require.Contains(t, pg, "EXCLUDED")

	my := dialect.MySQL{}.UpsertClause("users", "id", cols)
	require.Contains(t, my, "ON DUPLICATE KEY UPDATE")

	ms := dialect.SQLServer{}.UpsertClause("users", "id", cols)
	require.Contains(t, ms, "MERGE")
	require.Contains(t, ms, "WHEN MATCHED")
	require.Contains(t, ms, "WHEN NOT MATCHED")

	lite := dialect.SQLite{}.UpsertClause("users", "id", cols)
	require.Contains(t, lite, "ON CONFLICT")
	require.Contains(t, lite, "excluded")
}

func TestNew(t *testing.T) {
	for _, name := range []string{"postgres", "mysql", "sqlserver", "sqlite"} {
		d, err := dialect.New(name)
		require.NoError(t, err)
		require.NotEmpty(t, d.Name())
	}
	_, err := dialect.New("oracle")
	require.Error(t, err)
}

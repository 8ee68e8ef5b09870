package mutate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/mutate"
)

func usersTable(t *testing.T) *catalog.Table {
	t.Helper()
	data := catalog.SchemaData{
		Tables: []catalog.RawTable{{Name: "users"}},
		Columns: []catalog.RawColumn{
			{Table: "users", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Table: "users", Name: "name", DataType: "varchar", OrdinalPosition: 2},
			{Table: "users", Name: "role", DataType: "varchar", OrdinalPosition: 3},
		},
		Constraints: []catalog.RawConstraint{
			{Kind: catalog.ConstraintPrimaryKey, Table: "users", Column: "id"},
			{Kind: catalog.ConstraintIdentity, Table: "users", Column: "id"},
		},
	}
	model, err := catalog.Build(data, catalog.MetadataOverlay{})
	require.NoError(t, err)
	table, ok := model.Table("", "users")
	require.True(t, ok)
	return table
}

func TestCompileInsertOmitsIdentityColumn(t *testing.T) {
	table := usersTable(t)
	d, err := dialect.New("postgres")
	require.NoError(t, err)

	plan, err := mutate.Compile(mutate.OpInsert, table, map[string]interface{}{
		"id": 7, "name": "Ada", "role": "admin",
	}, d)
	require.NoError(t, err)
	require.Len(t, plan.Statements, 1)
	require.Equal(t, `INSERT INTO "users" ("name", "role") VALUES ($1, $2)`, plan.Statements[0].SQL)
	require.Equal(t, []interface{}{"Ada", "admin"}, plan.Statements[0].Params)
	require.True(t, plan.ReadIdentity)
	require.Equal(t, "SELECT LASTVAL()", plan.IdentitySQL)
}

func TestCompileInsertReadsBackIdentityOnSQLServer(t *testing.T) {
	table := usersTable(t)
	d, err := dialect.New("sqlserver")
	require.NoError(t, err)

	plan, err := mutate.Compile(mutate.OpInsert, table, map[string]interface{}{"name": "Ada"}, d)
	require.NoError(t, err)
	require.True(t, plan.ReadIdentity)
	require.Equal(t, "SELECT SCOPE_IDENTITY()", plan.IdentitySQL)
}

func TestCompileUpdateRequiresPrimaryKey(t *testing.T) {
	table := usersTable(t)
	d, _ := dialect.New("postgres")

	_, err := mutate.Compile(mutate.OpUpdate, table, map[string]interface{}{"name": "Ada"}, d)
	require.Error(t, err)
}

func TestCompileUpdateSetsSuppliedColumns(t *testing.T) {
	table := usersTable(t)
	d, _ := dialect.New("postgres")

	plan, err := mutate.Compile(mutate.OpUpdate, table, map[string]interface{}{
		"id": 1, "name": "Grace",
	}, d)
	require.NoError(t, err)
	require.Equal(t, `UPDATE "users" SET "name" = $1 WHERE "id" = $2`, plan.Statements[0].SQL)
	require.Equal(t, []interface{}{"Grace", 1}, plan.Statements[0].Params)
}

func TestCompileDeleteByPrimaryKey(t *testing.T) {
	table := usersTable(t)
	d, _ := dialect.New("sqlite")

	plan, err := mutate.Compile(mutate.OpDelete, table, map[string]interface{}{"id": 3}, d)
	require.NoError(t, err)
	require.Equal(t, `DELETE FROM "users" WHERE "id" = ?`, plan.Statements[0].SQL)
	require.Equal(t, []interface{}{3}, plan.Statements[0].Params)
}

func TestCompileUpsertUsesNativeClausePerEngine(t *testing.T) {
	table := usersTable(t)
	data := map[string]interface{}{"id": 1, "name": "Ada", "role": "admin"}

	pg, _ := dialect.New("postgres")
	plan, err := mutate.Compile(mutate.OpUpsert, table, data, pg)
	require.NoError(t, err)
	require.Contains(t, plan.Statements[0].SQL, "ON CONFLICT")
	require.Equal(t, []interface{}{1, "Ada", "admin"}, plan.Statements[0].Params)

	mysql, _ := dialect.New("mysql")
	plan, err = mutate.Compile(mutate.OpUpsert, table, data, mysql)
	require.NoError(t, err)
	require.Contains(t, plan.Statements[0].SQL, "ON DUPLICATE KEY UPDATE")

	mssql, _ := dialect.New("sqlserver")
	plan, err = mutate.Compile(mutate.OpUpsert, table, data, mssql)
	require.NoError(t, err)
	require.Contains(t, plan.Statements[0].SQL, "MERGE")
}

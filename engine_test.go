package sqlgraph

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/pipeline"
)

func mutationTestModel(t *testing.T) *catalog.DbModel {
	t.Helper()
	data := catalog.SchemaData{
		Tables: []catalog.RawTable{{Name: "workshops", Type: catalog.TableBase}},
		Columns: []catalog.RawColumn{
			{Table: "workshops", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Table: "workshops", Name: "number", DataType: "varchar", OrdinalPosition: 2},
		},
		Constraints: []catalog.RawConstraint{
			{Kind: catalog.ConstraintPrimaryKey, Table: "workshops", Column: "id"},
			{Kind: catalog.ConstraintIdentity, Table: "workshops", Column: "id"},
		},
	}
	model, err := catalog.Build(data, catalog.MetadataOverlay{})
	require.NoError(t, err)
	return model
}

func TestExecuteMutationInsertWiresThroughToTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	e := &Engine{db: db, dialect: dialect.SQLite{}, pipeline: pipeline.New(zap.NewNop())}
	e.model.Store(mutationTestModel(t))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "workshops" ("number") VALUES (?)`).
		WithArgs("A").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT last_insert_rowid()").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT "id" "id", "number" "number" FROM "workshops" WHERE ("id" = ?) LIMIT 100 OFFSET 0`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number"}).AddRow(int64(7), "A"))

	out, err := e.Execute(context.Background(), `mutation { workshops(insert:{number:"A"}) { id number } }`, nil, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	row, ok := out["workshops"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, int64(7), row["id"])
	require.Equal(t, "A", row["number"])
}

func TestExecuteAnswersDbSchemaFromModel(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	e := &Engine{db: db, dialect: dialect.SQLite{}, pipeline: pipeline.New(zap.NewNop())}
	e.model.Store(mutationTestModel(t))

	out, err := e.Execute(context.Background(), `{ _dbSchema { name columns { name dataType } } }`, nil, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet(), "a _dbSchema-only query issues no SQL")

	tables, ok := out["_dbSchema"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, tables, 1)
	require.Equal(t, "workshops", tables[0]["name"])
}

func TestExecuteMutationDeleteSkipsReadBack(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	e := &Engine{db: db, dialect: dialect.SQLite{}, pipeline: pipeline.New(zap.NewNop())}
	e.model.Store(mutationTestModel(t))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "workshops" WHERE "id" = ?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := e.Execute(context.Background(), `mutation { workshops(delete:{id:7}) { id } }`, nil, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Nil(t, out["workshops"])
}

package executor_test

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/compiler"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/executor"
	"github.com/brightloom/sqlgraph/internal/mutate"
	"github.com/brightloom/sqlgraph/internal/qtree"
)

func sampleModel(t *testing.T) *catalog.DbModel {
	t.Helper()
	data := catalog.SchemaData{
		Tables: []catalog.RawTable{
			{Name: "workshops", Type: catalog.TableBase},
			{Name: "sessions", Type: catalog.TableBase},
		},
		Columns: []catalog.RawColumn{
			{Table: "workshops", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Table: "workshops", Name: "number", DataType: "varchar", OrdinalPosition: 2},
			{Table: "sessions", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Table: "sessions", Name: "workshopid", DataType: "int", OrdinalPosition: 2},
		},
		Constraints: []catalog.RawConstraint{
			{Kind: catalog.ConstraintPrimaryKey, Table: "workshops", Column: "id"},
			{Kind: catalog.ConstraintPrimaryKey, Table: "sessions", Column: "id"},
			{
				Kind: catalog.ConstraintForeignKey, Table: "sessions", Column: "workshopid",
				RefTable: "workshops", RefColumn: "id",
			},
		},
	}
	model, err := catalog.Build(data, catalog.MetadataOverlay{})
	require.NoError(t, err)
	return model
}

// buildResult hand-assembles a compiler.Result with one root statement and
// one join statement, the way compiler.Compile would for
// `{ workshops { id number sessions { id workshopid } } }`, without going
// through the visitor/compiler packages — this test is scoped to the
// executor's own statement-execution and row-correlation logic.
func buildResult(t *testing.T, model *catalog.DbModel, rootSQL, joinSQL string, rootParamCount, joinParamCount int) *compiler.Result {
	t.Helper()
	workshops, ok := model.Table("", "workshops")
	require.True(t, ok)
	sessions, ok := model.Table("", "sessions")
	require.True(t, ok)

	params := compiler.NewParams()
	for i := 0; i < rootParamCount; i++ {
		params.Add(i)
	}
	rootEnd := params.Len()
	for i := 0; i < joinParamCount; i++ {
		params.Add(i)
	}
	joinEnd := params.Len()

	stmts := compiler.NewStatementMap()
	stmts.Set("workshops", rootSQL)
	stmts.Set("workshops->sessions", joinSQL)

	tq := &qtree.TableQuery{Table: workshops, Plural: true}
	join := &qtree.Join{Name: "sessions", Kind: qtree.JoinMulti, FromColumn: "id", ToColumn: "workshopid", Child: &qtree.TableQuery{Table: sessions, Plural: true}}

	return &compiler.Result{
		Statements: stmts,
		Params:     params,
		Roots:      []compiler.RootInfo{{Query: tq, StatementName: "workshops"}},
		Joins: []compiler.JoinInfo{
			{Join: join, StatementName: "workshops->sessions", ParentStatement: "workshops", ParentKeyColumn: "id", FieldName: "sessions", Plural: true},
		},
		ParamRanges: map[string][2]int{
			"workshops":           {0, rootEnd},
			"workshops->sessions": {rootEnd, joinEnd},
		},
	}
}

func TestExecuteSequentialDialectBindsPerStatementRanges(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	model := sampleModel(t)
	rootSQL := `SELECT "id" "id" FROM "workshops"`
	joinSQL := `SELECT a.JoinId AS src_id, b."id" AS "id" FROM (x) a`
	res := buildResult(t, model, rootSQL, joinSQL, 1, 2)

	mock.ExpectQuery(rootSQL).
		WithArgs(0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(joinSQL).
		WithArgs(0, 1).
		WillReturnRows(sqlmock.NewRows([]string{"src_id", "id"}).AddRow(1, 10).AddRow(1, 11).AddRow(2, 20))

	e := executor.New(db, dialect.SQLite{})
	out, err := e.Execute(context.Background(), res)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	rows := out["workshops"].([]map[string]interface{})
	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0]["id"])
	sessions0 := rows[0]["sessions"].([]map[string]interface{})
	require.Len(t, sessions0, 2)
	sessions1 := rows[1]["sessions"].([]map[string]interface{})
	require.Len(t, sessions1, 1)
	require.NotContains(t, sessions0[0], "src_id")
}

func TestExecuteBatchedDialectSendsOneRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	model := sampleModel(t)
	rootSQL := `SELECT "id" "id" FROM "workshops"`
	joinSQL := `SELECT a.JoinId AS src_id, b."id" AS "id" FROM (x) a`
	res := buildResult(t, model, rootSQL, joinSQL, 0, 0)

	combined := rootSQL + ";\n" + joinSQL
	mock.ExpectQuery(combined).
		WillReturnRows(
			sqlmock.NewRows([]string{"id"}).AddRow(1),
			sqlmock.NewRows([]string{"src_id", "id"}).AddRow(1, 10),
		)

	e := executor.New(db, dialect.Postgres{})
	out, err := e.Execute(context.Background(), res)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	rows := out["workshops"].([]map[string]interface{})
	require.Len(t, rows, 1)
	sessions := rows[0]["sessions"].([]map[string]interface{})
	require.Len(t, sessions, 1)
}

func TestExecuteWrapsResultInEnvelopeWhenMetaRequested(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	model := sampleModel(t)
	workshops, _ := model.Table("", "workshops")
	sessions, _ := model.Table("", "sessions")
	_ = sessions

	params := compiler.NewParams()
	stmts := compiler.NewStatementMap()
	stmts.Set("workshops", `SELECT "id" "id" FROM "workshops"`)
	stmts.Set("workshops_count", `SELECT COUNT(*) FROM "workshops"`)

	tq := &qtree.TableQuery{Table: workshops, Plural: true, IncludeMeta: true}
	res := &compiler.Result{
		Statements: stmts,
		Params:     params,
		Roots:      []compiler.RootInfo{{Query: tq, StatementName: "workshops", CountStatement: "workshops_count", IncludeMeta: true}},
		ParamRanges: map[string][2]int{
			"workshops":       {0, 0},
			"workshops_count": {0, 0},
		},
	}

	mock.ExpectQuery(`SELECT "id" "id" FROM "workshops"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT(*) FROM "workshops"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	e := executor.New(db, dialect.SQLite{})
	out, err := e.Execute(context.Background(), res)
	require.NoError(t, err)

	envelope := out["workshops"].(map[string]interface{})
	require.Equal(t, int64(42), envelope["total"])
	require.Len(t, envelope["data"].([]map[string]interface{}), 1)
}

func TestExecuteMutationsCommitsOnSuccessAndReadsIdentity(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	insertSQL := `INSERT INTO "workshops" ("number") VALUES (?)`
	identitySQL := "SELECT last_insert_rowid()"
	plan := &mutate.Plan{
		Statements:   []mutate.Statement{{SQL: insertSQL, Params: []interface{}{"A"}}},
		ReadIdentity: true,
		IdentitySQL:  identitySQL,
	}

	mock.ExpectBegin()
	mock.ExpectExec(insertSQL).WithArgs("A").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(identitySQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	e := executor.New(db, dialect.SQLite{})
	identities, err := e.ExecuteMutations(context.Background(), []*mutate.Plan{plan})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Equal(t, []interface{}{int64(7)}, identities)
}

func TestExecuteMutationsRollsBackOnStatementFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	updateSQL := `UPDATE "workshops" SET "number" = ? WHERE "id" = ?`
	plan := &mutate.Plan{Statements: []mutate.Statement{{SQL: updateSQL, Params: []interface{}{"B", 1}}}}

	mock.ExpectBegin()
	mock.ExpectExec(updateSQL).WithArgs("B", 1).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	e := executor.New(db, dialect.SQLite{})
	_, err = e.ExecuteMutations(context.Background(), []*mutate.Plan{plan})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

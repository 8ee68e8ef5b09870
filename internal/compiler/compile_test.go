package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/compiler"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/filter"
	"github.com/brightloom/sqlgraph/internal/qtree"
)

func sampleModel(t *testing.T) *catalog.DbModel {
	t.Helper()
	data := catalog.SchemaData{
		Tables: []catalog.RawTable{
			{Schema: "", Name: "workshops", Type: catalog.TableBase},
			{Schema: "", Name: "sessions", Type: catalog.TableBase},
			{Schema: "", Name: "users", Type: catalog.TableBase},
		},
		Columns: []catalog.RawColumn{
			{Schema: "", Table: "workshops", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Schema: "", Table: "workshops", Name: "number", DataType: "varchar", OrdinalPosition: 2},
			{Schema: "", Table: "sessions", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Schema: "", Table: "sessions", Name: "workshopid", DataType: "int", OrdinalPosition: 2},
			{Schema: "", Table: "sessions", Name: "sid", DataType: "int", OrdinalPosition: 3},
			{Schema: "", Table: "sessions", Name: "status", DataType: "varchar", OrdinalPosition: 4},
			{Schema: "", Table: "users", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Schema: "", Table: "users", Name: "name", DataType: "varchar", OrdinalPosition: 2},
			{Schema: "", Table: "users", Name: "role", DataType: "varchar", OrdinalPosition: 3},
		},
		Constraints: []catalog.RawConstraint{
			{Kind: catalog.ConstraintPrimaryKey, Schema: "", Table: "workshops", Column: "id"},
			{Kind: catalog.ConstraintPrimaryKey, Schema: "", Table: "sessions", Column: "id"},
			{Kind: catalog.ConstraintPrimaryKey, Schema: "", Table: "users", Column: "id"},
			{
				Kind: catalog.ConstraintForeignKey, Schema: "", Table: "sessions", Column: "workshopid",
				RefSchema: "", RefTable: "workshops", RefColumn: "id",
			},
		},
	}
	model, err := catalog.Build(data, catalog.MetadataOverlay{})
	require.NoError(t, err)
	return model
}

func mustDialect(t *testing.T) dialect.Dialect {
	t.Helper()
	d, err := dialect.New("sqlserver")
	require.NoError(t, err)
	return d
}

// Scenario A: simple projection.
func TestCompileScenarioA_SimpleProjection(t *testing.T) {
	model := sampleModel(t)
	workshops, _ := model.Table("", "workshops")
	tq := &qtree.TableQuery{Table: workshops, Plural: true, Columns: []string{"id", "number"}}

	res, err := compiler.Compile([]*qtree.TableQuery{tq}, model, mustDialect(t))
	require.NoError(t, err)

	sql, ok := res.Statements.Get("workshops")
	require.True(t, ok)
	require.Equal(t,
		"SELECT [id] [id], [number] [number] FROM [workshops]"+
			" ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 100 ROWS ONLY",
		sql)
}

// Scenario B: paged envelope.
func TestCompileScenarioB_PagedEnvelope(t *testing.T) {
	model := sampleModel(t)
	workshops, _ := model.Table("", "workshops")
	limit := 10
	tq := &qtree.TableQuery{Table: workshops, Plural: true, IncludeMeta: true, Limit: &limit, Columns: []string{"id"}}

	res, err := compiler.Compile([]*qtree.TableQuery{tq}, model, mustDialect(t))
	require.NoError(t, err)

	base, ok := res.Statements.Get("workshops")
	require.True(t, ok)
	require.Contains(t, base, "OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY")

	count, ok := res.Statements.Get("workshops_count")
	require.True(t, ok)
	require.Equal(t, "SELECT COUNT(*) FROM [workshops]", count)
}

// Scenario C: dynamic join.
func TestCompileScenarioC_DynamicJoin(t *testing.T) {
	model := sampleModel(t)
	workshops, _ := model.Table("", "workshops")
	sessions, _ := model.Table("", "sessions")

	child := &qtree.TableQuery{Table: sessions, Plural: true, Columns: []string{"sid", "status"}}
	tq := &qtree.TableQuery{
		Table: workshops, Plural: true, Columns: []string{"id"},
		Joins: []*qtree.Join{{
			Name: "sessions", Alias: "sess", Kind: qtree.JoinMulti,
			FromTable: "workshops", FromColumn: "id",
			ToTable: "sessions", ToColumn: "workshopid",
			Child: child, Dynamic: true,
		}},
	}

	res, err := compiler.Compile([]*qtree.TableQuery{tq}, model, mustDialect(t))
	require.NoError(t, err)

	join, ok := res.Statements.Get("workshops->sess")
	require.True(t, ok)
	require.Equal(t,
		"SELECT a.JoinId AS src_id, b.[sid] AS [sid], b.[status] AS [status]"+
			" FROM (SELECT DISTINCT [id] AS JoinId FROM [workshops]) a"+
			" INNER JOIN [sessions] b ON a.JoinId = b.[workshopid]"+
			" ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 100 ROWS ONLY",
		join)

	require.Len(t, res.Joins, 1)
	require.Equal(t, "sess", res.Joins[0].FieldName)
	require.True(t, res.Joins[0].Plural)
	require.Equal(t, "id", res.Joins[0].ParentKeyColumn)
}

// Scenario D: link navigation (single link, no pagination).
func TestCompileScenarioD_LinkNavigation(t *testing.T) {
	model := sampleModel(t)
	sessions, _ := model.Table("", "sessions")
	workshops, _ := model.Table("", "workshops")

	linkChild := &qtree.TableQuery{Table: workshops, Plural: false, LinkName: "workshop", Columns: []string{"id", "number"}}
	tq := &qtree.TableQuery{
		Table: sessions, Plural: true, Columns: []string{"id"},
		Links: []*qtree.TableQuery{linkChild},
	}

	res, err := compiler.Compile([]*qtree.TableQuery{tq}, model, mustDialect(t))
	require.NoError(t, err)

	base, ok := res.Statements.Get("sessions")
	require.True(t, ok)
	require.Contains(t, base, "[workshopid] [workshopid]", "join key must be projected alongside explicit columns")

	join, ok := res.Statements.Get("sessions->workshop")
	require.True(t, ok)
	require.Equal(t,
		"SELECT a.JoinId AS src_id, b.[id] AS [id], b.[number] AS [number]"+
			" FROM (SELECT DISTINCT [workshopid] AS JoinId FROM [sessions]) a"+
			" INNER JOIN [workshops] b ON a.JoinId = b.[id]",
		join, "single-kind joins omit pagination entirely")
}

// Scenario E: filter + sort + compound OR.
func TestCompileScenarioE_FilterSortCompound(t *testing.T) {
	model := sampleModel(t)
	users, _ := model.Table("", "users")

	f := filter.NewOr(
		filter.NewLeaf("role", dialect.OpEq, "admin"),
		filter.NewLeaf("role", dialect.OpEq, "editor"),
	)
	limit := 25
	tq := &qtree.TableQuery{
		Table: users, Plural: true, Columns: []string{"id", "name"},
		Filter: f, Sort: []string{"name asc"}, Limit: &limit,
	}

	res, err := compiler.Compile([]*qtree.TableQuery{tq}, model, mustDialect(t))
	require.NoError(t, err)

	sql, ok := res.Statements.Get("users")
	require.True(t, ok)
	require.Equal(t,
		"SELECT [id] [id], [name] [name] FROM [users]"+
			" WHERE (([role] = @p1) OR ([role] = @p2))"+
			" ORDER BY [name] asc OFFSET 0 ROWS FETCH NEXT 25 ROWS ONLY",
		sql)
	require.Equal(t, []interface{}{"admin", "editor"}, res.Params.Values())
}

// Scenario F: tenant transformer AND-composes onto the filter before
// compilation; this test exercises the compiled result of that
// composition, not the transformer itself (see internal/pipeline).
func TestCompileScenarioF_TenantFilterComposition(t *testing.T) {
	model := sampleModel(t)
	users, _ := model.Table("", "users")

	tenantFilter := filter.NewLeaf("tenant_id", dialect.OpEq, 42)
	tq := &qtree.TableQuery{Table: users, Plural: true, Columns: []string{"id"}, Filter: filter.AndWith(nil, tenantFilter)}

	res, err := compiler.Compile([]*qtree.TableQuery{tq}, model, mustDialect(t))
	require.NoError(t, err)

	sql, ok := res.Statements.Get("users")
	require.True(t, ok)
	require.Contains(t, sql, "WHERE ([tenant_id] = @p1)")
	require.Equal(t, []interface{}{42}, res.Params.Values())
}

// Testable property #1 (spec.md §8): every value that could vary with user
// input reaches the SQL text only as a bound parameter, never inlined.
func TestCompileNeverInlinesFilterValues(t *testing.T) {
	model := sampleModel(t)
	users, _ := model.Table("", "users")
	tq := &qtree.TableQuery{
		Table: users, Plural: true, Columns: []string{"id"},
		Filter: filter.NewLeaf("name", dialect.OpContains, "secret-value"),
	}

	res, err := compiler.Compile([]*qtree.TableQuery{tq}, model, mustDialect(t))
	require.NoError(t, err)

	sql, _ := res.Statements.Get("users")
	require.NotContains(t, sql, "secret-value")
	require.Equal(t, 1, res.Params.Len())
}

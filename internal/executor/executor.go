// Package executor runs a compiled compiler.Result against a database/sql
// handle and assembles the nested JSON-shaped result the query tree
// described, correlating join rows back to their parents by src_id.
//
// Grounded on core/database_join.go's fan-out/merge pattern
// (executeParallelRoots/mergeRootResults), which there federates results
// across separate database connections for cross-database relationships (an
// explicit Non-goal here, see SPEC_FULL.md §2). The pattern is repurposed:
// instead of merging rows fetched from distinct databases by a shared key,
// this package merges rows fetched from distinct *statements* against one
// database by the same src_id correlation idea.
package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brightloom/sqlgraph/internal/compiler"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/gqlerr"
	"github.com/brightloom/sqlgraph/internal/mutate"
)

// Executor runs compiled statements against one database/sql handle.
type Executor struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// New returns an Executor bound to db, rendering/binding statements the way
// dialect describes.
func New(db *sql.DB, d dialect.Dialect) *Executor {
	return &Executor{db: db, dialect: d}
}

// Execute runs every statement in res and returns one entry per root query,
// keyed by its Query.ResponseKey() (the alias or field name as requested), shaped per
// RootInfo.Query.Plural and wrapped in a {data, total} envelope when
// IncludeMeta was requested.
func (e *Executor) Execute(ctx context.Context, res *compiler.Result) (map[string]interface{}, error) {
	rowsByStmt, err := e.runStatements(ctx, res)
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(res.Roots))
	assembled := make(map[string][]map[string]interface{}, len(rowsByStmt))
	for _, root := range res.Roots {
		rows := e.assemble(res, rowsByStmt, assembled, root.StatementName)

		var value interface{}
		if root.Query.Plural {
			value = rows
		} else if len(rows) > 0 {
			value = rows[0]
		}

		if root.IncludeMeta {
			total := int64(0)
			if cRows, ok := rowsByStmt[root.CountStatement]; ok && len(cRows) > 0 {
				total = firstInt(cRows[0])
			}
			value = map[string]interface{}{"data": value, "total": total}
		}
		out[root.Query.ResponseKey()] = value
	}
	return out, nil
}

// ExecuteMutations runs every plan's statements, in order, inside a single
// database transaction (spec.md §4.9's single-explicit-transaction
// requirement), rolling the whole transaction back on the first failure.
// It returns one entry per plan: the identity value read back via
// plan.IdentitySQL when plan.ReadIdentity is set, else nil.
func (e *Executor) ExecuteMutations(ctx context.Context, plans []*mutate.Plan) ([]interface{}, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, gqlerr.ConnectionFailed(err)
	}

	identities := make([]interface{}, len(plans))
	for i, plan := range plans {
		for _, stmt := range plan.Statements {
			if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Params...); err != nil {
				tx.Rollback()
				return nil, gqlerr.ExecutionFailed(err, stmt.SQL, nil)
			}
		}
		if plan.ReadIdentity {
			var id interface{}
			if err := tx.QueryRowContext(ctx, plan.IdentitySQL).Scan(&id); err != nil {
				tx.Rollback()
				return nil, gqlerr.ExecutionFailed(err, plan.IdentitySQL, nil)
			}
			identities[i] = normalizeValue(id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, gqlerr.ExecutionFailed(err, "COMMIT", nil)
	}
	return identities, nil
}

// runStatements executes every statement in res, returning each statement's
// materialized rows keyed by statement name. Batching dialects (Postgres,
// SQL Server) send every statement concatenated in one round trip and split
// the multiple result sets back apart; non-batching dialects (MySQL,
// SQLite) run one statement at a time, slicing res.Params.Values() per
// res.ParamRanges so each statement's bare "?" placeholders bind only the
// parameters that statement itself rendered.
func (e *Executor) runStatements(ctx context.Context, res *compiler.Result) (map[string][]map[string]interface{}, error) {
	if e.dialect.SupportsBatching() {
		return e.runBatched(ctx, res)
	}
	return e.runSequential(ctx, res)
}

func (e *Executor) runBatched(ctx context.Context, res *compiler.Result) (map[string][]map[string]interface{}, error) {
	names := res.Statements.Names()
	if len(names) == 0 {
		return map[string][]map[string]interface{}{}, nil
	}

	var combined string
	for i, name := range names {
		sqlText, _ := res.Statements.Get(name)
		if i > 0 {
			combined += e.dialect.StatementSeparator()
		}
		combined += sqlText
	}

	rows, err := e.db.QueryContext(ctx, combined, res.Params.Values()...)
	if err != nil {
		return nil, gqlerr.ExecutionFailed(err, names[0], res.Params.Names())
	}
	defer rows.Close()

	out := make(map[string][]map[string]interface{}, len(names))
	for i, name := range names {
		if i > 0 && !rows.NextResultSet() {
			if err := rows.Err(); err != nil {
				return nil, gqlerr.ExecutionFailed(err, name, res.Params.Names())
			}
			return nil, gqlerr.ExecutionFailed(fmt.Errorf("missing result set for statement %q", name), name, nil)
		}
		maps, err := rowsToMaps(rows)
		if err != nil {
			return nil, gqlerr.ExecutionFailed(err, name, res.Params.Names())
		}
		out[name] = maps
	}
	return out, nil
}

func (e *Executor) runSequential(ctx context.Context, res *compiler.Result) (map[string][]map[string]interface{}, error) {
	names := res.Statements.Names()
	out := make(map[string][]map[string]interface{}, len(names))
	allValues := res.Params.Values()

	for _, name := range names {
		sqlText, _ := res.Statements.Get(name)
		rng := res.ParamRanges[name]
		args := toArgs(allValues[rng[0]:rng[1]])

		rows, err := e.db.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return nil, gqlerr.ExecutionFailed(err, name, res.Params.Names()[rng[0]:rng[1]])
		}
		maps, err := rowsToMaps(rows)
		rows.Close()
		if err != nil {
			return nil, gqlerr.ExecutionFailed(err, name, res.Params.Names()[rng[0]:rng[1]])
		}
		out[name] = maps
	}
	return out, nil
}

func toArgs(values []interface{}) []interface{} {
	args := make([]interface{}, len(values))
	copy(args, values)
	return args
}

// assemble returns stmtName's rows with every join hanging off it attached
// under its FieldName, resolving deeper joins first so a grandchild's rows
// are already nested into a child before the child is nested into its
// parent. assembled memoizes by statement name since a query tree's
// statement names are unique per path (see compiler.compileJoinsOf).
func (e *Executor) assemble(res *compiler.Result, rowsByStmt map[string][]map[string]interface{}, assembled map[string][]map[string]interface{}, stmtName string) []map[string]interface{} {
	if done, ok := assembled[stmtName]; ok {
		return done
	}
	rows := rowsByStmt[stmtName]

	for i := range res.Joins {
		j := res.Joins[i]
		if j.ParentStatement != stmtName {
			continue
		}

		childRows := e.assemble(res, rowsByStmt, assembled, j.StatementName)
		byParent := make(map[string][]map[string]interface{}, len(childRows))
		for _, cr := range childRows {
			key := fmt.Sprint(cr["src_id"])
			delete(cr, "src_id")
			byParent[key] = append(byParent[key], cr)
		}

		for _, pr := range rows {
			key := fmt.Sprint(pr[j.ParentKeyColumn])
			matched := byParent[key]
			if j.Plural {
				if matched == nil {
					matched = []map[string]interface{}{}
				}
				pr[j.FieldName] = matched
			} else if len(matched) > 0 {
				pr[j.FieldName] = matched[0]
			} else {
				pr[j.FieldName] = nil
			}
		}
	}

	assembled[stmtName] = rows
	return rows
}

// rowsToMaps materializes every remaining row of the current result set
// into a column-name-keyed map, normalizing driver-returned []byte values to
// string the way most database/sql drivers return text columns (grounded on
// the scan-into-interface{} pattern common across the retrieved pack's
// database-facing code, e.g. wayli-app-fluxbase's row scanning).
func rowsToMaps(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		m := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			m[c] = normalizeValue(vals[i])
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// firstInt extracts the single COUNT(*) column from a count statement's
// lone row, regardless of the column name or the concrete numeric type the
// driver chose to scan it as.
func firstInt(row map[string]interface{}) int64 {
	for _, v := range row {
		switch n := v.(type) {
		case int64:
			return n
		case int32:
			return int64(n)
		case int:
			return int64(n)
		case string:
			var out int64
			fmt.Sscanf(n, "%d", &out)
			return out
		}
	}
	return 0
}

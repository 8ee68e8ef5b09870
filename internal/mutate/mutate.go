// Package mutate translates insert/update/upsert/delete mutation fields
// into a transactional sequence of parameterized SQL statements (spec.md
// §4.9), using the same Dialect abstraction (internal/dialect) the query
// compiler does for identifier escaping, bind variables, and the
// per-engine upsert clause.
package mutate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// Op identifies one mutation field kind.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Statement is one rendered SQL statement plus the parameter values bound
// to it, in the order the dialect's bind variables reference them (the
// mutation engine uses per-statement parameter collections rather than one
// shared collection, since each mutation statement runs independently
// inside its transaction).
type Statement struct {
	SQL    string
	Params []interface{}
}

// Plan is the statement sequence for one mutation field: zero or more
// statements to run in order inside one transaction, plus (for insert) the
// identity read-back expression to run afterward.
type Plan struct {
	Statements   []Statement
	ReadIdentity bool
	IdentitySQL  string
}

// Compile builds the statement sequence for op against table with data,
// per spec.md §4.9. Column values come from data, keyed by column name.
func Compile(op Op, table *catalog.Table, data map[string]interface{}, d dialect.Dialect) (*Plan, error) {
	switch op {
	case OpInsert:
		return compileInsert(table, data, d)
	case OpUpdate:
		return compileUpdate(table, data, d)
	case OpUpsert:
		return compileUpsert(table, data, d)
	case OpDelete:
		return compileDelete(table, data, d)
	default:
		return nil, gqlerr.Validation("unknown mutation operation %q", op)
	}
}

// compileInsert omits identity columns from the column list (the engine
// generates their value) and reads the generated key back via the
// dialect's LastInsertedIdentity expression.
func compileInsert(table *catalog.Table, data map[string]interface{}, d dialect.Dialect) (*Plan, error) {
	cols, err := sortedColumns(table, data, noSkip)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, gqlerr.Validation("insert on %q has no column values", table.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (", d.TableRef(table.Schema, table.Name))
	b.WriteString(joinIdentifiers(cols, d))
	b.WriteString(") VALUES (")

	params := make([]interface{}, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		params[i] = data[c]
		placeholders[i] = d.BindVar("", i+1)
	}
	b.WriteString(strings.Join(placeholders, ", "))
	b.WriteString(")")

	plan := &Plan{Statements: []Statement{{SQL: b.String(), Params: params}}}
	if ident := d.LastInsertedIdentity(); ident != "" {
		plan.ReadIdentity = true
		plan.IdentitySQL = "SELECT " + ident
	}
	return plan, nil
}

// compileUpdate requires the primary key in data and sets every other
// supplied column, per spec.md §4.9.
func compileUpdate(table *catalog.Table, data map[string]interface{}, d dialect.Dialect) (*Plan, error) {
	pk, ok := table.PrimaryKey()
	if !ok {
		return nil, gqlerr.Validation("table %q has no primary key to update by", table.Name)
	}
	pkValue, ok := data[pk.Name]
	if !ok {
		return nil, gqlerr.Validation("update on %q requires primary key %q", table.Name, pk.Name)
	}

	cols, err := sortedColumns(table, data, skipColumn(pk.Name))
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, gqlerr.Validation("update on %q has no columns to set", table.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET ", d.TableRef(table.Schema, table.Name))

	var params []interface{}
	sets := make([]string, len(cols))
	for i, c := range cols {
		params = append(params, data[c])
		sets[i] = fmt.Sprintf("%s = %s", d.EscapeIdentifier(c), d.BindVar("", i+1))
	}
	b.WriteString(strings.Join(sets, ", "))
	fmt.Fprintf(&b, " WHERE %s = %s", d.EscapeIdentifier(pk.Name), d.BindVar("", len(cols)+1))
	params = append(params, pkValue)

	return &Plan{Statements: []Statement{{SQL: b.String(), Params: params}}}, nil
}

// compileUpsert renders the engine-native merge clause (spec.md §9's
// resolved open question: per-engine native upsert, not a MERGE-only
// rendering) via dialect.Dialect.UpsertClause, substituting its bare "?"
// value placeholders with this dialect's real bind-variable syntax.
func compileUpsert(table *catalog.Table, data map[string]interface{}, d dialect.Dialect) (*Plan, error) {
	pk, ok := table.PrimaryKey()
	if !ok {
		return nil, gqlerr.Validation("table %q has no primary key to upsert by", table.Name)
	}
	cols, err := sortedColumns(table, data, noSkip)
	if err != nil {
		return nil, err
	}
	// sortedColumns drops identity columns, but the merge is keyed on the
	// primary key, so a supplied identity key value is kept.
	if _, ok := data[pk.Name]; ok && pk.IsIdentity {
		cols = append([]string{pk.Name}, cols...)
	}
	if len(cols) == 0 {
		return nil, gqlerr.Validation("upsert on %q has no column values", table.Name)
	}

	clause := d.UpsertClause(table.Name, pk.Name, cols)
	// UpsertClause renders exactly one bare "?" placeholder per column, in
	// column order (the update side of every dialect's clause references the
	// inserted row by identifier — EXCLUDED/VALUES()/src — never by a second
	// placeholder), so substitution below is purely positional against cols.
	params := make([]interface{}, len(cols))
	for i, c := range cols {
		params[i] = data[c]
	}
	sql := substitutePlaceholders(clause, cols, d)

	return &Plan{Statements: []Statement{{SQL: sql, Params: params}}}, nil
}

func compileDelete(table *catalog.Table, data map[string]interface{}, d dialect.Dialect) (*Plan, error) {
	pk, ok := table.PrimaryKey()
	if !ok {
		return nil, gqlerr.Validation("table %q has no primary key to delete by", table.Name)
	}
	pkValue, ok := data[pk.Name]
	if !ok {
		return nil, gqlerr.Validation("delete on %q requires primary key %q", table.Name, pk.Name)
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		d.TableRef(table.Schema, table.Name), d.EscapeIdentifier(pk.Name), d.BindVar("", 1))
	return &Plan{Statements: []Statement{{SQL: sql, Params: []interface{}{pkValue}}}}, nil
}

type skipFn func(col string) bool

func skipColumn(name string) skipFn { return func(c string) bool { return c == name } }
func noSkip(string) bool            { return false }

// sortedColumns returns the table's columns present in data (by native
// name), in table ordinal order, excluding identity columns and any column
// skip reports true for.
func sortedColumns(table *catalog.Table, data map[string]interface{}, skip skipFn) ([]string, error) {
	var cols []string
	for _, c := range table.Columns {
		if _, ok := data[c.Name]; !ok {
			continue
		}
		if c.IsIdentity || skip(c.Name) {
			continue
		}
		cols = append(cols, c.Name)
	}
	sort.SliceStable(cols, func(i, j int) bool {
		ci, _ := table.GetColumn(cols[i])
		cj, _ := table.GetColumn(cols[j])
		return ci.OrdinalPosition < cj.OrdinalPosition
	})
	return cols, nil
}

func joinIdentifiers(cols []string, d dialect.Dialect) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.EscapeIdentifier(c)
	}
	return strings.Join(out, ", ")
}

// substitutePlaceholders replaces each bare "?" in clause, in order, with
// the dialect's real bind-variable syntax.
func substitutePlaceholders(clause string, cols []string, d dialect.Dialect) string {
	var b strings.Builder
	i := 0
	for _, r := range clause {
		if r == '?' {
			b.WriteString(d.BindVar("", i+1))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Package compiler walks a query tree (internal/qtree) and renders it into a
// StatementMap of named, parameterized SQL statements, per spec.md §4.6: one
// base statement per root TableQuery, an optional count sidecar, and one
// wrap statement per join (dynamic or resolved from a declared link),
// reachable transitively through nested children.
package compiler

import (
	"strings"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/filter"
	"github.com/brightloom/sqlgraph/internal/gqlerr"
	"github.com/brightloom/sqlgraph/internal/qtree"
)

// RootInfo describes one compiled root TableQuery: its base statement name,
// its count sidecar name (empty if IncludeMeta was not requested), and
// whether the {data, total} envelope was requested. Whether it projects a
// list is read from Query.Plural.
type RootInfo struct {
	Query           *qtree.TableQuery
	StatementName   string
	CountStatement  string
	IncludeMeta     bool
}

// JoinInfo describes one compiled join wrap statement: the statement that
// holds its rows, the statement whose rows it correlates against, the
// column in the parent row set whose value equals each child row's src_id,
// the field name to attach results under, and whether that field is a list
// (multi) or a single nullable object (single).
type JoinInfo struct {
	Join            *qtree.Join
	StatementName   string
	ParentStatement string
	ParentKeyColumn string
	FieldName       string
	Plural          bool
}

// Result is everything the executor needs: the statement map, the
// accumulated parameter collection, the root/join metadata correlating
// statement names back to query tree nodes for nested-result assembly, and
// the per-statement parameter range each statement consumed out of the
// shared Params accumulator.
type Result struct {
	Statements  *StatementMap
	Params      *Params
	Roots       []RootInfo
	Joins       []JoinInfo
	ParamRanges map[string][2]int // statement name -> [start, end) into Params.Values()
}

// recordRange snapshots the span of Params entries added between before and
// the current Params length, and stores it against stmtName. The executor's
// sequential (non-batching) path needs this to slice out exactly the "?"
// arguments one positional-placeholder statement consumes, since a
// dialect's bare "?" placeholders carry no index of their own the way
// "$N"/"@pN" ones do.
func recordRange(res *Result, stmtName string, before int) {
	if res.ParamRanges == nil {
		res.ParamRanges = map[string][2]int{}
	}
	res.ParamRanges[stmtName] = [2]int{before, res.Params.Len()}
}

// hop is one link in the "walk back to root" chain used to build a join's
// parent-id projection (spec.md §4.6 step 5): the table this hop reads from,
// its own filter, the column it projects as JoinId for the next hop down,
// and (for every hop but the first) the column on this hop's table that
// correlates to the previous hop's projection.
type hop struct {
	schema, name  string
	f             *filter.Filter
	projectColumn string
	prevToColumn  string
}

// Compile renders every root TableQuery in roots (one GraphQL operation may
// select more than one root field) into a single shared StatementMap/Params,
// so all statements for one request can be batched into one round trip
// where the dialect supports it (executor's concern, not this package's).
func Compile(roots []*qtree.TableQuery, model *catalog.DbModel, d dialect.Dialect) (*Result, error) {
	res := &Result{Statements: NewStatementMap(), Params: NewParams()}
	for _, root := range roots {
		if err := compileRoot(root, model, d, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func compileRoot(tq *qtree.TableQuery, model *catalog.DbModel, d dialect.Dialect, res *Result) error {
	if err := resolveLinks(tq, model); err != nil {
		return err
	}

	stmtName := tq.StatementName()
	cols := projectedColumns(tq)

	before := res.Params.Len()
	base, err := buildBaseStatement(tq, cols, d, res.Params)
	if err != nil {
		return err
	}
	res.Statements.Set(stmtName, base)
	recordRange(res, stmtName, before)

	root := RootInfo{Query: tq, StatementName: stmtName, IncludeMeta: tq.IncludeMeta}
	if tq.IncludeMeta {
		before = res.Params.Len()
		countSQL, err := buildCountStatement(tq, d, res.Params)
		if err != nil {
			return err
		}
		root.CountStatement = stmtName + "_count"
		res.Statements.Set(root.CountStatement, countSQL)
		recordRange(res, root.CountStatement, before)
	}
	res.Roots = append(res.Roots, root)

	ancestors := []hop{{schema: tq.Table.Schema, name: tq.Table.Name, f: tq.Filter}}
	return compileJoinsOf(tq, ancestors, stmtName, model, d, res)
}

// resolveLinks converts tq.Links (implicit navigation fields pending
// resolution, §4.5 classification 4) into Join entries appended to
// tq.Joins, looking up the declared link by name and kind on tq.Table.
// Fails with UnknownLink if the link no longer resolves (defensive: the
// visitor already validated this against the same model).
func resolveLinks(tq *qtree.TableQuery, model *catalog.DbModel) error {
	for _, child := range tq.Links {
		var link *catalog.Link
		if child.Plural {
			link = tq.Table.MultiLinks[child.LinkName]
		} else {
			link = tq.Table.SingleLinks[child.LinkName]
		}
		if link == nil {
			return gqlerr.UnknownLink(child.LinkName)
		}

		var target *catalog.Table
		var fromColumn, toColumn string
		var kind qtree.JoinKind
		if child.Plural {
			target, _ = model.LinkChildTable(link)
			fromColumn, toColumn = link.ParentColumn, link.ChildColumn
			kind = qtree.JoinMulti
		} else {
			target, _ = model.LinkParentTable(link)
			fromColumn, toColumn = link.ChildColumn, link.ParentColumn
			kind = qtree.JoinSingle
		}
		if target == nil {
			return gqlerr.UnknownLink(child.LinkName)
		}

		tq.Joins = append(tq.Joins, &qtree.Join{
			Name: child.LinkName, Alias: child.Alias, Kind: kind,
			FromTable: tq.Table.Name, FromColumn: fromColumn,
			ToTable: target.Name, ToColumn: toColumn,
			Child: child, Dynamic: false,
		})
	}
	tq.Links = nil
	return nil
}

// projectedColumns is the explicit column selection unioned with every
// outgoing join's FromColumn (join keys must be projected so children can
// correlate against them), deduplicated case-insensitively, explicit
// columns kept in request order followed by any join keys not already
// present.
func projectedColumns(tq *qtree.TableQuery) []string {
	seen := make(map[string]bool, len(tq.Columns)+len(tq.Joins))
	var cols []string
	add := func(c string) {
		key := strings.ToLower(c)
		if seen[key] {
			return
		}
		seen[key] = true
		cols = append(cols, c)
	}
	for _, c := range tq.Columns {
		add(c)
	}
	for _, j := range tq.Joins {
		add(j.FromColumn)
	}
	return cols
}

func buildBaseStatement(tq *qtree.TableQuery, cols []string, d dialect.Dialect, params *Params) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(projectionList(cols, "", d))
	b.WriteString(" FROM ")
	b.WriteString(d.TableRef(tq.Table.Schema, tq.Table.Name))

	where, err := renderWhereClause(tq.Filter, d, params)
	if err != nil {
		return "", err
	}
	b.WriteString(where)
	b.WriteString(d.Paginate(sortFragments(tq.Sort, d), tq.Offset, tq.Limit))
	return b.String(), nil
}

func buildCountStatement(tq *qtree.TableQuery, d dialect.Dialect, params *Params) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(d.TableRef(tq.Table.Schema, tq.Table.Name))
	where, err := renderWhereClause(tq.Filter, d, params)
	if err != nil {
		return "", err
	}
	b.WriteString(where)
	return b.String(), nil
}

// compileJoinsOf emits a wrap statement for every join hanging off tq (and
// recurses into each join's child), given the ancestor hop chain leading to
// tq with the final hop's projectColumn still unset (it depends on which
// outgoing join is being rendered, so it is filled in per-join below).
func compileJoinsOf(tq *qtree.TableQuery, ancestors []hop, parentStmtName string, model *catalog.DbModel, d dialect.Dialect, res *Result) error {
	for _, j := range tq.Joins {
		if err := resolveLinks(j.Child, model); err != nil {
			return err
		}

		hops := append(append([]hop{}, ancestors[:len(ancestors)-1]...), hop{
			schema:        ancestors[len(ancestors)-1].schema,
			name:          ancestors[len(ancestors)-1].name,
			f:             ancestors[len(ancestors)-1].f,
			projectColumn: j.FromColumn,
			prevToColumn:  ancestors[len(ancestors)-1].prevToColumn,
		})

		paramsBefore := res.Params.Len()
		projection, err := buildProjection(hops, d, res.Params)
		if err != nil {
			return err
		}

		childTable := j.Child.Table
		childCols := projectedColumns(j.Child)

		var b strings.Builder
		b.WriteString("SELECT a.JoinId AS src_id, ")
		b.WriteString(projectionList(childCols, "b", d))
		b.WriteString(" FROM (")
		b.WriteString(projection)
		b.WriteString(") a INNER JOIN ")
		b.WriteString(d.TableRef(childTable.Schema, childTable.Name))
		b.WriteString(" b ON a.JoinId = b.")
		b.WriteString(d.EscapeIdentifier(j.ToColumn))

		where, err := renderWhereClause(j.Child.Filter, d, res.Params)
		if err != nil {
			return err
		}
		b.WriteString(where)

		if j.Kind == qtree.JoinMulti {
			b.WriteString(d.Paginate(sortFragments(j.Child.Sort, d), j.Child.Offset, j.Child.Limit))
		}

		stmtName := parentStmtName + "->" + joinFieldName(j)
		res.Statements.Set(stmtName, b.String())
		recordRange(res, stmtName, paramsBefore)

		res.Joins = append(res.Joins, JoinInfo{
			Join: j, StatementName: stmtName, ParentStatement: parentStmtName,
			ParentKeyColumn: j.FromColumn, FieldName: joinFieldName(j),
			Plural: j.Kind == qtree.JoinMulti,
		})

		nextAncestors := append(hops, hop{
			schema: childTable.Schema, name: childTable.Name,
			f: j.Child.Filter, prevToColumn: j.ToColumn,
		})
		if err := compileJoinsOf(j.Child, nextAncestors, stmtName, model, d, res); err != nil {
			return err
		}
	}
	return nil
}

// buildProjection renders the parent-id projection for the last hop in
// hops, walking back to the root: the first hop selects DISTINCT its
// project column straight from its table (with its own filter, if any);
// every later hop INNER JOINs the previous hop's projection on
// prevToColumn and carries its own filter forward, pruning the chain
// transitively.
func buildProjection(hops []hop, d dialect.Dialect, params *Params) (string, error) {
	h := hops[len(hops)-1]
	tableRef := d.TableRef(h.schema, h.name)

	if len(hops) == 1 {
		var b strings.Builder
		b.WriteString("SELECT DISTINCT ")
		b.WriteString(d.EscapeIdentifier(h.projectColumn))
		b.WriteString(" AS JoinId FROM ")
		b.WriteString(tableRef)
		where, err := renderWhereClause(h.f, d, params)
		if err != nil {
			return "", err
		}
		b.WriteString(where)
		return b.String(), nil
	}

	inner, err := buildProjection(hops[:len(hops)-1], d, params)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT b.")
	b.WriteString(d.EscapeIdentifier(h.projectColumn))
	b.WriteString(" AS JoinId FROM ")
	b.WriteString(tableRef)
	b.WriteString(" b INNER JOIN (")
	b.WriteString(inner)
	b.WriteString(") a ON a.JoinId = b.")
	b.WriteString(d.EscapeIdentifier(h.prevToColumn))

	where, err := renderWhereClause(h.f, d, params)
	if err != nil {
		return "", err
	}
	b.WriteString(where)
	return b.String(), nil
}

// projectionList renders "[col] [col]" (no alias, no AS, matching the base
// statement style) when tableAlias is empty, or "alias.[col] AS [col]"
// (matching the join wrap statement style) when it is not.
func projectionList(cols []string, tableAlias string, d dialect.Dialect) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		esc := d.EscapeIdentifier(c)
		if tableAlias == "" {
			parts[i] = esc + " " + esc
		} else {
			parts[i] = tableAlias + "." + esc + " AS " + esc
		}
	}
	return strings.Join(parts, ", ")
}

// sortFragments escapes the column portion of each validated "col asc|desc"
// sort entry, leaving the direction keyword as the caller wrote it.
func sortFragments(sort []string, d dialect.Dialect) []string {
	if len(sort) == 0 {
		return nil
	}
	out := make([]string, len(sort))
	for i, s := range sort {
		idx := strings.LastIndexByte(s, ' ')
		if idx < 0 {
			out[i] = d.EscapeIdentifier(s)
			continue
		}
		out[i] = d.EscapeIdentifier(s[:idx]) + s[idx:]
	}
	return out
}

func joinFieldName(j *qtree.Join) string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.Name
}

// Package qtree lowers a parsed, validated GraphQL operation into the
// query tree (TableQuery/Join) that the compiler walks. The tree is
// transient: one is built per request and never shared or mutated after
// the visitor pass and fragment reduction complete.
package qtree

import (
	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/filter"
)

// JoinKind distinguishes a list-valued join from a to-one join.
type JoinKind int

const (
	JoinMulti JoinKind = iota
	JoinSingle
)

// Join is an edge in the query tree: either dynamic (explicit `_join_<T>` /
// `_single_<T>` sentinel field, `on:[a,b]` supplied by the request) or
// resolved (derived by the compiler from a declared Link).
type Join struct {
	Name       string
	Alias      string
	Kind       JoinKind
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
	Child      *TableQuery
	Dynamic    bool
}

// Mutation carries the insert/update/upsert/delete argument a mutation
// operation's root field supplied, recorded by the visitor for a mutation
// document (spec.md §6: mutations reuse the query's own field name,
// distinguished only by which argument is present).
type Mutation struct {
	Op   string // "insert", "update", "upsert", "delete"
	Data map[string]interface{}
}

// TableQuery is the root entity of one selection: a table (or the child
// side of a join) plus its projection, filter, sort/paging, and nested
// joins/links.
type TableQuery struct {
	Table   *catalog.Table
	Alias   string
	Plural  bool // false for a `_single_<T>` field, a single link, or a mutation root
	Columns []string
	Filter  *filter.Filter
	Sort    []string
	Limit   *int
	Offset  int

	Joins []*Join // dynamic joins and, after compiler resolution, resolved joins too
	Links []*TableQuery // pending implicit link children; LinkName set on each, resolved by the compiler

	LinkName    string // set when this TableQuery was reached via a declared link field
	FieldName   string // response key for a root selection: the alias, else the field name as requested
	IncludeMeta bool   // requests the {data, total} paged envelope

	Mutation *Mutation // non-nil when this root field came from a mutation operation

	FragmentSpreads  []string
	ProcessingResult bool // visitor scratch flag: true once inside a paged envelope's `data` field
}

// StatementName is the name the compiler will give this TableQuery's base
// statement: the alias if one was given, else the table's GraphQL name.
func (q *TableQuery) StatementName() string {
	if q.Alias != "" {
		return q.Alias
	}
	return q.Table.GraphQLName
}

// ResponseKey is the key a root selection's result is returned under: the
// requested field name (or alias) when the visitor recorded one, else the
// statement name. A `workshops_paged` selection keeps its `_paged` suffix
// here even though its base statement is named `workshops`.
func (q *TableQuery) ResponseKey() string {
	if q.FieldName != "" {
		return q.FieldName
	}
	return q.StatementName()
}

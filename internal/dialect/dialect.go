// Package dialect adapts SQL rendering to the differences between database
// engines: identifier quoting, pagination clause, parameter prefix, LIKE
// patterning and the filter operator table. Implementations are pure,
// stateless and safe to share as singletons.
package dialect

import "fmt"

// LikeKind selects which LIKE pattern shape to render around a parameter.
type LikeKind int

const (
	Contains LikeKind = iota
	StartsWith
	EndsWith
)

// Op is one of the filter leaf operator tokens from the filter AST.
type Op string

const (
	OpEq         Op = "_eq"
	OpNeq        Op = "_neq"
	OpLt         Op = "_lt"
	OpLte        Op = "_lte"
	OpGt         Op = "_gt"
	OpGte        Op = "_gte"
	OpContains   Op = "_contains"
	OpNContains  Op = "_ncontains"
	OpStartsWith Op = "_starts_with"
	OpEndsWith   Op = "_ends_with"
	OpLike       Op = "_like"
	OpNLike      Op = "_nlike"
	OpIn         Op = "_in"
	OpNIn        Op = "_nin"
	OpBetween    Op = "_between"
	OpNBetween   Op = "_nbetween"
	OpNull       Op = "_null"
	OpNNull      Op = "_nnull"
)

// Dialect is the contract every SQL generator in this module depends on.
// Implementations must be pure: no I/O, no mutable state.
type Dialect interface {
	Name() string

	// EscapeIdentifier quotes a bare identifier using the engine's quote
	// characters ([x], `x`, "x").
	EscapeIdentifier(s string) string

	// TableRef renders a fully qualified table reference; an empty schema
	// yields an unqualified reference.
	TableRef(schema, name string) string

	// Paginate renders the clause appended after FROM/WHERE given an ordered
	// sort list (already rendered as "col asc|desc" fragments), an offset,
	// and a limit. limit == nil means the default of 100; limit != nil and
	// *limit == -1 means unbounded.
	Paginate(sortCols []string, offset int, limit *int) string

	// ParameterPrefix is the character used ahead of a bind variable name
	// ("@", "$", "?", ":").
	ParameterPrefix() string

	// BindVar renders the i'th (1-based) bind variable reference for this
	// dialect given its name (dialects that use positional placeholders,
	// like MySQL/SQLite's "?", ignore name).
	BindVar(name string, i int) string

	// LastInsertedIdentity is the SQL expression that returns the last
	// auto-generated key on this connection.
	LastInsertedIdentity() string

	// LikePattern embeds a parameter reference into a LIKE pattern
	// expression for the given LikeKind, using the engine's string
	// concatenation syntax.
	LikePattern(paramRef string, kind LikeKind) string

	// MapOperator renders the SQL comparison operator for a filter op
	// token. Operators shared across all dialects (=, <>, <, <=, >, >=)
	// share one implementation; dialects only need to override where the
	// syntax actually diverges (none do today, kept per-dialect for
	// symmetry with the rest of the interface).
	MapOperator(op Op) (string, error)

	// UpsertClause renders the engine-native upsert statement shape for a
	// table with the given primary key column and full column list. Value
	// placeholders are rendered as bare "?" tokens in column order; the
	// caller substitutes each with BindVar before sending the statement to
	// the driver.
	UpsertClause(table, pkCol string, cols []string) string

	// StatementSeparator joins multiple statements into one multi-result-set
	// batch for drivers that support it (empty string if the engine must
	// execute one statement at a time; see SupportsBatching).
	StatementSeparator() string

	// SupportsBatching reports whether concatenated statements executed in
	// one round trip yield one result set per statement, in order.
	SupportsBatching() bool
}

// New returns the Dialect implementation for the named engine. dbType is one
// of "postgres", "mysql", "sqlserver", "sqlite".
func New(dbType string) (Dialect, error) {
	switch dbType {
	case "postgres", "postgresql":
		return Postgres{}, nil
	case "mysql", "mariadb":
		return MySQL{}, nil
	case "sqlserver", "mssql":
		return SQLServer{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("dialect: unsupported database type %q", dbType)
	}
}

// mapOperatorCommon renders the portion of the operator table that is
// identical across every dialect. Dialect-specific LIKE-family handling
// happens in each dialect's MapOperator.
func mapOperatorCommon(op Op) (string, bool) {
	switch op {
	case OpEq:
		return "=", true
	case OpNeq:
		return "<>", true
	case OpLt:
		return "<", true
	case OpLte:
		return "<=", true
	case OpGt:
		return ">", true
	case OpGte:
		return ">=", true
	case OpIn:
		return "IN", true
	case OpNIn:
		return "NOT IN", true
	case OpBetween:
		return "BETWEEN", true
	case OpNBetween:
		return "NOT BETWEEN", true
	case OpNull:
		return "IS NULL", true
	case OpNNull:
		return "IS NOT NULL", true
	default:
		return "", false
	}
}

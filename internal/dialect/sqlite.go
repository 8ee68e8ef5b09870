package dialect

import (
	"fmt"
	"strings"
)

// SQLite is the SQLite dialect: double-quoted identifiers, "?" positional
// parameters, LIMIT/OFFSET pagination, INSERT ... ON CONFLICT upsert. Also
// the reference engine for the executor's sequential (non-batched)
// execution path, since SQLite cannot multiplex result sets over one
// connection handle.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) EscapeIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (d SQLite) TableRef(schema, name string) string {
	// SQLite has no schema concept beyond ATTACH-ed databases; a non-empty
	// schema is treated as an attached database name.
	if schema == "" {
		return d.EscapeIdentifier(name)
	}
	return d.EscapeIdentifier(schema) + "." + d.EscapeIdentifier(name)
}

func (SQLite) Paginate(sortCols []string, offset int, limit *int) string {
	var b strings.Builder
	if len(sortCols) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(sortCols, ", "))
	}
	if limit != nil && *limit == -1 {
		fmt.Fprintf(&b, " LIMIT -1 OFFSET %d", offset)
		return b.String()
	}
	n := 100
	if limit != nil {
		n = *limit
	}
	fmt.Fprintf(&b, " LIMIT %d OFFSET %d", n, offset)
	return b.String()
}

func (SQLite) ParameterPrefix() string { return "?" }

func (SQLite) BindVar(_ string, _ int) string { return "?" }

func (SQLite) LastInsertedIdentity() string { return "last_insert_rowid()" }

func (SQLite) LikePattern(paramRef string, kind LikeKind) string {
	switch kind {
	case StartsWith:
		return paramRef + " || '%'"
	case EndsWith:
		return "'%' || " + paramRef
	default:
		return "'%' || " + paramRef + " || '%'"
	}
}

func (SQLite) MapOperator(op Op) (string, error) {
	if s, ok := mapOperatorCommon(op); ok {
		return s, nil
	}
	switch op {
	case OpContains, OpStartsWith, OpEndsWith, OpLike:
		return "LIKE", nil
	case OpNContains, OpNLike:
		return "NOT LIKE", nil
	default:
		return "", fmt.Errorf("dialect: sqlite has no mapping for operator %q", op)
	}
}

func (d SQLite) UpsertClause(table, pkCol string, cols []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (", d.TableRef("", table))
	b.WriteString(joinQuoted(d, cols))
	b.WriteString(") VALUES (")
	b.WriteString(placeholders(len(cols)))
	fmt.Fprintf(&b, ") ON CONFLICT(%s) DO UPDATE SET ", d.EscapeIdentifier(pkCol))
	var parts []string
	for _, c := range cols {
		if c == pkCol {
			continue
		}
		q := d.EscapeIdentifier(c)
		parts = append(parts, fmt.Sprintf("%s = excluded.%s", q, q))
	}
	b.WriteString(strings.Join(parts, ", "))
	return b.String()
}

func (SQLite) StatementSeparator() string { return ";\n" }

// SupportsBatching is false: SQLite executes one statement per Exec/Query
// call on a single connection; the executor falls back to its sequential
// path for this dialect.
func (SQLite) SupportsBatching() bool { return false }

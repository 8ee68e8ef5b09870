package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Postgres is the PostgreSQL dialect: double-quoted identifiers, $N
// positional parameters, LIMIT/OFFSET pagination, native ON CONFLICT upsert.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) EscapeIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (d Postgres) TableRef(schema, name string) string {
	if schema == "" {
		return d.EscapeIdentifier(name)
	}
	return d.EscapeIdentifier(schema) + "." + d.EscapeIdentifier(name)
}

func (Postgres) Paginate(sortCols []string, offset int, limit *int) string {
	var b strings.Builder
	if len(sortCols) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(sortCols, ", "))
	}
	n := 100
	unbounded := false
	if limit != nil {
		if *limit == -1 {
			unbounded = true
		} else {
			n = *limit
		}
	}
	if !unbounded {
		fmt.Fprintf(&b, " LIMIT %d", n)
	}
	fmt.Fprintf(&b, " OFFSET %d", offset)
	return b.String()
}

func (Postgres) ParameterPrefix() string { return "$" }

func (Postgres) BindVar(_ string, i int) string { return "$" + strconv.Itoa(i) }

// LastInsertedIdentity uses LASTVAL(): the most recent sequence value
// assigned on this session, which covers serial and identity columns.
func (Postgres) LastInsertedIdentity() string { return "LASTVAL()" }

func (Postgres) LikePattern(paramRef string, kind LikeKind) string {
	switch kind {
	case StartsWith:
		return paramRef + " || '%'"
	case EndsWith:
		return "'%' || " + paramRef
	default:
		return "'%' || " + paramRef + " || '%'"
	}
}

func (Postgres) MapOperator(op Op) (string, error) {
	if s, ok := mapOperatorCommon(op); ok {
		return s, nil
	}
	switch op {
	case OpContains, OpStartsWith, OpEndsWith, OpLike:
		return "LIKE", nil
	case OpNContains, OpNLike:
		return "NOT LIKE", nil
	default:
		return "", fmt.Errorf("dialect: postgres has no mapping for operator %q", op)
	}
}

func (d Postgres) UpsertClause(table, pkCol string, cols []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (", d.TableRef("", table))
	b.WriteString(joinQuoted(d, cols))
	b.WriteString(") VALUES (")
	b.WriteString(placeholders(len(cols)))
	fmt.Fprintf(&b, ") ON CONFLICT (%s) DO UPDATE SET ", d.EscapeIdentifier(pkCol))
	b.WriteString(setClause(d, cols, pkCol))
	return b.String()
}

func (Postgres) StatementSeparator() string { return ";\n" }

func (Postgres) SupportsBatching() bool { return true }

func joinQuoted(d Dialect, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.EscapeIdentifier(c)
	}
	return strings.Join(out, ", ")
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

func setClause(d Dialect, cols []string, pkCol string) string {
	var parts []string
	for _, c := range cols {
		if c == pkCol {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", d.EscapeIdentifier(c), d.EscapeIdentifier(c)))
	}
	return strings.Join(parts, ", ")
}

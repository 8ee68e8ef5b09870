package dialect

import (
	"fmt"
	"strings"
)

// MySQL is the MySQL/MariaDB dialect: backtick identifiers, "?" positional
// parameters, LIMIT/OFFSET pagination, INSERT ... ON DUPLICATE KEY UPDATE
// upsert.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) EscapeIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func (d MySQL) TableRef(schema, name string) string {
	if schema == "" {
		return d.EscapeIdentifier(name)
	}
	return d.EscapeIdentifier(schema) + "." + d.EscapeIdentifier(name)
}

func (MySQL) Paginate(sortCols []string, offset int, limit *int) string {
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
	if unbounded {
		// MySQL has no "no limit" keyword; a very large limit is the
		// documented idiom for LIMIT-less OFFSET.
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", 1<<62, offset)
	} else {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", n, offset)
	}
	return b.String()
}

func (MySQL) ParameterPrefix() string { return "?" }

func (MySQL) BindVar(_ string, _ int) string { return "?" }

func (MySQL) LastInsertedIdentity() string { return "LAST_INSERT_ID()" }

func (MySQL) LikePattern(paramRef string, kind LikeKind) string {
	switch kind {
	case StartsWith:
		return "CONCAT(" + paramRef + ", '%')"
	case EndsWith:
		return "CONCAT('%', " + paramRef + ")"
	default:
		return "CONCAT('%', " + paramRef + ", '%')"
	}
}

func (MySQL) MapOperator(op Op) (string, error) {
	if s, ok := mapOperatorCommon(op); ok {
		return s, nil
	}
	switch op {
	case OpContains, OpStartsWith, OpEndsWith, OpLike:
		return "LIKE", nil
	case OpNContains, OpNLike:
		return "NOT LIKE", nil
	default:
		return "", fmt.Errorf("dialect: mysql has no mapping for operator %q", op)
	}
}

func (d MySQL) UpsertClause(table, pkCol string, cols []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (", d.TableRef("", table))
	b.WriteString(joinQuoted(d, cols))
	b.WriteString(") VALUES (")
	b.WriteString(placeholders(len(cols)))
	b.WriteString(") ON DUPLICATE KEY UPDATE ")
	var parts []string
	for _, c := range cols {
		if c == pkCol {
			continue
		}
		q := d.EscapeIdentifier(c)
		parts = append(parts, fmt.Sprintf("%s = VALUES(%s)", q, q))
	}
	b.WriteString(strings.Join(parts, ", "))
	return b.String()
}

func (MySQL) StatementSeparator() string { return ";\n" }

// SupportsBatching is false: the standard go-sql-driver/mysql connection
// does not multiplex result sets from a single Query call the way
// pgx/mssql drivers do (it requires the multiStatements DSN option plus a
// different API shape), so MySQL uses the executor's sequential path.
func (MySQL) SupportsBatching() bool { return false }

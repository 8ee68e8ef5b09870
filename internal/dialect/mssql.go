package dialect

import (
	"fmt"
	"strings"
)

// SQLServer is the Microsoft SQL Server dialect: bracket identifiers, "@p1"
// named parameters, OFFSET/FETCH pagination (requiring an ORDER BY), MERGE
// upsert.
type SQLServer struct{}

func (SQLServer) Name() string { return "sqlserver" }

func (SQLServer) EscapeIdentifier(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

func (d SQLServer) TableRef(schema, name string) string {
	if schema == "" {
		return d.EscapeIdentifier(name)
	}
	return d.EscapeIdentifier(schema) + "." + d.EscapeIdentifier(name)
}

// Paginate always emits an ORDER BY: SQL Server's OFFSET/FETCH clause
// requires one, so an empty sort list falls back to ORDER BY (SELECT NULL).
func (SQLServer) Paginate(sortCols []string, offset int, limit *int) string {
	var b strings.Builder
	if len(sortCols) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(sortCols, ", "))
	} else {
		b.WriteString(" ORDER BY (SELECT NULL)")
	}
	fmt.Fprintf(&b, " OFFSET %d ROWS", offset)
	if limit != nil && *limit == -1 {
		return b.String()
	}
	n := 100
	if limit != nil {
		n = *limit
	}
	fmt.Fprintf(&b, " FETCH NEXT %d ROWS ONLY", n)
	return b.String()
}

func (SQLServer) ParameterPrefix() string { return "@" }

// BindVar always renders from the 1-based index, ignoring name: Params.Add
// returns a 0-based name ("p0", "p1", ...) alongside the 1-based index, and
// SQL Server's "@p1"-style parameters number from 1, so using name directly
// would render "@p0" for the first parameter instead of "@p1".
func (SQLServer) BindVar(_ string, i int) string {
	return fmt.Sprintf("@p%d", i)
}

func (SQLServer) LastInsertedIdentity() string { return "SCOPE_IDENTITY()" }

func (SQLServer) LikePattern(paramRef string, kind LikeKind) string {
	switch kind {
	case StartsWith:
		return paramRef + " + '%'"
	case EndsWith:
		return "'%' + " + paramRef
	default:
		return "'%' + " + paramRef + " + '%'"
	}
}

func (SQLServer) MapOperator(op Op) (string, error) {
	if s, ok := mapOperatorCommon(op); ok {
		return s, nil
	}
	switch op {
	case OpContains, OpStartsWith, OpEndsWith, OpLike:
		return "LIKE", nil
	case OpNContains, OpNLike:
		return "NOT LIKE", nil
	default:
		return "", fmt.Errorf("dialect: sqlserver has no mapping for operator %q", op)
	}
}

func (d SQLServer) UpsertClause(table, pkCol string, cols []string) string {
	var b strings.Builder
	src := "src"
	tgt := "t"
	ref := d.TableRef("", table)
	fmt.Fprintf(&b, "MERGE %s AS %s USING (VALUES (%s)) AS %s (%s) ON %s.%s = %s.%s",
		ref, tgt, placeholders(len(cols)), src, joinQuoted(d, cols),
		tgt, d.EscapeIdentifier(pkCol), src, d.EscapeIdentifier(pkCol))

	var updates []string
	for _, c := range cols {
		if c == pkCol {
			continue
		}
		q := d.EscapeIdentifier(c)
		updates = append(updates, fmt.Sprintf("%s.%s = %s.%s", tgt, q, src, q))
	}
	fmt.Fprintf(&b, " WHEN MATCHED THEN UPDATE SET %s", strings.Join(updates, ", "))

	srcCols := make([]string, len(cols))
	for i, c := range cols {
		srcCols[i] = src + "." + d.EscapeIdentifier(c)
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);",
		joinQuoted(d, cols), strings.Join(srcCols, ", "))
	return b.String()
}

func (SQLServer) StatementSeparator() string { return ";\n" }

func (SQLServer) SupportsBatching() bool { return true }

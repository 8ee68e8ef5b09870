package compiler

import (
	"fmt"
	"strings"

	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/filter"
	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// renderWhereClause renders a full " WHERE (...)" suffix for a non-nil
// filter tree, or "" when f is nil.
func renderWhereClause(f *filter.Filter, d dialect.Dialect, params *Params) (string, error) {
	if f == nil {
		return "", nil
	}
	body, err := renderFilter(f, d, params)
	if err != nil {
		return "", err
	}
	return " WHERE (" + body + ")", nil
}

// renderFilter renders a filter node without the outer WHERE wrapper. AND/OR
// nodes parenthesize each child individually; the caller adds one more pair
// of parens around the whole expression when building a WHERE clause.
func renderFilter(f *filter.Filter, d dialect.Dialect, params *Params) (string, error) {
	switch f.Kind {
	case filter.Leaf:
		return renderLeaf(f, d, params)
	case filter.And:
		return renderConnective(f.Children, "AND", "1=1", d, params)
	case filter.Or:
		return renderConnective(f.Children, "OR", "1=0", d, params)
	default:
		return "", gqlerr.FilterType("unknown filter node kind %v", f.Kind)
	}
}

func renderConnective(children []*filter.Filter, sep, emptyValue string, d dialect.Dialect, params *Params) (string, error) {
	if len(children) == 0 {
		return emptyValue, nil
	}
	parts := make([]string, len(children))
	for i, c := range children {
		body, err := renderFilter(c, d, params)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + body + ")"
	}
	return strings.Join(parts, " "+sep+" "), nil
}

func renderLeaf(f *filter.Filter, d dialect.Dialect, params *Params) (string, error) {
	col := d.EscapeIdentifier(f.Column)
	op := dialect.Op(f.Op)

	switch op {
	case dialect.OpEq, dialect.OpNeq, dialect.OpLt, dialect.OpLte, dialect.OpGt, dialect.OpGte:
		opStr, err := d.MapOperator(op)
		if err != nil {
			return "", gqlerr.FilterType(err.Error())
		}
		name, idx := params.Add(f.Value)
		return fmt.Sprintf("%s %s %s", col, opStr, d.BindVar(name, idx)), nil

	case dialect.OpContains, dialect.OpStartsWith, dialect.OpEndsWith:
		name, idx := params.Add(escapeLikeValue(f.Value))
		pattern := d.LikePattern(d.BindVar(name, idx), likeKindOf(op))
		return fmt.Sprintf("%s LIKE %s ESCAPE '\\'", col, pattern), nil

	case dialect.OpNContains:
		name, idx := params.Add(escapeLikeValue(f.Value))
		pattern := d.LikePattern(d.BindVar(name, idx), dialect.Contains)
		return fmt.Sprintf("%s NOT LIKE %s ESCAPE '\\'", col, pattern), nil

	case dialect.OpLike:
		name, idx := params.Add(f.Value)
		return fmt.Sprintf("%s LIKE %s", col, d.BindVar(name, idx)), nil

	case dialect.OpNLike:
		name, idx := params.Add(f.Value)
		return fmt.Sprintf("%s NOT LIKE %s", col, d.BindVar(name, idx)), nil

	case dialect.OpIn, dialect.OpNIn:
		list, _ := f.Value.([]interface{})
		if len(list) == 0 {
			if op == dialect.OpIn {
				return "1=0", nil
			}
			return "1=1", nil
		}
		refs := make([]string, len(list))
		for i, v := range list {
			name, idx := params.Add(v)
			refs[i] = d.BindVar(name, idx)
		}
		opStr, err := d.MapOperator(op)
		if err != nil {
			return "", gqlerr.FilterType(err.Error())
		}
		return fmt.Sprintf("%s %s (%s)", col, opStr, strings.Join(refs, ", ")), nil

	case dialect.OpBetween, dialect.OpNBetween:
		list, _ := f.Value.([]interface{})
		if len(list) != 2 {
			return "", gqlerr.FilterType("%s requires exactly two operands", op)
		}
		loName, loIdx := params.Add(list[0])
		hiName, hiIdx := params.Add(list[1])
		opStr, err := d.MapOperator(op)
		if err != nil {
			return "", gqlerr.FilterType(err.Error())
		}
		return fmt.Sprintf("%s %s %s AND %s", col, opStr, d.BindVar(loName, loIdx), d.BindVar(hiName, hiIdx)), nil

	case dialect.OpNull, dialect.OpNNull:
		opStr, err := d.MapOperator(op)
		if err != nil {
			return "", gqlerr.FilterType(err.Error())
		}
		return fmt.Sprintf("%s %s", col, opStr), nil

	default:
		return "", gqlerr.FilterType("unsupported filter operator %q", f.Op)
	}
}

// escapeLikeValue escapes the LIKE wildcard characters (% and _) and the
// escape character itself in v, so _contains/_starts_with/_ends_with/
// _ncontains match v as a literal substring rather than a pattern. _like and
// _nlike bypass this since their whole value is the caller-supplied pattern.
// Non-string values pass through unchanged since they can't carry wildcards.
func escapeLikeValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

func likeKindOf(op dialect.Op) dialect.LikeKind {
	switch op {
	case dialect.OpStartsWith:
		return dialect.StartsWith
	case dialect.OpEndsWith:
		return dialect.EndsWith
	default:
		return dialect.Contains
	}
}

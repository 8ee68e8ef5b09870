package qtree

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/graphql-go/graphql/language/ast"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/filter"
	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// visitContext carries everything the traversal needs as an explicit
// parameter rather than mutable fields on a visitor instance, so the same
// model/fragment table can be walked re-entrantly by concurrent requests.
type visitContext struct {
	vars       map[string]interface{}
	model      *catalog.DbModel
	fragments  map[string]*ast.FragmentDefinition
	isMutation bool
}

// mutationArgNames lists the argument names a mutation root field may
// carry; exactly one must be present.
var mutationArgNames = []string{"insert", "update", "upsert", "delete"}

var sortPattern = regexp.MustCompile(`^[a-zA-Z_][\w]* (asc|desc)$`)

// Visit lowers a parsed GraphQL document into one TableQuery per root
// field of the operation's selection set.
func Visit(doc *ast.Document, vars map[string]interface{}, model *catalog.DbModel) ([]*TableQuery, error) {
	ctx := &visitContext{vars: vars, model: model, fragments: map[string]*ast.FragmentDefinition{}}

	var op *ast.OperationDefinition
	for _, d := range doc.Definitions {
		switch def := d.(type) {
		case *ast.OperationDefinition:
			if op == nil {
				op = def
			}
		case *ast.FragmentDefinition:
			ctx.fragments[def.Name.Value] = def
		}
	}
	if op == nil {
		return nil, gqlerr.Parse("no operation definition in document")
	}
	if op.SelectionSet == nil {
		return nil, gqlerr.Parse("operation has no selection set")
	}
	ctx.isMutation = op.Operation == "mutation"

	var roots []*TableQuery
	for _, sel := range op.SelectionSet.Selections {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		if field.Name.Value == "_dbSchema" {
			continue // answered by the engine from the model snapshot, never compiled
		}
		tq, err := ctx.visitRootField(field)
		if err != nil {
			return nil, err
		}
		if tq != nil {
			roots = append(roots, tq)
		}
	}

	for _, tq := range roots {
		if err := ctx.reduceFragments(tq); err != nil {
			return nil, err
		}
	}
	return roots, nil
}

func (ctx *visitContext) visitRootField(field *ast.Field) (*TableQuery, error) {
	name := field.Name.Value
	paged := strings.HasSuffix(name, "_paged")
	baseName := strings.TrimSuffix(name, "_paged")

	table, ok := ctx.model.TableByGraphQLName(baseName)
	if !ok {
		if !paged && !ctx.isMutation {
			if single, ok := ctx.model.TableByNormalizedName(baseName); ok {
				return ctx.visitSingularRootField(single, field)
			}
		}
		return nil, gqlerr.Validation("unknown root field %q", name)
	}

	tq := &TableQuery{Table: table, Alias: aliasOf(field), FieldName: responseKeyOf(field), Plural: !ctx.isMutation, IncludeMeta: paged}
	if ctx.isMutation {
		m, err := ctx.mutationArgument(field.Arguments, name)
		if err != nil {
			return nil, err
		}
		tq.Mutation = m
	}
	if err := ctx.applyArguments(tq, field.Arguments); err != nil {
		return nil, err
	}
	if err := ctx.visitSelectionSet(tq, field.SelectionSet); err != nil {
		return nil, err
	}
	return tq, nil
}

// mutationArgument finds the single insert/update/upsert/delete argument on
// a mutation root field and returns its object literal as a Mutation.
func (ctx *visitContext) mutationArgument(args []*ast.Argument, fieldName string) (*Mutation, error) {
	var found *Mutation
	for _, arg := range args {
		for _, op := range mutationArgNames {
			if arg.Name.Value != op {
				continue
			}
			if found != nil {
				return nil, gqlerr.Validation("mutation field %q must supply exactly one of insert/update/upsert/delete", fieldName)
			}
			v, err := ctx.valueToNative(arg.Value)
			if err != nil {
				return nil, err
			}
			obj, ok := v.(map[string]interface{})
			if !ok {
				return nil, gqlerr.Validation("%s argument must be an object", op)
			}
			found = &Mutation{Op: op, Data: obj}
		}
	}
	if found == nil {
		return nil, gqlerr.Validation("mutation field %q requires one of insert/update/upsert/delete", fieldName)
	}
	return found, nil
}

func (ctx *visitContext) visitSelectionSet(tq *TableQuery, set *ast.SelectionSet) error {
	if set == nil {
		return nil
	}
	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			if err := ctx.visitChildField(tq, s); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			tq.FragmentSpreads = append(tq.FragmentSpreads, s.Name.Value)
		case *ast.InlineFragment:
			if err := ctx.visitSelectionSet(tq, s.SelectionSet); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ctx *visitContext) visitChildField(tq *TableQuery, field *ast.Field) error {
	name := field.Name.Value

	// Classification 2: the `data` wrapper on a paged envelope flips
	// processingResult so subsequent fields populate the inner object.
	if tq.IncludeMeta && !tq.ProcessingResult {
		switch name {
		case "total":
			return nil
		case "data":
			tq.ProcessingResult = true
			return ctx.visitSelectionSet(tq, field.SelectionSet)
		}
	}

	switch {
	case strings.HasPrefix(name, "_join_"):
		return ctx.visitJoinSentinel(tq, field, JoinMulti, strings.TrimPrefix(name, "_join_"))
	case strings.HasPrefix(name, "_single_"):
		return ctx.visitJoinSentinel(tq, field, JoinSingle, strings.TrimPrefix(name, "_single_"))
	}

	if _, ok := tq.Table.SingleLinks[name]; ok {
		return ctx.visitLinkField(tq, field, name, false)
	}
	if _, ok := tq.Table.MultiLinks[name]; ok {
		return ctx.visitLinkField(tq, field, name, true)
	}

	tq.Columns = append(tq.Columns, name)
	return nil
}

func (ctx *visitContext) visitJoinSentinel(tq *TableQuery, field *ast.Field, kind JoinKind, targetName string) error {
	target, ok := ctx.model.TableByGraphQLName(targetName)
	if !ok {
		return gqlerr.UnknownLink(targetName)
	}

	child := &TableQuery{Table: target, Alias: aliasOf(field), Plural: kind == JoinMulti}
	j := &Join{
		Name: targetName, Alias: child.Alias, Kind: kind,
		FromTable: tq.Table.Name, ToTable: target.Name, Child: child, Dynamic: true,
	}

	for _, arg := range field.Arguments {
		if arg.Name.Value == "on" {
			cols, err := ctx.onArgument(arg)
			if err != nil {
				return err
			}
			j.FromColumn, j.ToColumn = cols[0], cols[1]
		}
	}
	if j.FromColumn == "" || j.ToColumn == "" {
		return gqlerr.Validation("_join_/_single_ field %q requires an on:[fromCol,toCol] argument", field.Name.Value)
	}

	if err := ctx.applyArguments(child, field.Arguments); err != nil {
		return err
	}
	if err := ctx.visitSelectionSet(child, field.SelectionSet); err != nil {
		return err
	}
	tq.Joins = append(tq.Joins, j)
	return nil
}

// visitLinkField records a pending implicit-link child. The visitor looks
// up only the link's target table (failing with UnknownLink when it is
// absent); the compiler turns the link into join columns (classification 4).
func (ctx *visitContext) visitLinkField(tq *TableQuery, field *ast.Field, linkName string, plural bool) error {
	var target *catalog.Table
	if plural {
		link := tq.Table.MultiLinks[linkName]
		target, _ = ctx.model.LinkChildTable(link)
	} else {
		link := tq.Table.SingleLinks[linkName]
		target, _ = ctx.model.LinkParentTable(link)
	}
	if target == nil {
		return gqlerr.UnknownLink(linkName)
	}

	child := &TableQuery{Table: target, Alias: aliasOf(field), Plural: plural, LinkName: linkName}
	if err := ctx.applyArguments(child, field.Arguments); err != nil {
		return err
	}
	if err := ctx.visitSelectionSet(child, field.SelectionSet); err != nil {
		return err
	}
	tq.Links = append(tq.Links, child)
	return nil
}

// visitSingularRootField handles the by-primary-key singular field the
// schema exposes under a table's normalized name (`workshop(id: 1)`):
// every argument naming a column becomes an equality predicate, and the
// result is a single object rather than a list.
func (ctx *visitContext) visitSingularRootField(table *catalog.Table, field *ast.Field) (*TableQuery, error) {
	tq := &TableQuery{Table: table, Alias: aliasOf(field), FieldName: responseKeyOf(field)}
	if tq.Alias == "" {
		// Without an alias the statement would otherwise be named after the
		// table's plural GraphQL name, colliding with a sibling collection
		// selection of the same table.
		tq.Alias = field.Name.Value
	}

	for _, arg := range field.Arguments {
		c, ok := table.GetColumnByGraphQLName(arg.Name.Value)
		if !ok {
			continue
		}
		v, err := ctx.valueToNative(arg.Value)
		if err != nil {
			return nil, err
		}
		tq.Filter = filter.AndWith(tq.Filter, filter.NewLeaf(c.Name, dialect.OpEq, v))
	}
	if err := ctx.applyArguments(tq, field.Arguments); err != nil {
		return nil, err
	}
	if err := ctx.visitSelectionSet(tq, field.SelectionSet); err != nil {
		return nil, err
	}
	return tq, nil
}

func aliasOf(field *ast.Field) string {
	if field.Alias != nil {
		return field.Alias.Value
	}
	return ""
}

// responseKeyOf is the key the field's result must be returned under: the
// alias when one was written, else the field name itself.
func responseKeyOf(field *ast.Field) string {
	if field.Alias != nil {
		return field.Alias.Value
	}
	return field.Name.Value
}

// applyArguments routes each argument through the scoped setter implied by
// its name: filter, sort, limit, offset. Unknown names are ignored
// silently to preserve forward compatibility.
func (ctx *visitContext) applyArguments(tq *TableQuery, args []*ast.Argument) error {
	for _, arg := range args {
		switch arg.Name.Value {
		case "filter":
			v, err := ctx.valueToNative(arg.Value)
			if err != nil {
				return err
			}
			obj, ok := v.(map[string]interface{})
			if !ok {
				return gqlerr.Validation("filter argument must be an object")
			}
			f, err := filter.Parse(obj)
			if err != nil {
				return err
			}
			tq.Filter = f
		case "sort":
			v, err := ctx.valueToNative(arg.Value)
			if err != nil {
				return err
			}
			list, ok := v.([]interface{})
			if !ok {
				return gqlerr.Validation("sort argument must be a list of strings")
			}
			for _, item := range list {
				s, ok := item.(string)
				if !ok || !sortPattern.MatchString(s) {
					return gqlerr.Validation("invalid sort entry %v", item)
				}
				tq.Sort = append(tq.Sort, s)
			}
		case "limit":
			v, err := ctx.valueToNative(arg.Value)
			if err != nil {
				return err
			}
			n, err := toInt(v)
			if err != nil {
				return gqlerr.Validation("limit must be an integer: %v", err)
			}
			if n < -1 {
				return gqlerr.Validation("limit must be -1 (unbounded) or non-negative")
			}
			tq.Limit = &n
		case "offset":
			v, err := ctx.valueToNative(arg.Value)
			if err != nil {
				return err
			}
			n, err := toInt(v)
			if err != nil {
				return gqlerr.Validation("offset must be an integer: %v", err)
			}
			if n < 0 {
				return gqlerr.Validation("offset must not be negative")
			}
			tq.Offset = n
		case "on":
			// consumed directly by visitJoinSentinel
		default:
			// forward-compatible: unknown argument names are ignored
		}
	}
	return nil
}

func (ctx *visitContext) onArgument(arg *ast.Argument) ([2]string, error) {
	var out [2]string
	v, err := ctx.valueToNative(arg.Value)
	if err != nil {
		return out, err
	}
	list, ok := v.([]interface{})
	if !ok || len(list) != 2 {
		return out, gqlerr.Validation("on argument requires exactly two column names")
	}
	a, aok := list[0].(string)
	b, bok := list[1].(string)
	if !aok || !bok {
		return out, gqlerr.Validation("on argument entries must be strings")
	}
	return [2]string{a, b}, nil
}

// valueToNative maps a GraphQL value literal onto its native Go
// representation: scalars map directly, lists recurse, object literals
// build key/value maps, and variables dereference the request's variable
// map (failing with MissingVariable if absent).
func (ctx *visitContext) valueToNative(v ast.Value) (interface{}, error) {
	switch val := v.(type) {
	case *ast.StringValue:
		return val.Value, nil
	case *ast.IntValue:
		n, err := strconv.ParseInt(val.Value, 10, 64)
		if err != nil {
			return nil, gqlerr.Validation("invalid integer literal %q", val.Value)
		}
		return n, nil
	case *ast.FloatValue:
		f, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return nil, gqlerr.Validation("invalid float literal %q", val.Value)
		}
		return f, nil
	case *ast.BooleanValue:
		return val.Value, nil
	case *ast.EnumValue:
		return val.Value, nil
	case *ast.ListValue:
		out := make([]interface{}, len(val.Values))
		for i, item := range val.Values {
			v, err := ctx.valueToNative(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *ast.ObjectValue:
		out := make(map[string]interface{}, len(val.Fields))
		for _, f := range val.Fields {
			v, err := ctx.valueToNative(f.Value)
			if err != nil {
				return nil, err
			}
			out[f.Name.Value] = v
		}
		return out, nil
	case *ast.Variable:
		name := val.Name.Value
		v, ok := ctx.vars[name]
		if !ok {
			return nil, gqlerr.MissingVariable(name)
		}
		return v, nil
	default:
		return nil, gqlerr.Validation("unsupported value literal")
	}
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, gqlerr.FilterType("expected integer, got %T", v)
	}
}

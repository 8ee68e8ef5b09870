package gqlschema

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/brightloom/sqlgraph/internal/dialect"
)

// comparisonInputType returns the FilterType<Kind>Input object for one
// scalar kind: one optional field per operator token a filter leaf may
// carry, typed to the operand shape internal/filter.Parse validates
// (lists for _in/_nin/_between/_nbetween, booleans for _null/_nnull,
// string patterns only on string-shaped scalars). Cached per kind since
// graphql-go requires type names to be unique within a schema.
func (b *Builder) comparisonInputType(scalar *graphql.Scalar) *graphql.InputObject {
	name := "FilterType" + scalar.Name() + "Input"
	if t, ok := b.comparisonTypes[name]; ok {
		return t
	}

	fields := graphql.InputObjectConfigFieldMap{}
	add := func(op dialect.Op, t graphql.Input) {
		fields[string(op)] = &graphql.InputObjectFieldConfig{Type: t}
	}

	add(dialect.OpEq, scalar)
	add(dialect.OpNeq, scalar)
	add(dialect.OpLt, scalar)
	add(dialect.OpLte, scalar)
	add(dialect.OpGt, scalar)
	add(dialect.OpGte, scalar)
	add(dialect.OpIn, graphql.NewList(scalar))
	add(dialect.OpNIn, graphql.NewList(scalar))
	add(dialect.OpBetween, graphql.NewList(scalar))
	add(dialect.OpNBetween, graphql.NewList(scalar))
	add(dialect.OpNull, graphql.Boolean)
	add(dialect.OpNNull, graphql.Boolean)

	if isStringKind(scalar) {
		add(dialect.OpContains, graphql.String)
		add(dialect.OpNContains, graphql.String)
		add(dialect.OpStartsWith, graphql.String)
		add(dialect.OpEndsWith, graphql.String)
		add(dialect.OpLike, graphql.String)
		add(dialect.OpNLike, graphql.String)
	}

	t := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        name,
		Description: fmt.Sprintf("Comparison operators for %s values", scalar.Name()),
		Fields:      fields,
	})
	b.comparisonTypes[name] = t
	return t
}

func isStringKind(scalar *graphql.Scalar) bool {
	return scalar == graphql.String || scalar == UUIDScalar || scalar == DateTimeScalar
}

// filterType builds Filter<Table>: one field per column holding that
// column's FilterType<Kind>Input, plus recursive _and/_or lists of this
// same type — exactly the object-literal shape internal/filter.Parse
// consumes, so a filter argument that validates against this type always
// parses. The field map is a thunk so _and/_or can reference the type
// being built (the same lazy-fields approach wayli-app-fluxbase's
// generateFilterType takes to its input-type self-reference problem).
func (b *Builder) filterType(t *catalog.Table) *graphql.InputObject {
	typeName := t.GraphQLName + "Filter"
	var ft *graphql.InputObject
	ft = graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        typeName,
		Description: fmt.Sprintf("Filter predicate for %s", t.Name),
		Fields: (graphql.InputObjectConfigFieldMapThunk)(func() graphql.InputObjectConfigFieldMap {
			fields := graphql.InputObjectConfigFieldMap{}
			for _, c := range t.Columns {
				fields[c.GraphQLName] = &graphql.InputObjectFieldConfig{
					Type:        b.comparisonInputType(scalarForType(c.EffectiveDataType())),
					Description: fmt.Sprintf("Predicate on column %s", c.Name),
				}
			}
			fields["_and"] = &graphql.InputObjectFieldConfig{
				Type:        graphql.NewList(ft),
				Description: "Logical AND of nested predicates",
			}
			fields["_or"] = &graphql.InputObjectFieldConfig{
				Type:        graphql.NewList(ft),
				Description: "Logical OR of nested predicates",
			}
			return fields
		}),
	})
	return ft
}

// mutationInputType builds <T><verb>Input: one field per non-identity column,
// required (NonNull) when requireNonNullable is set and the column is
// non-nullable and not the primary key, mirroring
// wayli-app-fluxbase's isAutoGenerated skip applied here via Column.IsIdentity
// (the catalog's own construction-time signal, narrower than that teacher's
// DEFAULT-expression string sniffing since this model records identity
// columns explicitly per engine at read time, see internal/catalog/reader.go).
func (b *Builder) mutationInputType(t *catalog.Table, verb string, requireNonNullable bool) *graphql.InputObject {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, c := range t.Columns {
		if c.IsIdentity {
			continue
		}
		scalar := scalarForType(c.EffectiveDataType())
		var fieldType graphql.Input = scalar
		if requireNonNullable && !c.IsNullable && !c.IsPrimaryKey {
			fieldType = graphql.NewNonNull(scalar)
		}
		fields[c.GraphQLName] = &graphql.InputObjectFieldConfig{
			Type:        fieldType,
			Description: fmt.Sprintf("Value for column %s", c.Name),
		}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        t.GraphQLName + verb + "Input",
		Description: fmt.Sprintf("%s input for %s", verb, t.Name),
		Fields:      fields,
	})
}

// updateInputType builds Update<T>: like mutationInputType(t, "Update",
// false) but with the primary key column required, since an update mutation
// identifies its row by the primary key value carried in the same object.
func (b *Builder) updateInputType(t *catalog.Table, pk *catalog.Column) *graphql.InputObject {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, c := range t.Columns {
		if c.IsIdentity && !c.IsPrimaryKey {
			continue
		}
		scalar := scalarForType(c.EffectiveDataType())
		var fieldType graphql.Input = scalar
		if c.IsPrimaryKey {
			fieldType = graphql.NewNonNull(scalar)
		}
		fields[c.GraphQLName] = &graphql.InputObjectFieldConfig{
			Type:        fieldType,
			Description: fmt.Sprintf("Value for column %s", c.Name),
		}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        t.GraphQLName + "UpdateInput",
		Description: fmt.Sprintf("Update input for %s", t.Name),
		Fields:      fields,
	})
}

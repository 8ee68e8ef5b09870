// Package filter implements the recursive filter AST: AND/OR internal nodes
// over relational leaves. Filters are parsed from a GraphQL object literal
// (the shape a `filter:` argument takes) and rendered back to that same
// shape, so that parse(render(f)) reproduces an equal tree.
package filter

import (
	"fmt"
	"sort"

	"github.com/brightloom/sqlgraph/internal/dialect"
	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// Kind distinguishes a leaf predicate from a boolean connective.
type Kind int

const (
	Leaf Kind = iota
	And
	Or
)

// Filter is one node of the algebraic filter tree described in §3 of the
// spec this package implements: leaves are (column, op, value) predicates;
// internal nodes are AND/OR over their children.
type Filter struct {
	Kind     Kind
	Column   string
	Op       dialect.Op
	Value    interface{}
	Children []*Filter
}

// NewLeaf builds a single (column, op, value) predicate.
func NewLeaf(column string, op dialect.Op, value interface{}) *Filter {
	return &Filter{Kind: Leaf, Column: column, Op: op, Value: value}
}

// NewAnd builds an AND connective over children. An empty child list reduces
// to a tautology when rendered (handled by the compiler, not here).
func NewAnd(children ...*Filter) *Filter {
	return &Filter{Kind: And, Children: children}
}

// NewOr builds an OR connective over children.
func NewOr(children ...*Filter) *Filter {
	return &Filter{Kind: Or, Children: children}
}

// AndWith returns a new filter that is f AND with, unless either side is
// nil (in which case the non-nil side, or nil, is returned unchanged). This
// is the composition operation FilterTransformers use to layer in
// additional predicates without disturbing the existing tree.
func AndWith(f, with *Filter) *Filter {
	switch {
	case f == nil:
		return with
	case with == nil:
		return f
	default:
		return NewAnd(f, with)
	}
}

// Render turns a Filter back into the nested map shape a GraphQL `filter:`
// argument literal takes, e.g. {_and: [{role: {_eq: "admin"}}, ...]}.
func Render(f *Filter) map[string]interface{} {
	if f == nil {
		return nil
	}
	switch f.Kind {
	case Leaf:
		return map[string]interface{}{
			f.Column: map[string]interface{}{string(f.Op): f.Value},
		}
	case And, Or:
		key := "_and"
		if f.Kind == Or {
			key = "_or"
		}
		items := make([]interface{}, len(f.Children))
		for i, c := range f.Children {
			items[i] = Render(c)
		}
		return map[string]interface{}{key: items}
	default:
		return nil
	}
}

// Parse builds a Filter tree from a GraphQL filter object literal. obj is
// the already-decoded value map (as produced by the visitor's value-literal
// mapping, §4.5): each key is either a column name mapping to an
// {op: value} object, or one of the boolean connectives "_and"/"_or"
// mapping to a list of nested filter objects.
func Parse(obj map[string]interface{}) (*Filter, error) {
	if len(obj) == 0 {
		return nil, nil
	}
	var nodes []*Filter
	// Sort keys for deterministic output; the round-trip property only
	// requires equality up to leaf ordering, but deterministic rendering
	// makes the compiler's SQL output deterministic too.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := obj[k]
		switch k {
		case "_and", "_or":
			list, ok := v.([]interface{})
			if !ok {
				return nil, gqlerr.FilterType("%q expects a list of filter objects", k)
			}
			children := make([]*Filter, 0, len(list))
			for _, item := range list {
				m, ok := item.(map[string]interface{})
				if !ok {
					return nil, gqlerr.FilterType("%q element must be a filter object", k)
				}
				child, err := Parse(m)
				if err != nil {
					return nil, err
				}
				if child != nil {
					children = append(children, child)
				}
			}
			if k == "_and" {
				nodes = append(nodes, NewAnd(children...))
			} else {
				nodes = append(nodes, NewOr(children...))
			}
		default:
			opMap, ok := v.(map[string]interface{})
			if !ok {
				return nil, gqlerr.FilterType("filter on column %q must be an operator object", k)
			}
			leaf, err := parseLeaf(k, opMap)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, leaf)
		}
	}

	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return NewAnd(nodes...), nil
}

func parseLeaf(column string, opMap map[string]interface{}) (*Filter, error) {
	if len(opMap) != 1 {
		return nil, gqlerr.FilterType("column %q must specify exactly one operator", column)
	}
	for k, v := range opMap {
		op := dialect.Op(k)
		if err := validateOperandShape(column, op, v); err != nil {
			return nil, err
		}
		return NewLeaf(column, op, v), nil
	}
	return nil, gqlerr.FilterType("column %q has no operator", column)
}

func validateOperandShape(column string, op dialect.Op, v interface{}) error {
	switch op {
	case dialect.OpIn, dialect.OpNIn:
		if _, ok := v.([]interface{}); !ok {
			return gqlerr.FilterType("operator %q on column %q requires a list value", op, column)
		}
	case dialect.OpBetween, dialect.OpNBetween:
		list, ok := v.([]interface{})
		if !ok || len(list) != 2 {
			return gqlerr.FilterType("operator %q on column %q requires a two-element list", op, column)
		}
	case dialect.OpNull, dialect.OpNNull:
		if _, ok := v.(bool); !ok {
			return gqlerr.FilterType("operator %q on column %q requires a boolean value", op, column)
		}
	}
	return nil
}

// Equal reports whether two filter trees are structurally equal, treating
// AND/OR children as unordered (the round-trip property is defined "up to
// leaf ordering").
func Equal(a, b *Filter) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == Leaf {
		return a.Column == b.Column && a.Op == b.Op && fmt.Sprint(a.Value) == fmt.Sprint(b.Value)
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	used := make([]bool, len(b.Children))
	for _, ac := range a.Children {
		matched := false
		for i, bc := range b.Children {
			if used[i] {
				continue
			}
			if Equal(ac, bc) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

package compiler

import "fmt"

// Params is the per-request accumulating parameter collection: every SQL
// literal that could vary with user input is added here and referenced in
// the rendered statement only through the dialect's bind-variable syntax,
// never interpolated.
type Params struct {
	names  []string
	values []interface{}
}

// NewParams returns an empty parameter collection.
func NewParams() *Params { return &Params{} }

// Add records a new parameter value and returns its generated name
// ("p0", "p1", ...) and its 1-based position, for use with
// dialect.Dialect.BindVar.
func (p *Params) Add(value interface{}) (name string, index int) {
	index = len(p.values) + 1
	name = fmt.Sprintf("p%d", len(p.values))
	p.names = append(p.names, name)
	p.values = append(p.values, value)
	return name, index
}

// Names returns the parameter names in the order they were added.
func (p *Params) Names() []string { return p.names }

// Values returns the parameter values in the order they were added,
// parallel to Names.
func (p *Params) Values() []interface{} { return p.values }

// Len reports how many parameters have been collected.
func (p *Params) Len() int { return len(p.values) }

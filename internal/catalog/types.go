// Package catalog builds the in-memory database model: the immutable
// catalog snapshot (DbModel) of tables, columns and inferred relationships,
// read from the live database catalog per engine.
package catalog

// TableType distinguishes a base table from a view; both expose the same
// GraphQL surface.
type TableType int

const (
	TableBase TableType = iota
	TableView
)

// LinkKind marks which side of a foreign-key relationship a Link
// represents: the child (holding the foreign key) gets a single link to
// its parent; the parent gets a multi link back to its children.
type LinkKind int

const (
	LinkSingle LinkKind = iota
	LinkMulti
)

// Column is one column of a Table.
type Column struct {
	Name            string
	GraphQLName     string
	DataType        string
	IsNullable      bool
	IsPrimaryKey    bool
	IsIdentity      bool
	OrdinalPosition int
	Metadata        map[string]string
}

// EffectiveDataType is metadata["type"] when set (a JSON-as-string style
// scalar override), otherwise the column's native DataType.
func (c *Column) EffectiveDataType() string {
	if c.Metadata != nil {
		if t, ok := c.Metadata["type"]; ok && t != "" {
			return t
		}
	}
	return c.DataType
}

// Link is a directed relationship inferred from a foreign-key constraint.
type Link struct {
	Name         string
	ParentSchema string
	ParentTable  string
	ParentColumn string
	ChildSchema  string
	ChildTable   string
	ChildColumn  string
	Kind         LinkKind
}

// Table is one table or view in the DbModel.
type Table struct {
	Schema         string
	Name           string
	GraphQLName    string
	NormalizedName string
	Type           TableType
	Columns        []*Column
	SingleLinks    map[string]*Link
	MultiLinks     map[string]*Link
	Metadata       map[string]string

	byName        map[string]*Column
	byGraphQLName map[string]*Column
}

func newTable() *Table {
	return &Table{
		SingleLinks:   map[string]*Link{},
		MultiLinks:    map[string]*Link{},
		Metadata:      map[string]string{},
		byName:        map[string]*Column{},
		byGraphQLName: map[string]*Column{},
	}
}

// AddColumn appends a column and indexes it by name and GraphQL name.
func (t *Table) AddColumn(c *Column) {
	t.Columns = append(t.Columns, c)
	t.byName[c.Name] = c
	t.byGraphQLName[c.GraphQLName] = c
}

// GetColumn looks up a column by its native name.
func (t *Table) GetColumn(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// GetColumnByGraphQLName looks up a column by its derived GraphQL name.
func (t *Table) GetColumnByGraphQLName(name string) (*Column, bool) {
	c, ok := t.byGraphQLName[name]
	return c, ok
}

// PrimaryKey returns the table's primary key column, if any.
func (t *Table) PrimaryKey() (*Column, bool) {
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			return c, true
		}
	}
	return nil, false
}

// Procedure is a stored procedure record; described externally, kept
// minimal here (name/schema only) since this component is optional per the
// data model this package implements.
type Procedure struct {
	Schema string
	Name   string
}

// DbModel is the immutable, process-wide catalog snapshot: every request
// shares one *DbModel read-only; refresh publishes a new snapshot rather
// than mutating the old one.
type DbModel struct {
	tables        []*Table
	byKey         map[tableKey]*Table
	byGraphQLName map[string]*Table
	procedures    []*Procedure
	Metadata      map[string]string
}

type tableKey struct{ schema, name string }

// Tables returns every table in the model, in build order.
func (m *DbModel) Tables() []*Table { return m.tables }

// Table looks up a table by (schema, name).
func (m *DbModel) Table(schema, name string) (*Table, bool) {
	t, ok := m.byKey[tableKey{schema, name}]
	return t, ok
}

// TableByGraphQLName looks up a table by its derived GraphQL type name.
func (m *DbModel) TableByGraphQLName(name string) (*Table, bool) {
	t, ok := m.byGraphQLName[name]
	return t, ok
}

// TableByNormalizedName looks up a table by its singular normalized name,
// the name the schema's by-primary-key query field carries. Linear scan:
// the lookup only runs for root fields that missed the GraphQL-name index.
func (m *DbModel) TableByNormalizedName(name string) (*Table, bool) {
	for _, t := range m.tables {
		if t.NormalizedName == name {
			return t, true
		}
	}
	return nil, false
}

// Procedures returns the optional stored-procedure set.
func (m *DbModel) Procedures() []*Procedure { return m.procedures }

// LinkParentTable resolves the Table on the parent side of l.
func (m *DbModel) LinkParentTable(l *Link) (*Table, bool) {
	return m.Table(l.ParentSchema, l.ParentTable)
}

// LinkChildTable resolves the Table on the child side of l.
func (m *DbModel) LinkChildTable(l *Link) (*Table, bool) {
	return m.Table(l.ChildSchema, l.ChildTable)
}

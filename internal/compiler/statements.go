package compiler

// StatementMap is an insertion-order-preserving map from statement name to
// rendered SQL text. A plain Go map would make compiled output
// non-deterministic across runs of the same query tree; callers that need a
// stable ordering (logging, golden-file tests, batched execution) rely on
// Names() returning names in the order Set was first called for each.
type StatementMap struct {
	names  []string
	byName map[string]string
}

// NewStatementMap returns an empty statement map.
func NewStatementMap() *StatementMap {
	return &StatementMap{byName: map[string]string{}}
}

// Set records or overwrites the SQL text for name. The first Set call for a
// given name fixes its position in Names(); later overwrites keep that
// position.
func (m *StatementMap) Set(name, sql string) {
	if _, ok := m.byName[name]; !ok {
		m.names = append(m.names, name)
	}
	m.byName[name] = sql
}

// Get returns the SQL text for name, if present.
func (m *StatementMap) Get(name string) (string, bool) {
	s, ok := m.byName[name]
	return s, ok
}

// Names returns every statement name in insertion order.
func (m *StatementMap) Names() []string { return m.names }

// Len reports how many statements have been recorded.
func (m *StatementMap) Len() int { return len(m.names) }

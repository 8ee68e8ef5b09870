package catalog

import "fmt"

// inferLinks walks every foreign-key constraint and produces one single
// link on the child table and one multi link on the parent table, per the
// construction rules this package implements: the single link's name is
// derived by stripping a trailing "id" from the FK column, falling back to
// the parent table's normalized name; the multi link's name is the plural
// form of the child table's normalized name. Collisions with an existing
// column or link name on the same table are disambiguated by suffixing
// "_link".
func inferLinks(tables []*Table, fks []RawConstraint) error {
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	// Track names already claimed per table (by columns first, so link
	// names never shadow a real column) to resolve collisions.
	used := make(map[string]map[string]bool, len(tables))
	for _, t := range tables {
		m := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			m[c.Name] = true
		}
		used[t.Name] = m
	}

	for _, fk := range fks {
		child, ok := byName[fk.Table]
		if !ok {
			continue
		}
		parent, ok := byName[fk.RefTable]
		if !ok {
			continue
		}

		singleName := singleLinkName(fk.Column, parent.NormalizedName)
		singleName = disambiguateLinkName(singleName, used[child.Name])

		multiName := pluralize(child.NormalizedName)
		multiName = disambiguateLinkName(multiName, used[parent.Name])

		link := &Link{
			Name:         singleName,
			ParentSchema: parent.Schema,
			ParentTable:  parent.Name,
			ParentColumn: fk.RefColumn,
			ChildSchema:  child.Schema,
			ChildTable:   child.Name,
			ChildColumn:  fk.Column,
			Kind:         LinkSingle,
		}
		child.SingleLinks[singleName] = link

		multi := &Link{
			Name:         multiName,
			ParentSchema: parent.Schema,
			ParentTable:  parent.Name,
			ParentColumn: fk.RefColumn,
			ChildSchema:  child.Schema,
			ChildTable:   child.Name,
			ChildColumn:  fk.Column,
			Kind:         LinkMulti,
		}
		parent.MultiLinks[multiName] = multi

		if _, ok := parent.GetColumn(fk.RefColumn); !ok {
			return fmt.Errorf("catalog: foreign key %s.%s references missing column %s.%s",
				fk.Table, fk.Column, fk.RefTable, fk.RefColumn)
		}
	}
	return nil
}

func singleLinkName(fkColumn, parentNormalizedName string) string {
	if stem, ok := stripTrailingID(fkColumn); ok && stem != "" {
		return singularize(stem)
	}
	return parentNormalizedName
}

// disambiguateLinkName suffixes "_link" (repeating if necessary) until the
// name no longer collides with a column or link already claimed on the
// table; the column always wins the bare name per the model's invariant
// that column/link collisions resolve in favor of the column.
func disambiguateLinkName(name string, used map[string]bool) string {
	candidate := name
	for used[candidate] {
		candidate += "_link"
	}
	used[candidate] = true
	return candidate
}

package catalog

import (
	"fmt"
	"strings"
)

// excludedSchemas parses the model-level "schema-excluded" metadata value, a
// comma-separated list of schema names whose tables are left out of the
// model entirely.
func excludedSchemas(csv string) map[string]bool {
	out := map[string]bool{}
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out[s] = true
		}
	}
	return out
}

// MetadataOverlay carries the configuration-sourced metadata applied on top
// of the raw catalog read: model-wide flags, per-table flags (tenant
// filter, soft delete, ...), and per-column flags (scalar type overrides).
type MetadataOverlay struct {
	Model   map[string]string
	Tables  map[string]map[string]string
	Columns map[string]map[string]map[string]string // table -> column -> kv
}

// Build constructs an immutable DbModel snapshot from a reader's
// SchemaData, following the five-step process this package implements:
// columns, tables, link inference, metadata overlay, publish.
func Build(data SchemaData, overlay MetadataOverlay) (*DbModel, error) {
	excluded := excludedSchemas(overlay.Model["schema-excluded"])

	// Step 1+2: build Table records with their Column children.
	tables := make([]*Table, 0, len(data.Tables))
	byKey := make(map[tableKey]*Table, len(data.Tables))

	for _, rt := range data.Tables {
		if excluded[rt.Schema] {
			continue
		}
		t := newTable()
		t.Schema = rt.Schema
		t.Name = rt.Name
		t.Type = rt.Type
		tables = append(tables, t)
		byKey[tableKey{rt.Schema, rt.Name}] = t
	}

	for _, rc := range data.Columns {
		t, ok := byKey[tableKey{rc.Schema, rc.Table}]
		if !ok {
			continue
		}
		t.AddColumn(&Column{
			Name:            rc.Name,
			DataType:        rc.DataType,
			IsNullable:      rc.IsNullable,
			OrdinalPosition: rc.OrdinalPosition,
			Metadata:        map[string]string{},
		})
	}

	for _, t := range tables {
		if len(t.Columns) == 0 {
			return nil, fmt.Errorf("catalog: table %q has no columns", t.Name)
		}
	}

	// Attach PK/identity constraints.
	var fks []RawConstraint
	for _, rc := range data.Constraints {
		t, ok := byKey[tableKey{rc.Schema, rc.Table}]
		if !ok {
			continue
		}
		switch rc.Kind {
		case ConstraintPrimaryKey:
			if c, ok := t.GetColumn(rc.Column); ok {
				c.IsPrimaryKey = true
				c.IsNullable = false
			}
		case ConstraintIdentity:
			if c, ok := t.GetColumn(rc.Column); ok {
				c.IsIdentity = true
			}
		case ConstraintForeignKey:
			fks = append(fks, rc)
		}
	}

	// Names: GraphQL name and normalized (singular) name, disambiguated
	// across the whole model.
	usedGraphQLNames := make(map[string]bool, len(tables))
	byGraphQLName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		gqlName := disambiguate(graphQLName(t.Name), usedGraphQLNames)
		t.GraphQLName = gqlName
		t.NormalizedName = singularize(t.Name)
		byGraphQLName[gqlName] = t

		usedColNames := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			c.GraphQLName = disambiguate(graphQLName(c.Name), usedColNames)
		}
		for _, c := range t.Columns {
			t.byGraphQLName[c.GraphQLName] = c
		}
	}

	// Step 3: resolve FK constraints that reference a schema-qualified
	// parent table (RefSchema is empty for engines without a usable
	// concept, e.g. SQLite); resolve against (RefSchema, RefTable) when
	// present, else fall back to a by-name match done inside inferLinks.
	resolvedFKs := make([]RawConstraint, 0, len(fks))
	for _, fk := range fks {
		if fk.RefSchema != "" {
			if _, ok := byKey[tableKey{fk.RefSchema, fk.RefTable}]; !ok {
				continue
			}
		}
		resolvedFKs = append(resolvedFKs, fk)
	}
	if err := inferLinks(tables, resolvedFKs); err != nil {
		return nil, err
	}

	// Step 4: apply metadata overlay.
	modelMeta := map[string]string{}
	for k, v := range overlay.Model {
		modelMeta[k] = v
	}
	for _, t := range tables {
		if tm, ok := overlay.Tables[t.Name]; ok {
			for k, v := range tm {
				t.Metadata[k] = v
			}
		}
		if cm, ok := overlay.Columns[t.Name]; ok {
			for colName, kv := range cm {
				if c, ok := t.GetColumn(colName); ok {
					for k, v := range kv {
						c.Metadata[k] = v
					}
				}
			}
		}
	}

	// Step 5: publish immutable snapshot.
	return &DbModel{
		tables:        tables,
		byKey:         byKey,
		byGraphQLName: byGraphQLName,
		Metadata:      modelMeta,
	}, nil
}

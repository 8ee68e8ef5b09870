package catalog_test

import (
	"testing"

	"github.com/brightloom/sqlgraph/internal/catalog"
	"github.com/stretchr/testify/require"
)

func sampleSchema() catalog.SchemaData {
	return catalog.SchemaData{
		Tables: []catalog.RawTable{
			{Schema: "dbo", Name: "workshops", Type: catalog.TableBase},
			{Schema: "dbo", Name: "sessions", Type: catalog.TableBase},
		},
		Columns: []catalog.RawColumn{
			{Schema: "dbo", Table: "workshops", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Schema: "dbo", Table: "workshops", Name: "number", DataType: "varchar", IsNullable: true, OrdinalPosition: 2},
			{Schema: "dbo", Table: "sessions", Name: "id", DataType: "int", OrdinalPosition: 1},
			{Schema: "dbo", Table: "sessions", Name: "workshopid", DataType: "int", OrdinalPosition: 2},
			{Schema: "dbo", Table: "sessions", Name: "status", DataType: "varchar", IsNullable: true, OrdinalPosition: 3},
		},
		Constraints: []catalog.RawConstraint{
			{Kind: catalog.ConstraintPrimaryKey, Schema: "dbo", Table: "workshops", Column: "id"},
			{Kind: catalog.ConstraintIdentity, Schema: "dbo", Table: "workshops", Column: "id"},
			{Kind: catalog.ConstraintPrimaryKey, Schema: "dbo", Table: "sessions", Column: "id"},
			{
				Kind: catalog.ConstraintForeignKey, Schema: "dbo", Table: "sessions", Column: "workshopid",
				RefSchema: "dbo", RefTable: "workshops", RefColumn: "id",
			},
		},
	}
}

func TestBuildInfersLinksBothDirections(t *testing.T) {
	model, err := catalog.Build(sampleSchema(), catalog.MetadataOverlay{})
	require.NoError(t, err)

	sessions, ok := model.Table("dbo", "sessions")
	require.True(t, ok)
	link, ok := sessions.SingleLinks["workshop"]
	require.True(t, ok, "expected single link 'workshop' on sessions")
	require.Equal(t, "workshops", link.ParentTable)
	require.Equal(t, "id", link.ParentColumn)
	require.Equal(t, "workshopid", link.ChildColumn)

	workshops, ok := model.Table("dbo", "workshops")
	require.True(t, ok)
	multi, ok := workshops.MultiLinks["sessions"]
	require.True(t, ok, "expected multi link 'sessions' on workshops")
	require.Equal(t, "sessions", multi.ChildTable)
}

func TestBuildNormalizesSingularName(t *testing.T) {
	model, err := catalog.Build(sampleSchema(), catalog.MetadataOverlay{})
	require.NoError(t, err)

	workshops, ok := model.Table("dbo", "workshops")
	require.True(t, ok)
	require.Equal(t, "workshop", workshops.NormalizedName)
}

func TestBuildAppliesMetadataOverlay(t *testing.T) {
	overlay := catalog.MetadataOverlay{
		Tables: map[string]map[string]string{
			"workshops": {"tenant-filter": "tenant_id"},
		},
	}
	model, err := catalog.Build(sampleSchema(), overlay)
	require.NoError(t, err)

	workshops, _ := model.Table("dbo", "workshops")
	require.Equal(t, "tenant_id", workshops.Metadata["tenant-filter"])
}

func TestBuildRejectsTableWithNoColumns(t *testing.T) {
	data := sampleSchema()
	data.Tables = append(data.Tables, catalog.RawTable{Schema: "dbo", Name: "empty"})
	_, err := catalog.Build(data, catalog.MetadataOverlay{})
	require.Error(t, err)
}

func TestPrimaryKeyIsNeverNullable(t *testing.T) {
	model, err := catalog.Build(sampleSchema(), catalog.MetadataOverlay{})
	require.NoError(t, err)

	workshops, _ := model.Table("dbo", "workshops")
	pk, ok := workshops.PrimaryKey()
	require.True(t, ok)
	require.False(t, pk.IsNullable)
}

func TestBuildSkipsExcludedSchemas(t *testing.T) {
	data := sampleSchema()
	data.Tables = append(data.Tables, catalog.RawTable{Schema: "audit", Name: "events"})
	data.Columns = append(data.Columns, catalog.RawColumn{Schema: "audit", Table: "events", Name: "id", OrdinalPosition: 1})

	overlay := catalog.MetadataOverlay{Model: map[string]string{"schema-excluded": "audit"}}
	model, err := catalog.Build(data, overlay)
	require.NoError(t, err)

	_, ok := model.Table("audit", "events")
	require.False(t, ok)
	_, ok = model.Table("dbo", "workshops")
	require.True(t, ok)
}

func TestGraphQLNameDisambiguation(t *testing.T) {
	data := catalog.SchemaData{
		Tables: []catalog.RawTable{
			{Schema: "a", Name: "orders"},
			{Schema: "b", Name: "orders"},
		},
		Columns: []catalog.RawColumn{
			{Schema: "a", Table: "orders", Name: "id", OrdinalPosition: 1},
			{Schema: "b", Table: "orders", Name: "id", OrdinalPosition: 1},
		},
	}
	model, err := catalog.Build(data, catalog.MetadataOverlay{})
	require.NoError(t, err)

	ta, _ := model.Table("a", "orders")
	tb, _ := model.Table("b", "orders")
	require.NotEqual(t, ta.GraphQLName, tb.GraphQLName)
}

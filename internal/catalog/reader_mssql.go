package catalog

import (
	"context"
	"database/sql"

	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// SQLServerReader reads table, column and constraint metadata out of
// information_schema and sys.identity_columns.
type SQLServerReader struct{}

const msTablesQuery = `
SELECT table_schema, table_name, table_type
FROM information_schema.tables`

const msColumnsQuery = `
SELECT table_schema, table_name, column_name, data_type, is_nullable, ordinal_position
FROM information_schema.columns
ORDER BY table_schema, table_name, ordinal_position`

const msPrimaryKeysQuery = `
SELECT tc.table_schema, tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY'`

const msForeignKeysQuery = `
SELECT
  fk.table_schema, fk.table_name, fk.column_name,
  pk.table_schema AS ref_schema, pk.table_name AS ref_table, pk.column_name AS ref_column
FROM information_schema.referential_constraints rc
JOIN information_schema.key_column_usage fk ON rc.constraint_name = fk.constraint_name
JOIN information_schema.key_column_usage pk ON rc.unique_constraint_name = pk.constraint_name`

const msIdentityQuery = `
SELECT s.name AS table_schema, t.name AS table_name, c.name AS column_name
FROM sys.identity_columns c
JOIN sys.tables t ON c.object_id = t.object_id
JOIN sys.schemas s ON t.schema_id = s.schema_id`

func (SQLServerReader) Read(ctx context.Context, db *sql.DB) (SchemaData, error) {
	var data SchemaData

	if err := queryRows(ctx, db, msTablesQuery, func(scan scanFunc) error {
		var schema, name, kind string
		if err := scan(&schema, &name, &kind); err != nil {
			return err
		}
		tt := TableBase
		if kind == "VIEW" {
			tt = TableView
		}
		data.Tables = append(data.Tables, RawTable{Schema: schema, Name: name, Type: tt})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading sqlserver tables")
	}

	if err := queryRows(ctx, db, msColumnsQuery, func(scan scanFunc) error {
		var schema, table, name, dataType, nullable string
		var pos int
		if err := scan(&schema, &table, &name, &dataType, &nullable, &pos); err != nil {
			return err
		}
		data.Columns = append(data.Columns, RawColumn{
			Schema: schema, Table: table, Name: name, DataType: dataType,
			IsNullable: nullable == "YES", OrdinalPosition: pos,
		})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading sqlserver columns")
	}

	if err := queryRows(ctx, db, msPrimaryKeysQuery, func(scan scanFunc) error {
		var schema, table, col string
		if err := scan(&schema, &table, &col); err != nil {
			return err
		}
		data.Constraints = append(data.Constraints, RawConstraint{
			Kind: ConstraintPrimaryKey, Schema: schema, Table: table, Column: col,
		})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading sqlserver primary keys")
	}

	if err := queryRows(ctx, db, msIdentityQuery, func(scan scanFunc) error {
		var schema, table, col string
		if err := scan(&schema, &table, &col); err != nil {
			return err
		}
		data.Constraints = append(data.Constraints, RawConstraint{
			Kind: ConstraintIdentity, Schema: schema, Table: table, Column: col,
		})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading sqlserver identity columns")
	}

	if err := queryRows(ctx, db, msForeignKeysQuery, func(scan scanFunc) error {
		var schema, table, col, refSchema, refTable, refCol string
		if err := scan(&schema, &table, &col, &refSchema, &refTable, &refCol); err != nil {
			return err
		}
		data.Constraints = append(data.Constraints, RawConstraint{
			Kind: ConstraintForeignKey, Schema: schema, Table: table, Column: col,
			RefSchema: refSchema, RefTable: refTable, RefColumn: refCol,
		})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading sqlserver foreign keys")
	}

	return data, nil
}

package catalog

import (
	"context"
	"database/sql"

	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// PostgresReader reads table, column and constraint metadata out of
// information_schema and pg_catalog in five round trips, one query per
// logical record type: tables, columns, primary keys, identity columns and
// foreign keys.
type PostgresReader struct{}

const pgTablesQuery = `
SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`

const pgColumnsQuery = `
SELECT table_schema, table_name, column_name, data_type, is_nullable, ordinal_position
FROM information_schema.columns
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name, ordinal_position`

const pgPrimaryKeysQuery = `
SELECT tc.table_schema, tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY'`

const pgForeignKeysQuery = `
SELECT
  tc.table_schema, tc.table_name, kcu.column_name,
  ccu.table_schema AS ref_schema, ccu.table_name AS ref_table, ccu.column_name AS ref_column
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'`

const pgIdentityQuery = `
SELECT table_schema, table_name, column_name
FROM information_schema.columns
WHERE is_identity = 'YES' OR column_default LIKE 'nextval(%'`

func (PostgresReader) Read(ctx context.Context, db *sql.DB) (SchemaData, error) {
	var data SchemaData

	if err := queryRows(ctx, db, pgTablesQuery, func(scan scanFunc) error {
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
		return data, gqlerr.SchemaRead(err, "reading postgres tables")
	}

	if err := queryRows(ctx, db, pgColumnsQuery, func(scan scanFunc) error {
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
		return data, gqlerr.SchemaRead(err, "reading postgres columns")
	}

	if err := queryRows(ctx, db, pgPrimaryKeysQuery, func(scan scanFunc) error {
		var schema, table, col string
		if err := scan(&schema, &table, &col); err != nil {
			return err
		}
		data.Constraints = append(data.Constraints, RawConstraint{
			Kind: ConstraintPrimaryKey, Schema: schema, Table: table, Column: col,
		})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading postgres primary keys")
	}

	if err := queryRows(ctx, db, pgIdentityQuery, func(scan scanFunc) error {
		var schema, table, col string
		if err := scan(&schema, &table, &col); err != nil {
			return err
		}
		data.Constraints = append(data.Constraints, RawConstraint{
			Kind: ConstraintIdentity, Schema: schema, Table: table, Column: col,
		})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading postgres identity columns")
	}

	if err := queryRows(ctx, db, pgForeignKeysQuery, func(scan scanFunc) error {
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
		return data, gqlerr.SchemaRead(err, "reading postgres foreign keys")
	}

	return data, nil
}

package catalog

import (
	"context"
	"database/sql"

	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// MySQLReader reads table, column and constraint metadata out of
// information_schema, scoped to the connection's current database via
// DATABASE().
type MySQLReader struct{}

const myTablesQuery = `
SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_schema = DATABASE()`

const myColumnsQuery = `
SELECT table_schema, table_name, column_name, data_type, is_nullable, ordinal_position, extra
FROM information_schema.columns
WHERE table_schema = DATABASE()
ORDER BY table_schema, table_name, ordinal_position`

const myPrimaryKeysQuery = `
SELECT table_schema, table_name, column_name
FROM information_schema.key_column_usage
WHERE table_schema = DATABASE() AND constraint_name = 'PRIMARY'`

const myForeignKeysQuery = `
SELECT table_schema, table_name, column_name, referenced_table_schema, referenced_table_name, referenced_column_name
FROM information_schema.key_column_usage
WHERE table_schema = DATABASE() AND referenced_table_name IS NOT NULL`

func (MySQLReader) Read(ctx context.Context, db *sql.DB) (SchemaData, error) {
	var data SchemaData

	if err := queryRows(ctx, db, myTablesQuery, func(scan scanFunc) error {
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
		return data, gqlerr.SchemaRead(err, "reading mysql tables")
	}

	if err := queryRows(ctx, db, myColumnsQuery, func(scan scanFunc) error {
		var schema, table, name, dataType, nullable, extra string
		var pos int
		if err := scan(&schema, &table, &name, &dataType, &nullable, &pos, &extra); err != nil {
			return err
		}
		data.Columns = append(data.Columns, RawColumn{
			Schema: schema, Table: table, Name: name, DataType: dataType,
			IsNullable: nullable == "YES", OrdinalPosition: pos,
		})
		if extra == "auto_increment" {
			data.Constraints = append(data.Constraints, RawConstraint{
				Kind: ConstraintIdentity, Schema: schema, Table: table, Column: name,
			})
		}
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading mysql columns")
	}

	if err := queryRows(ctx, db, myPrimaryKeysQuery, func(scan scanFunc) error {
		var schema, table, col string
		if err := scan(&schema, &table, &col); err != nil {
			return err
		}
		data.Constraints = append(data.Constraints, RawConstraint{
			Kind: ConstraintPrimaryKey, Schema: schema, Table: table, Column: col,
		})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading mysql primary keys")
	}

	if err := queryRows(ctx, db, myForeignKeysQuery, func(scan scanFunc) error {
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
		return data, gqlerr.SchemaRead(err, "reading mysql foreign keys")
	}

	return data, nil
}

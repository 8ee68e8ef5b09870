package catalog

import (
	"context"
	"database/sql"

	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// SQLiteReader reads catalog metadata from sqlite_master plus a per-table
// PRAGMA table_info / PRAGMA foreign_key_list pass, since SQLite has no
// information_schema.
type SQLiteReader struct{}

const liteTablesQuery = `
SELECT name, type FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'`

func (SQLiteReader) Read(ctx context.Context, db *sql.DB) (SchemaData, error) {
	var data SchemaData

	if err := queryRows(ctx, db, liteTablesQuery, func(scan scanFunc) error {
		var name, kind string
		if err := scan(&name, &kind); err != nil {
			return err
		}
		tt := TableBase
		if kind == "view" {
			tt = TableView
		}
		data.Tables = append(data.Tables, RawTable{Schema: "", Name: name, Type: tt})
		return nil
	}); err != nil {
		return data, gqlerr.SchemaRead(err, "reading sqlite tables")
	}

	for _, tbl := range data.Tables {
		if err := readSQLiteTableInfo(ctx, db, tbl.Name, &data); err != nil {
			return data, gqlerr.SchemaRead(err, "reading sqlite table_info for %q", tbl.Name)
		}
		if err := readSQLiteForeignKeys(ctx, db, tbl.Name, &data); err != nil {
			return data, gqlerr.SchemaRead(err, "reading sqlite foreign_key_list for %q", tbl.Name)
		}
	}

	return data, nil
}

// readSQLiteTableInfo issues PRAGMA table_info(<table>). The table name is
// interpolated (PRAGMA does not accept bound parameters) but is always one
// of the identifiers sqlite_master itself just returned, never user input.
func readSQLiteTableInfo(ctx context.Context, db *sql.DB, table string, data *SchemaData) error {
	query := "PRAGMA table_info(" + quoteSQLiteIdent(table) + ")"
	return queryRows(ctx, db, query, func(scan scanFunc) error {
		var cid int
		var name, dataType string
		var notNull int
		var dflt interface{}
		var pk int
		if err := scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return err
		}
		data.Columns = append(data.Columns, RawColumn{
			Table: table, Name: name, DataType: dataType,
			IsNullable: notNull == 0, OrdinalPosition: cid + 1,
		})
		if pk != 0 {
			data.Constraints = append(data.Constraints, RawConstraint{
				Kind: ConstraintPrimaryKey, Table: table, Column: name,
			})
			// SQLite's INTEGER PRIMARY KEY column is always the implicit
			// rowid alias and auto-increments without AUTOINCREMENT.
			if dataType == "INTEGER" || dataType == "integer" {
				data.Constraints = append(data.Constraints, RawConstraint{
					Kind: ConstraintIdentity, Table: table, Column: name,
				})
			}
		}
		return nil
	})
}

func readSQLiteForeignKeys(ctx context.Context, db *sql.DB, table string, data *SchemaData) error {
	query := "PRAGMA foreign_key_list(" + quoteSQLiteIdent(table) + ")"
	return queryRows(ctx, db, query, func(scan scanFunc) error {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		data.Constraints = append(data.Constraints, RawConstraint{
			Kind: ConstraintForeignKey, Table: table, Column: from,
			RefTable: refTable, RefColumn: to,
		})
		return nil
	})
}

func quoteSQLiteIdent(s string) string {
	return `"` + s + `"`
}

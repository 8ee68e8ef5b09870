package catalog

import (
	"context"
	"database/sql"

	"github.com/brightloom/sqlgraph/internal/gqlerr"
)

// RawColumn is one normalized column record emitted by a Reader, before
// DbModel construction attaches constraint information.
type RawColumn struct {
	Schema          string
	Table           string
	Name            string
	DataType        string
	IsNullable      bool
	OrdinalPosition int
}

// RawTable is one normalized table/view record.
type RawTable struct {
	Schema string
	Name   string
	Type   TableType
}

// ConstraintKind enumerates the constraint kinds a Reader reports.
type ConstraintKind int

const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintIdentity
	ConstraintForeignKey
)

// RawConstraint is one normalized constraint record. RefSchema/RefTable/
// RefColumn are populated only for ConstraintForeignKey.
type RawConstraint struct {
	Kind      ConstraintKind
	Schema    string
	Table     string
	Column    string
	RefSchema string
	RefTable  string
	RefColumn string
}

// SchemaData is the normalized catalog snapshot a Reader produces; it is
// the sole input (besides the metadata overlay) to DbModel construction.
type SchemaData struct {
	Tables      []RawTable
	Columns     []RawColumn
	Constraints []RawConstraint
}

// Reader loads catalog metadata for one database engine. Readers never
// mutate catalog state; on failure they report SchemaReadError.
type Reader interface {
	Read(ctx context.Context, db *sql.DB) (SchemaData, error)
}

// NewReader returns the Reader for the named engine.
func NewReader(dbType string) (Reader, error) {
	switch dbType {
	case "postgres", "postgresql":
		return PostgresReader{}, nil
	case "mysql", "mariadb":
		return MySQLReader{}, nil
	case "sqlserver", "mssql":
		return SQLServerReader{}, nil
	case "sqlite", "sqlite3":
		return SQLiteReader{}, nil
	default:
		return nil, gqlerr.SchemaRead(nil, "unsupported database type %q", dbType)
	}
}

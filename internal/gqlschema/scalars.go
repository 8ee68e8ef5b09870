package gqlschema

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Custom leaf scalars the catalog's native column types need beyond
// graphql-go's built-ins, grounded on wayli-app-fluxbase's
// BigIntScalar/UUIDScalar/JSONScalar/DateTimeScalar (internal/api/scalars.go
// equivalent) — the same scalar set that repo defines for deriving a
// GraphQL API from a relational catalog.

var UUIDScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "UUID",
	Description: "RFC 4122 UUID string",
	Serialize:   identitySerialize,
	ParseValue:  identityParseValue,
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if v, ok := valueAST.(*ast.StringValue); ok {
			return v.Value
		}
		return nil
	},
})

var BigIntScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "BigInt",
	Description: "64-bit integer, serialized as a string to avoid JSON number precision loss",
	Serialize:   func(value interface{}) interface{} { return fmt.Sprintf("%v", value) },
	ParseValue:  identityParseValue,
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			return v.Value
		case *ast.IntValue:
			return v.Value
		default:
			return nil
		}
	},
})

var DateTimeScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "DateTime",
	Description: "ISO-8601 timestamp",
	Serialize:   identitySerialize,
	ParseValue:  identityParseValue,
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if v, ok := valueAST.(*ast.StringValue); ok {
			return v.Value
		}
		return nil
	},
})

var JSONScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Arbitrary JSON value, passed through without schema validation",
	Serialize:   identitySerialize,
	ParseValue:  identityParseValue,
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return parseLiteralJSON(valueAST)
	},
})

func identitySerialize(value interface{}) interface{} { return value }
func identityParseValue(value interface{}) interface{} { return value }

func parseLiteralJSON(valueAST ast.Value) interface{} {
	switch v := valueAST.(type) {
	case *ast.StringValue:
		return v.Value
	case *ast.IntValue:
		return v.Value
	case *ast.FloatValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.ObjectValue:
		out := map[string]interface{}{}
		for _, f := range v.Fields {
			out[f.Name.Value] = parseLiteralJSON(f.Value)
		}
		return out
	case *ast.ListValue:
		out := make([]interface{}, len(v.Values))
		for i, e := range v.Values {
			out[i] = parseLiteralJSON(e)
		}
		return out
	default:
		return nil
	}
}

// scalarForType maps a column's effective data type (native DBMS type name,
// or a metadata-overlay "type" string per Column.EffectiveDataType) onto a
// GraphQL scalar, the same per-type switch wayli-app-fluxbase's
// postgresTypeToGraphQLInput performs, generalized across the four engines
// this module supports rather than Postgres alone.
func scalarForType(dataType string) *graphql.Scalar {
	switch strings.ToLower(dataType) {
	case "text", "varchar", "character varying", "char", "character", "nvarchar", "nchar",
		"varchar2", "name", "citext", "string", "enum":
		return graphql.String
	case "smallint", "int2", "integer", "int", "int4", "tinyint", "mediumint",
		"serial", "serial4", "smallserial":
		return graphql.Int
	case "bigint", "int8", "bigserial", "serial8":
		return BigIntScalar
	case "real", "float4", "double precision", "float8", "float", "double",
		"numeric", "decimal", "money", "smallmoney":
		return graphql.Float
	case "boolean", "bool", "bit":
		return graphql.Boolean
	case "uuid", "uniqueidentifier":
		return UUIDScalar
	case "json", "jsonb":
		return JSONScalar
	case "timestamp", "timestamp without time zone", "timestamp with time zone",
		"timestamptz", "date", "datetime", "datetime2", "smalldatetime",
		"time", "time without time zone", "time with time zone", "timetz":
		return DateTimeScalar
	default:
		return graphql.String
	}
}

// Package config holds the configuration schema (spec §6) loaded through
// viper, mirroring core/config.go's Config/DatabaseConfig/Table/Column
// field-tagging style (mapstructure + json + yaml on every field) but
// narrowed to the keys this engine actually consults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TableOverlay carries the per-table metadata keys spec §6 enumerates:
// tenant-filter, soft-delete, soft-delete-by, populate.
type TableOverlay struct {
	Name       string            `mapstructure:"name" json:"name" yaml:"name"`
	Metadata   map[string]string `mapstructure:"metadata" json:"metadata" yaml:"metadata"`
	TenantCol  string            `mapstructure:"tenant_filter" json:"tenant_filter" yaml:"tenant_filter"`
	SoftDelete string            `mapstructure:"soft_delete" json:"soft_delete" yaml:"soft_delete"`
	SoftDelBy  string            `mapstructure:"soft_delete_by" json:"soft_delete_by" yaml:"soft_delete_by"`
	Populate   string            `mapstructure:"populate" json:"populate" yaml:"populate"`
}

// Config is the top-level configuration object, loaded from YAML/env via
// viper by cmd/sqlgraphd.
type Config struct {
	// ConnectionString is the driver-interpretable DSN. Required.
	ConnectionString string `mapstructure:"connection_string" json:"connection_string" yaml:"connection_string" jsonschema:"title=Connection String"`

	// DBType selects the dialect/driver: postgres, mysql, sqlserver, sqlite.
	DBType string `mapstructure:"db_type" json:"db_type" yaml:"db_type" jsonschema:"title=Database Type,enum=postgres,enum=mysql,enum=sqlserver,enum=sqlite"`

	// Path is the GraphQL endpoint path, also the PathCache key.
	Path string `mapstructure:"path" json:"path" yaml:"path" jsonschema:"title=Endpoint Path,default=/graphql"`

	// DisableAuth, when false, requires every request to carry a validated
	// principal (enforced by the HTTP transport, an external collaborator
	// per spec.md §1 — this flag is only recorded and surfaced here).
	DisableAuth bool `mapstructure:"disable_auth" json:"disable_auth" yaml:"disable_auth" jsonschema:"title=Disable Auth,default=false"`

	// SchemaPollInterval mirrors the teacher's DBSchemaPollDuration. It is
	// loaded and recorded here; the engine does not read it and runs no
	// periodic catalog refresh.
	SchemaPollInterval string `mapstructure:"schema_poll_interval" json:"schema_poll_interval" yaml:"schema_poll_interval" jsonschema:"title=Schema Poll Interval,default=0s"`

	// QueryTimeout bounds one request's statement execution; the engine
	// cancels in-flight driver calls past it. Defaults to 30s.
	QueryTimeout string `mapstructure:"query_timeout" json:"query_timeout" yaml:"query_timeout" jsonschema:"title=Query Timeout,default=30s"`

	// Debug mirrors the teacher's Config.Debug/LogVars. It is loaded and
	// recorded here; no component reads it, so it does not change what is
	// logged.
	Debug bool `mapstructure:"debug" json:"debug" yaml:"debug" jsonschema:"title=Debug,default=false"`

	// Tables carries per-table metadata overlays (§6 "Per-table metadata").
	Tables []TableOverlay `mapstructure:"tables" json:"tables" yaml:"tables"`

	// Metadata carries model-level keys (§6 "Model-level"): raw-sql,
	// schema-display, schema-default, schema-excluded, schema-permissions.
	Metadata map[string]string `mapstructure:"metadata" json:"metadata" yaml:"metadata"`
}

// SupportedDBTypes lists the dialects this module's internal/dialect
// package implements, mirroring the teacher's SupportedDBTypes var but
// narrowed to engines this module actually ships a Dialect for.
var SupportedDBTypes = []string{"postgres", "mysql", "sqlserver", "sqlite"}

// ValidateDBType reports whether dbType is one of SupportedDBTypes,
// case-insensitively.
func ValidateDBType(dbType string) error {
	for _, t := range SupportedDBTypes {
		if strings.EqualFold(dbType, t) {
			return nil
		}
	}
	return fmt.Errorf("config: unsupported database type %q: supported types are %s",
		dbType, strings.Join(SupportedDBTypes, ", "))
}

// Validate checks the configuration for the errors the engine cannot
// recover from at startup.
func (c *Config) Validate() error {
	if c.ConnectionString == "" {
		return fmt.Errorf("config: connection_string is required")
	}
	if err := ValidateDBType(c.DBType); err != nil {
		return err
	}
	if c.Path == "" {
		c.Path = "/graphql"
	}
	if c.QueryTimeout != "" {
		if _, err := time.ParseDuration(c.QueryTimeout); err != nil {
			return fmt.Errorf("config: invalid query_timeout %q: %w", c.QueryTimeout, err)
		}
	}
	return nil
}

// Load reads configuration from the named file (any format viper supports:
// yaml, json, toml) merged over environment variables prefixed SQLGRAPH_,
// the way the teacher's serv module layers env over file config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SQLGRAPH")
	v.AutomaticEnv()
	v.SetDefault("path", "/graphql")
	v.SetDefault("db_type", "postgres")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Command sqlgraphd is the CLI host: a thin wrapper that loads config,
// opens the database connection and starts the engine, grounded on the
// teacher's cmd module's role as a cobra-based entry point
// (cmd/cmd.go's Cmd/newCmd/servCmd layout) narrowed to the subset of
// commands this engine's scope calls for.
package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightloom/sqlgraph"
	"github.com/brightloom/sqlgraph/config"
)

// Exit codes per spec.md §6.
const (
	exitSuccess = 0
	exitConfig  = 1
	exitSchema  = 2
)

var cfgPath string

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{Use: "sqlgraphd", Short: "GraphQL-over-SQL query engine"}
	root.PersistentFlags().StringVar(&cfgPath, "config", "./sqlgraphd.yaml", "path to config file")
	root.AddCommand(servCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}
	return exitSuccess
}

func servCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "load the catalog and start serving the configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			code := serve()
			if code != exitSuccess {
				os.Exit(code)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("sqlgraphd (development build)")
		},
	}
}

// serve loads configuration, opens the database connection, builds the
// Engine (which reads the catalog and builds the validation schema) and
// returns the spec.md §6 exit code for whichever step failed, if any.
func serve() int {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error("configuration load failed", zap.Error(err))
		return exitConfig
	}

	db, err := sql.Open(driverNameFor(cfg.DBType), cfg.ConnectionString)
	if err != nil {
		log.Error("could not open database connection", zap.Error(err))
		return exitConfig
	}
	defer db.Close()

	engine, err := sqlgraph.New(cfg, db, log)
	if err != nil {
		log.Error("schema load failed", zap.Error(err))
		return exitSchema
	}

	log.Info("engine ready", zap.String("path", cfg.Path), zap.Int("tables", len(engine.Model().Tables())))
	select {} // the HTTP transport (an external collaborator, spec.md §1) drives requests from here
}

func driverNameFor(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		return "pgx"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlserver", "mssql":
		return "sqlserver"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return dbType
	}
}

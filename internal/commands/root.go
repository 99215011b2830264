// Package commands implements the gastos-cli command tree.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gastos/internal/cli"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/store"
	"gastos/internal/store/memory"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	catalogFile string
	dbPath      string
	userID      string
	jsonOut     bool
	logLevel    string

	logger *log.Logger
}

// NewRootCmd builds the CLI. version is printed by the version subcommand.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "gastos-cli",
		Short: "Parse and categorize Spanish voice expense commands",
		Long: `gastos-cli runs the voice expense pipeline offline: parse an utterance,
resolve it against a catalog, and move category trees in and out as CSV.

The catalog comes from a YAML file (--catalog, built-in when empty) or from
a SQLite database (--db).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			level, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			cfg := log.DefaultConfig()
			cfg.Level = level
			cfg.Component = "cli"
			cfg.Output = cmd.ErrOrStderr()
			opts.logger = log.New(cfg)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.catalogFile, "catalog", os.Getenv("CATALOG_SEED_FILE"), "YAML catalog file (built-in catalog when empty)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database to read the catalog from instead of YAML")
	flags.StringVar(&opts.userID, "user", envOr("DEFAULT_USER_ID", "default"), "user whose saved items are used")
	flags.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(parseCmd(opts))
	root.AddCommand(resolveCmd(opts))
	root.AddCommand(categoriesCmd(opts))
	root.AddCommand(versionCmd(version))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// catalogStore is what the catalog-facing subcommands need from a backend.
type catalogStore interface {
	store.CatalogReader
	Close() error
}

type memoryCatalog struct{ *memory.Store }

func (memoryCatalog) Close() error { return nil }

// openCatalog returns the SQLite repository when --db is set, the YAML
// catalog otherwise.
func (o *options) openCatalog() (catalogStore, error) {
	if o.dbPath != "" {
		repo, err := storage.NewSQLiteRepository(o.dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		o.logger.Debug("Using SQLite catalog", "path", o.dbPath)
		return repo, nil
	}
	st, err := memory.NewFromFile(o.catalogFile)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Using YAML catalog", "path", o.catalogFile)
	return memoryCatalog{st}, nil
}

func (o *options) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

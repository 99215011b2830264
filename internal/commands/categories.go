package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gastos/internal/core"
	"gastos/internal/storage"
	"gastos/internal/store/memory"
)

func categoriesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Import and export the category tree as CSV",
		Long: `Move the four-level category tree (type, area, subcategory, item) in and
out of the catalog as flat CSV rows with the columns
n1,n1_id,n2,n2_id,n3,n3_id,n4,n4_id,unidad.`,
	}
	cmd.AddCommand(exportCategoriesCmd(opts))
	cmd.AddCommand(importCategoriesCmd(opts))
	return cmd
}

func exportCategoriesCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog's category rows as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ListCategoryRows(commandContext(cmd), opts.userID)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := WriteCategoryRows(w, rows); err != nil {
				return err
			}
			opts.logger.Info("Exported categories", "rows", len(rows), "output", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func importCategoriesCmd(opts *options) *cobra.Command {
	var (
		toYAML string
		shared bool
	)
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Merge CSV category rows into the database or a YAML catalog",
		Long: `Merge CSV category rows into the SQLite database given by --db. Rows are
owned by --user unless --shared is set. Without --db, the rows are written
as a YAML catalog to --to-yaml instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := ReadCategoryRows(f)
			if err != nil {
				return err
			}

			switch {
			case opts.dbPath != "":
				repo, err := storage.NewSQLiteRepository(opts.dbPath)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer repo.Close()

				owner := opts.userID
				if shared {
					owner = ""
				}
				created, err := repo.ImportCategoryRows(commandContext(cmd), owner, rows)
				if err != nil {
					return fmt.Errorf("import categories: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows, %d new categories\n", len(rows), created)
			case toYAML != "":
				if err := writeSeedFile(toYAML, memory.SeedFromRows(rows)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(rows), toYAML)
			default:
				return fmt.Errorf("nothing to import into: set --db or --to-yaml")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&toYAML, "to-yaml", "", "write a YAML catalog instead of importing into --db")
	cmd.Flags().BoolVar(&shared, "shared", false, "import as shared categories visible to every user")
	return cmd
}

// ReadCategoryRows decodes CSV rows with a header line. Rows without a type
// are rejected.
func ReadCategoryRows(r io.Reader) ([]core.CategoryRow, error) {
	var rows []core.CategoryRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decode categories CSV: %w", err)
	}
	for i, row := range rows {
		if row.N1 == "" {
			return nil, fmt.Errorf("row %d: %w", i+1, core.ErrEmptyType)
		}
	}
	return rows, nil
}

// WriteCategoryRows encodes rows as CSV with a header line.
func WriteCategoryRows(w io.Writer, rows []core.CategoryRow) error {
	if rows == nil {
		rows = []core.CategoryRow{}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("encode categories CSV: %w", err)
	}
	return nil
}

func writeSeedFile(path string, seed memory.Seed) error {
	data, err := yaml.Marshal(seed)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}

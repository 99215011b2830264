package commands

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gastos/internal/voice"
)

func parseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "parse <utterance>...",
		Short:   "Parse an utterance into item, quantity and amount",
		Example: `  gastos-cli parse pollo dos kilos trescientos`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := voice.Parse(strings.Join(args, " "))
			if opts.jsonOut {
				return opts.printJSON(cmd.OutOrStdout(), parsed)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "item\t%s\n", parsed.ItemQuery)
			fmt.Fprintf(w, "cantidad\t%s\n", orDash(parsed.Quantity))
			fmt.Fprintf(w, "monto\t%s\n", orDash(parsed.Amount))
			return w.Flush()
		},
	}
}

func resolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <utterance>...",
		Short: "Parse an utterance and categorize it against the catalog",
		Long: `Parse an utterance and categorize it. Saved items win over category
names (subcategory, then area, then type); anything else is kept as a
free-form item under "Sin definir".`,
		Example: `  gastos-cli resolve nafta 10 litros 500
  gastos-cli --db ./data/gastos.db --user ana resolve pollo 300`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			st, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer st.Close()

			items, err := st.ListItems(ctx, opts.userID)
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}
			rows, err := st.ListCategoryRows(ctx, opts.userID)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}

			parsed := voice.Parse(strings.Join(args, " "))
			draft, err := voice.Resolve(parsed, items, rows)
			if errors.Is(err, voice.ErrEmptyQuery) {
				return fmt.Errorf("no item phrase in %q: %w", strings.Join(args, " "), err)
			}
			if err != nil {
				return err
			}

			f := draft.Fields()
			if opts.jsonOut {
				return opts.printJSON(cmd.OutOrStdout(), f)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "nivel\t%s (%s)\n", f.MatchLevel, f.MatchLabel)
			fmt.Fprintf(w, "categoría\t%s\n", draft.CategoryPath.String())
			fmt.Fprintf(w, "cantidad\t%s %s\n", orDash(f.Cantidad), f.Unidad)
			fmt.Fprintf(w, "monto\t%s\n", orDash(f.Monto))
			return w.Flush()
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

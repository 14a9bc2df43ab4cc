package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/exporters"
)

func newExportCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export library data",
	}
	cmd.AddCommand(newExportLoansCommand(rt))
	return cmd
}

func newExportLoansCommand(rt *runtime) *cobra.Command {
	var out, from, to string

	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Write the loan history as CSV",
		Long: `Write the loan history as CSV.

--from and --to are inclusive calendar days (YYYY-MM-DD) in the library
timezone and filter on the borrow date. Both are optional.`,
		Example: `  librarydesk export loans --out loans.csv --from 2024-01-01 --to 2024-03-31
  librarydesk export loans > all-loans.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dateRange, err := exporters.ParseDateRange(from, to)
			if err != nil {
				return err
			}

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			toFile := out != "" && out != "-"
			var w io.Writer = cmd.OutOrStdout()
			if toFile {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			result, err := app.Exporter.ExportLoans(cmd.Context(), auth.SystemActorName, w, dateRange)
			if err != nil {
				return err
			}
			if toFile {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d loans to %s\n", result.Rows, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&from, "from", "", "first borrow day to include")
	cmd.Flags().StringVar(&to, "to", "", "last borrow day to include")
	return cmd
}

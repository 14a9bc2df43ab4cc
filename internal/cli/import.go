package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/auth"
)

func newImportCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import library data",
	}
	cmd.AddCommand(newImportBooksCommand(rt))
	return cmd
}

func newImportBooksCommand(rt *runtime) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "books",
		Short: "Add the books listed in a CSV file",
		Long: `Add the books listed in a CSV file.

The file uses the columns of the books import template: title, author,
category and isbn. Only title is required. Every line adds a new copy.`,
		Example: `  librarydesk import books --file books.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Importer.ImportBooks(cmd.Context(), auth.SystemActorName, f)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d of %d rows, skipped %d\n", result.Imported, result.TotalRows, result.Skipped)
			for _, problem := range result.Errors {
				fmt.Fprintf(out, "  %s\n", problem)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

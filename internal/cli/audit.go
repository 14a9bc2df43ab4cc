package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/audit"
)

func newAuditCommand(rt *runtime) *cobra.Command {
	var (
		limit int
		since string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the most recent audit log entries",
		Long: `Print the most recent audit log entries, newest first.

--since accepts RFC3339 or YYYY-MM-DD (midnight in the library timezone).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			var sinceTime *time.Time
			if since != "" {
				t, err := parseSince(since, app.Location)
				if err != nil {
					return err
				}
				sinceTime = &t
			}

			entries, err := app.Audit.Query(cmd.Context(), limit, sinceTime)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tACTOR\tACTION\tDETAILS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					e.ID, e.CreatedAt.In(app.Location).Format(time.RFC3339), e.Actor, e.Action, e.Details)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", audit.DefaultQueryLimit,
		fmt.Sprintf("number of entries, at most %d", audit.MaxQueryLimit))
	cmd.Flags().StringVar(&since, "since", "", "only entries at or after this time")
	return cmd
}

func parseSince(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: use RFC3339 or YYYY-MM-DD", value)
	}
	return t, nil
}

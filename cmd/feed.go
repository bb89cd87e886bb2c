package cmd

import (
	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Inspect how feeds are assembled",
}

var feedFiltersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Print the filter steps every feed build runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication(cmd.Context(), appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		return printJSON(cmd.OutOrStdout(), a.feed().Filters())
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedFiltersCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/jobswipe/internal/summary"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate a summary of a user's job preferences with a language model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		all, _ := cmd.Flags().GetBool("all")

		if !all && user == "" {
			return fmt.Errorf("either --user or --all is required")
		}

		ctx := cmd.Context()
		a, err := newApplication(ctx, appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		s, err := a.summarizer(ctx)
		if err != nil {
			return err
		}

		if all {
			return summary.NewBatch(s, a.ledger, a.config.Summary.Schedule, a.logger).RunOnce(ctx)
		}

		sum, err := s.Summarize(ctx, user, name)
		if err := printJSON(cmd.OutOrStdout(), summary.ResultOf(sum, err)); err != nil {
			return err
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringP("user", "u", "", "user id")
	summarizeCmd.Flags().StringP("name", "n", "", "display name used in the prompt (default is the user id)")
	summarizeCmd.Flags().Bool("all", false, "regenerate summaries of every user with a ledger")
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spigell/jobswipe/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and edit a user's likes and dislikes",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the ledger of a user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApplication(cmd.Context(), appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		l, err := a.ledger.Get(cmd.Context(), user)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), l.View())
	},
}

var ledgerUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with a ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication(cmd.Context(), appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		users, err := a.ledger.Users(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerShowCmd, ledgerUsersCmd)

	ledgerShowCmd.Flags().StringP("user", "u", "", "user id")
	_ = ledgerShowCmd.MarkFlagRequired("user")

	for _, c := range []struct {
		use   string
		short string
		write func(a *application) func(ctx context.Context, userID, jobID string) error
	}{
		{"like", "Like a posting", func(a *application) func(context.Context, string, string) error { return a.ledger.Like }},
		{"dislike", "Dislike a posting", func(a *application) func(context.Context, string, string) error { return a.ledger.Dislike }},
		{"unlike", "Remove a posting from the liked set", func(a *application) func(context.Context, string, string) error { return a.ledger.Unlike }},
		{"undislike", "Remove a posting from the disliked set", func(a *application) func(context.Context, string, string) error { return a.ledger.Undislike }},
	} {
		ledgerCmd.AddCommand(newLedgerWriteCmd(c.use, c.short, c.write))
	}
}

func newLedgerWriteCmd(use, short string, write func(a *application) func(ctx context.Context, userID, jobID string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			job, _ := cmd.Flags().GetString("job")

			a, err := newApplication(cmd.Context(), appOptions{stderrLogs: true})
			if err != nil {
				return err
			}
			defer a.close()

			res := ledger.ResultOf(write(a)(cmd.Context(), user, job))
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%s failed: %s", use, res.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringP("user", "u", "", "user id")
	cmd.Flags().StringP("job", "J", "", "job posting id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

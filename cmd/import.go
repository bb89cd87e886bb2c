package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/headhunter"
	"github.com/spigell/jobswipe/internal/secrets"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Seed the postings table from an external job board",
}

var importHHCmd = &cobra.Command{
	Use:   "hh",
	Short: "Import vacancies from the hh.ru public search",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApplication(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		cfg := a.config.Import.HH
		params := cfg.Search
		if text, _ := cmd.Flags().GetString("text"); text != "" {
			params.Text = text
		}
		limit := cfg.Limit
		if cmd.Flags().Changed("limit") {
			limit, _ = cmd.Flags().GetInt("limit")
		}

		// anonymous search works without a token
		var token string
		if cfg.TokenFile != "" {
			token, err = secrets.Load(secrets.Source{Name: "headhunter token", File: cfg.TokenFile})
			if err != nil {
				return err
			}
		}

		hh := headhunter.New(a.logger, token, cfg.UserAgent)

		a.logger.Info("starting the search", zap.String("search", params.Text), zap.Int("limit", limit))

		vacancies, err := hh.Search(ctx, &params, limit)
		if err != nil {
			return fmt.Errorf("getting available vacancies: %w", err)
		}

		imported := 0
		for _, p := range vacancies.Postings() {
			if err := a.db.UpsertPosting(ctx, p); err != nil {
				return fmt.Errorf("store posting %s: %w", p.ID, err)
			}
			imported++
		}

		a.logger.Info("vacancies imported",
			zap.Int("found", vacancies.Len()),
			zap.Int("imported", imported),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importHHCmd)

	importHHCmd.Flags().StringP("text", "t", "", "search text (default is import.hh.text)")
	importHHCmd.Flags().Int("limit", 0, "maximum vacancies to import (default is import.hh.limit)")
}

package cmd

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spigell/jobswipe/internal/jobs"
)

var postingsCmd = &cobra.Command{
	Use:   "postings",
	Short: "Manage the local postings table",
}

var postingsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace an open posting",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := postingFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newApplication(cmd.Context(), appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.db.UpsertPosting(cmd.Context(), p); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

var postingsCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Move a posting out of the open state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")
		raw, _ := cmd.Flags().GetString("status")

		status, err := jobs.ParseStatus(raw)
		if err != nil {
			return err
		}
		if status == jobs.StatusOpen {
			return errors.New("close needs a non-open status")
		}

		a, err := newApplication(cmd.Context(), appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		return a.db.SetPostingStatus(cmd.Context(), strings.TrimSpace(id), status)
	},
}

var postingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print open postings, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApplication(cmd.Context(), appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		postings, err := a.db.OpenPostings(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), postings)
	},
}

func init() {
	rootCmd.AddCommand(postingsCmd)
	postingsCmd.AddCommand(postingsAddCmd, postingsCloseCmd, postingsListCmd)

	f := postingsAddCmd.Flags()
	f.String("id", "", "posting id")
	f.String("title", "", "job title")
	f.String("company", "", "company name")
	f.String("location", "", "location")
	f.Bool("remote", false, "remote position")
	f.StringSlice("skills", nil, "comma separated skills")
	f.Int("salary-from", 0, "lower salary bound")
	f.Int("salary-to", 0, "upper salary bound")
	f.String("currency", "", "salary currency")
	_ = postingsAddCmd.MarkFlagRequired("id")
	_ = postingsAddCmd.MarkFlagRequired("title")

	postingsCloseCmd.Flags().String("id", "", "posting id")
	postingsCloseCmd.Flags().String("status", string(jobs.StatusClosed), "new status: closed, expired, filled or draft")
	_ = postingsCloseCmd.MarkFlagRequired("id")

	postingsListCmd.Flags().Int("limit", 0, "maximum postings to print (default is all)")
}

func postingFromFlags(cmd *cobra.Command) (jobs.Posting, error) {
	f := cmd.Flags()
	id, _ := f.GetString("id")
	title, _ := f.GetString("title")
	company, _ := f.GetString("company")
	location, _ := f.GetString("location")
	remote, _ := f.GetBool("remote")
	skills, _ := f.GetStringSlice("skills")
	from, _ := f.GetInt("salary-from")
	to, _ := f.GetInt("salary-to")
	currency, _ := f.GetString("currency")

	p := jobs.Posting{
		ID:         strings.TrimSpace(id),
		Title:      strings.TrimSpace(title),
		Company:    strings.TrimSpace(company),
		Location:   strings.TrimSpace(location),
		Remote:     remote,
		Skills:     skills,
		SalaryFrom: from,
		SalaryTo:   to,
		Currency:   strings.TrimSpace(currency),
		Status:     jobs.StatusOpen,
		CreatedAt:  time.Now().UTC(),
	}

	if p.ID == "" || p.Title == "" {
		return jobs.Posting{}, errors.New("posting id and title must not be empty")
	}
	if p.SalaryFrom < 0 || p.SalaryTo < 0 || (p.SalaryTo > 0 && p.SalaryFrom > p.SalaryTo) {
		return jobs.Posting{}, errors.New("invalid salary range")
	}
	return p, nil
}

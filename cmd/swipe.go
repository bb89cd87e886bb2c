package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/swipe"
)

const (
	PromptLike    = "Like"
	PromptDislike = "Pass"
	PromptRefresh = "Refresh feed"
	PromptRetry   = "Retry failed swipes"
	PromptQuit    = "Quit"
)

var swipeCmd = &cobra.Command{
	Use:   "swipe",
	Short: "Swipe through open postings in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := cmd.Context()
		a, err := newApplication(ctx, appOptions{stderrLogs: true})
		if err != nil {
			return err
		}
		defer a.close()

		sinks, err := a.failureSinks(ctx)
		if err != nil {
			return err
		}

		queue := swipe.NewRetryQueue()
		session := swipe.NewSession(user, a.feed(), a.ledger, swipe.Options{
			PoolLimit: limit,
			Sinks:     append(sinks, queue),
			Logger:    a.logger,
		})

		return runSwipe(ctx, cmd.OutOrStdout(), session, queue, a)
	},
}

func init() {
	rootCmd.AddCommand(swipeCmd)

	swipeCmd.Flags().StringP("user", "u", "", "user id to swipe as")
	swipeCmd.Flags().IntP("limit", "l", 0, "feed pool size (default is feed.pool-limit)")
	_ = swipeCmd.MarkFlagRequired("user")
}

func runSwipe(ctx context.Context, out io.Writer, session *swipe.Session, queue *swipe.RetryQueue, a *application) error {
	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}

	defer func() {
		if queue.Len() == 0 {
			return
		}
		retried, err := queue.Retry(ctx, a.ledger)
		a.logger.Info("retried failed swipes on exit",
			zap.Int("retried", retried),
			zap.Int("still_pending", queue.Len()),
			zap.Error(err),
		)
	}()

	for {
		items := []string{}
		label := ""

		switch session.State() {
		case swipe.Ready:
			current := session.Current()
			printPosting(out, current, session.Remaining())
			label = "Your call"
			items = append(items, PromptLike, PromptDislike)
		case swipe.Exhausted:
			fmt.Fprintln(out, "No more postings for now.")
			label = "Feed exhausted"
			items = append(items, PromptRefresh)
		default:
			// a failed refresh leaves the session loading
			label = "Feed is not loaded"
			items = append(items, PromptRefresh)
		}

		if queue.Len() > 0 {
			items = append(items, fmt.Sprintf("%s (%d)", PromptRetry, queue.Len()))
		}
		items = append(items, PromptQuit)

		prompt := promptui.Select{Label: label, Items: items}
		_, choice, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		switch {
		case choice == PromptLike, choice == PromptDislike:
			dir := swipe.Like
			if choice == PromptDislike {
				dir = swipe.Dislike
			}
			decision, err := session.Decide(ctx, dir)
			if err != nil {
				return err
			}
			if decision.Failed() {
				fmt.Fprintf(out, "Could not save your decision on %s, it is queued for retry.\n", decision.JobID)
			}
		case choice == PromptRefresh:
			if err := session.Refresh(ctx); err != nil {
				a.logger.Warn("refreshing feed", zap.Error(err))
			}
		case strings.HasPrefix(choice, PromptRetry):
			retried, err := queue.Retry(ctx, a.ledger)
			if err != nil {
				a.logger.Warn("retrying failed swipes", zap.Error(err))
			}
			fmt.Fprintf(out, "Saved %d queued decisions, %d still pending.\n", retried, queue.Len())
		case choice == PromptQuit:
			return nil
		}
	}
}

func printPosting(out io.Writer, p *jobs.Posting, remaining int) {
	fmt.Fprintf(out, "\n%s\n", p.Label())
	if salary := p.Salary(); salary != "" {
		fmt.Fprintf(out, "  salary: %s\n", salary)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(out, "  skills: %s\n", strings.Join(p.Skills, ", "))
	}
	fmt.Fprintf(out, "  id: %s, %d left in this feed\n", p.ID, remaining)
}

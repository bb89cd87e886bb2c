package cmd

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/server"
	"github.com/spigell/jobswipe/internal/summary"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the summary batch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApplication(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.config.Server.Addr
		}

		deps := server.Deps{
			Ledger: a.ledger,
			Feed:   a.feed(),
		}

		s, err := a.summarizer(ctx)
		switch {
		case errors.Is(err, errAIDisabled):
			a.logger.Info("summary routes disabled", zap.String("reason", err.Error()))
		case err != nil:
			return err
		default:
			deps.Summaries = s
			if a.config.Summary.Batch {
				batch := summary.NewBatch(s, a.ledger, a.config.Summary.Schedule, a.logger)
				if err := batch.Start(ctx); err != nil {
					return err
				}
				defer batch.Stop()
			}
		}

		a.logger.Info("starting jobswipe", zap.String("version", version))
		return server.New(deps, a.logger).Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default is server.addr)")
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/auth"
	"github.com/daviddao/jobmail/internal/display"
	"github.com/daviddao/jobmail/internal/poller"
)

var (
	pollOnce     bool
	pollInterval time.Duration
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize read-only Gmail access",
	Long: `Run the OAuth consent flow using the client secret at gmail.credentials
(GOOGLE_CLIENT_SECRET_PATH) and save the token to gmail.token (GOOGLE_TOKEN_PATH).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := auth.Authorize(ctx, authPaths(), cmd.OutOrStdout(), logger); err != nil {
			return err
		}
		if !quietFlag {
			display.SuccessMsg("Saved token to %s", cfg.Gmail.Token)
		}
		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Fetch new job mail from Gmail and update applications",
	Long: `Search Gmail for job mail received since the last check, run every new
message through the pipeline and record the results. Runs until interrupted
unless --once is given.`,
	Example: `  jm poll --once
  jm poll --interval 5m
  jm poll --once --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := gmailClient(ctx)
		if err != nil {
			return err
		}
		pl, err := newPipeline()
		if err != nil {
			return err
		}
		p := poller.New(client, store, pl, poller.Options{
			Queries:    cfg.Gmail.Queries,
			MaxResults: cfg.Gmail.MaxResults,
			Lookback:   time.Duration(cfg.Gmail.LookbackDays) * 24 * time.Hour,
		}, logger)

		if !pollOnce {
			interval := pollInterval
			if interval == 0 {
				interval = time.Duration(cfg.Poll.IntervalSeconds) * time.Second
			}
			if interval < time.Minute {
				return fmt.Errorf("interval should be at least 1m to avoid rate limits (got %s)", interval)
			}
			return p.Run(ctx, interval)
		}

		sum, err := p.PollOnce(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sum)
		}
		if !quietFlag {
			display.SuccessMsg("Processed %d of %d new messages (%d found)", sum.Processed, sum.New, sum.Found)
			fmt.Printf("  %s\n", display.Dim.Render(fmt.Sprintf(
				"%d not job-related · %d new applications · %d failed", sum.Irrelevant, sum.Created, sum.Failed)))
		}
		if sum.Failed > 0 {
			return fmt.Errorf("%d message(s) failed; they will be retried on the next poll", sum.Failed)
		}
		return nil
	},
}

func init() {
	pollCmd.Flags().BoolVar(&pollOnce, "once", false, "Run a single polling cycle and exit")
	pollCmd.Flags().DurationVar(&pollInterval, "interval", 0, "Time between cycles (default: poll.interval_seconds)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(pollCmd)
}

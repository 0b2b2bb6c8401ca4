package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/display"
	"github.com/daviddao/jobmail/internal/gmail"
	"github.com/daviddao/jobmail/internal/poller"
)

var (
	gmailMaxResults int64
	gmailPipeline   bool
)

var gmailCmd = &cobra.Command{
	Use:   "gmail",
	Short: "Gmail operations (search, read, queries)",
	Long:  "Search and read Gmail messages with the configured account.",
}

var gmailSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search Gmail messages",
	Long: `Search Gmail messages matching a query.

Uses the same query syntax as Gmail's search box.`,
	Example: `  jm gmail search "from:greenhouse.io newer_than:7d"
  jm gmail search "subject:interview" -n 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		client, err := gmailClient(cmd.Context())
		if err != nil {
			return err
		}
		results, err := client.Search(cmd.Context(), query, gmailMaxResults)
		if err != nil {
			return err
		}

		if jsonOutput {
			if results == nil {
				results = []gmail.MessageSummary{}
			}
			return printJSON(cmd.OutOrStdout(), results)
		}

		w := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintf(w, "No messages found matching: %s\n", query)
			return nil
		}
		fmt.Fprintf(w, "Found %d message(s) matching: %s\n\n", len(results), query)
		for i, msg := range results {
			fmt.Fprintf(w, "[%d] ID: %s\n", i+1, msg.ID)
			fmt.Fprintf(w, "    From: %s\n", msg.From)
			fmt.Fprintf(w, "    Subject: %s\n", msg.Subject)
			fmt.Fprintf(w, "    Date: %s\n", msg.Date)
			fmt.Fprintf(w, "    Preview: %s\n\n", display.Truncate(msg.Snippet, 100))
		}
		return nil
	},
}

var gmailReadCmd = &cobra.Command{
	Use:   "read MESSAGE_ID",
	Short: "Read a Gmail message by ID",
	Long: `Read the full content of a Gmail message, or with --pipeline run it
through the tracker pipeline without saving.`,
	Example: `  jm gmail read 18d5a7b3c4e5f6a7
  jm gmail read 18d5a7b3c4e5f6a7 --pipeline`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := gmailClient(ctx)
		if err != nil {
			return err
		}

		if gmailPipeline {
			rec, err := client.Fetch(ctx, args[0])
			if err != nil {
				return err
			}
			pl, err := newPipeline()
			if err != nil {
				return err
			}
			out, err := pl.Process(ctx, rec)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printOutcome(rec, out)
			return nil
		}

		msg, err := client.ReadFull(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), msg)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "From: %s\n", msg.From)
		fmt.Fprintf(w, "To: %s\n", msg.To)
		fmt.Fprintf(w, "Subject: %s\n", msg.Subject)
		fmt.Fprintf(w, "Date: %s\n", msg.Date)
		fmt.Fprintf(w, "Labels: %s\n", strings.Join(msg.Labels, ", "))
		if len(msg.Attachments) > 0 {
			fmt.Fprintf(w, "Attachments:\n")
			for _, att := range msg.Attachments {
				fmt.Fprintf(w, "  - %s (%s, %d bytes)\n", att.Filename, att.MimeType, att.Size)
			}
		}
		fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("=", 60))
		fmt.Fprintf(w, "%s\n", msg.Body)
		return nil
	},
}

var gmailQueriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print the searches jm poll runs",
	Run: func(cmd *cobra.Command, args []string) {
		queries := cfg.Gmail.Queries
		if len(queries) == 0 {
			queries = poller.DefaultQueries()
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), queries)
			return
		}
		for _, q := range queries {
			fmt.Fprintln(cmd.OutOrStdout(), q)
		}
	},
}

func init() {
	gmailSearchCmd.Flags().Int64VarP(&gmailMaxResults, "max-results", "n", 10, "Maximum results to return")
	gmailReadCmd.Flags().BoolVar(&gmailPipeline, "pipeline", false, "Run the message through the pipeline without saving")

	gmailCmd.AddCommand(gmailSearchCmd)
	gmailCmd.AddCommand(gmailReadCmd)
	gmailCmd.AddCommand(gmailQueriesCmd)
	rootCmd.AddCommand(gmailCmd)
}

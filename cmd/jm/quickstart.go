package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/display"
	"github.com/daviddao/jobmail/internal/types"
)

var quickstartCmd = &cobra.Command{
	Use:   "quickstart",
	Short: "Quick start guide for jm",
	Long:  "Display a quick start guide showing common jm workflows.",
	Run: func(cmd *cobra.Command, args []string) {
		b := display.Bold.Render
		a := display.Success.Render
		d := display.Dim.Render

		fmt.Printf("\n%s\n\n", b("jm — Job Application Tracking from Your Inbox"))
		fmt.Println("Read job mail from Gmail, classify it, keep one record per application.")
		fmt.Println()

		fmt.Println(b("GETTING STARTED"))
		fmt.Printf("  %s           Create .jobmail/jobs.db in your project\n", a("jm init"))
		fmt.Printf("  %s           Authorize read-only Gmail access\n", a("jm auth"))
		fmt.Printf("  %s    Read new job mail once\n", a("jm poll --once"))
		fmt.Printf("  %s           Keep polling every poll.interval_seconds\n\n", a("jm poll"))

		fmt.Println(b("REVIEWING"))
		fmt.Printf("  %s           All applications, latest first\n", a("jm apps"))
		fmt.Printf("  %s  Only applications in one status\n", a("jm apps -s interview"))
		fmt.Printf("  %s    One application and its timeline\n", a("jm show APP_ID"))
		fmt.Printf("  %s         Latest events everywhere\n", a("jm events"))
		fmt.Printf("  %s          KPIs: volume, pipeline, response rate\n", a("jm stats"))
		fmt.Printf("  %s      What needs a nudge this week\n\n", a("jm followups"))

		fmt.Println(b("CORRECTING"))
		fmt.Printf("  %s\n", a("jm set-status APP_ID interview --notes \"phone screen booked\""))
		fmt.Printf("  %s\n\n", d("  Override a status the classifier got wrong"))

		fmt.Println(b("STATUSES"))
		for _, s := range types.ValidStatuses {
			fmt.Printf("  %s\n", display.StatusBadge(s))
		}
		fmt.Println()

		fmt.Println(b("DEBUGGING"))
		fmt.Printf("  %s       Run the pipeline on a saved email, no writes\n", a("jm extract mail.eml"))
		fmt.Printf("  %s  Same, for a Gmail message\n", a("jm gmail read ID --pipeline"))
		fmt.Printf("  %s     Show the Gmail searches used by poll\n\n", a("jm gmail queries"))

		fmt.Println(b("CONFIGURATION"))
		fmt.Println("  .env and environment: GOOGLE_CLIENT_SECRET_PATH, GOOGLE_TOKEN_PATH, GMAIL_USER,")
		fmt.Println("  POLL_INTERVAL_SECONDS, DB_PATH, LOG_LEVEL.")
		fmt.Printf("  Optional %s beside the database for pipeline tuning.\n\n", a(".jobmail/config.yaml"))

		fmt.Println(b("JSON OUTPUT"))
		fmt.Printf("  All commands support %s for machine-readable output.\n\n", a("--json"))
	},
}

func init() {
	rootCmd.AddCommand(quickstartCmd)
}

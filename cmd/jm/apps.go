package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/db"
	"github.com/daviddao/jobmail/internal/display"
	"github.com/daviddao/jobmail/internal/types"
)

var (
	appsStatus  string
	appsLimit   int
	eventsLimit int
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List applications, most recently updated first",
	Example: `  jm apps
  jm apps --status interview
  jm apps -n 10 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appsStatus != "" && !types.IsValidStatus(appsStatus) {
			return fmt.Errorf("invalid status %q (valid: %s)", appsStatus, validStatusList())
		}
		apps, err := store.ListApplications(cmd.Context(), appsStatus, appsLimit)
		if err != nil {
			return err
		}

		if jsonOutput {
			if apps == nil {
				apps = []types.Application{}
			}
			return printJSON(cmd.OutOrStdout(), apps)
		}

		if len(apps) == 0 {
			fmt.Println(display.Dim.Render("No applications yet. Run 'jm poll --once' to read your inbox."))
			return nil
		}
		display.Header(fmt.Sprintf("Applications (%d)", len(apps)))
		for _, a := range apps {
			fmt.Println(display.ApplicationLine(a))
		}
		return nil
	},
}

type showOutput struct {
	Application *types.Application `json:"application"`
	Events      []types.Event      `json:"events"`
}

var showCmd = &cobra.Command{
	Use:   "show APP_ID",
	Short: "Display an application with its event timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseAppID(args[0])
		if err != nil {
			return err
		}
		app, err := store.GetApplication(cmd.Context(), id)
		if err != nil {
			return err
		}
		if app == nil {
			return fmt.Errorf("application %d not found", id)
		}
		events, err := store.EventsForApplication(cmd.Context(), id)
		if err != nil {
			return err
		}

		if jsonOutput {
			if events == nil {
				events = []types.Event{}
			}
			return printJSON(cmd.OutOrStdout(), showOutput{Application: app, Events: events})
		}

		fmt.Printf("%s %s\n", display.Bold.Render(app.Company), display.Muted.Render("· "+app.RoleTitle))
		fmt.Printf("Status: %s\n", display.StatusBadge(app.Status))
		if app.Platform != "" {
			fmt.Printf("Platform: %s\n", app.Platform)
		}
		if app.PortalLink != "" {
			fmt.Printf("Portal: %s\n", app.PortalLink)
		}
		fmt.Printf("First seen: %s  ·  Updated: %s\n",
			display.TimeAgo(app.FirstSeenDate), display.TimeAgo(app.LastUpdated))
		if app.Notes != "" {
			fmt.Printf("Notes: %s\n", display.Dim.Render(app.Notes))
		}
		fmt.Println()

		if len(events) == 0 {
			fmt.Println(display.Dim.Render("  (no events)"))
			return nil
		}
		display.SubHeader(fmt.Sprintf("Timeline (%d events)", len(events)))
		for i, ev := range events {
			display.EventTree(display.Connector(i, len(events)), ev)
			if i < len(events)-1 {
				fmt.Println(display.Muted.Render("  │"))
			}
		}
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events across all applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := store.RecentEvents(cmd.Context(), eventsLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			if events == nil {
				events = []db.RecentEvent{}
			}
			return printJSON(cmd.OutOrStdout(), events)
		}
		if len(events) == 0 {
			fmt.Println(display.Dim.Render("No events yet."))
			return nil
		}
		display.Header(fmt.Sprintf("Recent events (%d)", len(events)))
		for _, ev := range events {
			fmt.Printf("  %s %s %s  %s %s\n",
				display.Dim.Render(fmt.Sprintf("%-8s", display.TimeAgo(ev.EventTime))),
				display.EventLabel(ev.EventType),
				display.Confidence(ev.Confidence),
				display.Bold.Render(display.Truncate(ev.Company, 24)),
				display.Muted.Render(fmt.Sprintf("· %s  #%d", display.Truncate(ev.RoleTitle, 36), ev.ApplicationID)))
		}
		return nil
	},
}

var setStatusNotes string

var setStatusCmd = &cobra.Command{
	Use:   "set-status APP_ID STATUS",
	Short: "Override the status of an application",
	Long: `Set an application's status by hand, for example after a phone call that
never produced an email. Valid statuses: applied, in_review, assessment,
interview, rejected, offer, other.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseAppID(args[0])
		if err != nil {
			return err
		}
		status := strings.ToLower(args[1])
		if !types.IsValidStatus(status) {
			return fmt.Errorf("invalid status %q (valid: %s)", status, validStatusList())
		}
		if err := store.UpdateApplicationStatus(cmd.Context(), id, types.Status(status), setStatusNotes); err != nil {
			return err
		}
		logger.WithField("application_id", id).WithField("status", status).Debug("Status set manually")
		if jsonOutput {
			app, err := store.GetApplication(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), app)
		}
		if !quietFlag {
			display.SuccessMsg("#%d → %s", id, display.StatusBadge(types.Status(status)))
		}
		return nil
	},
}

func parseAppID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid application id %q", s)
	}
	return id, nil
}

func validStatusList() string {
	names := make([]string, len(types.ValidStatuses))
	for i, s := range types.ValidStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func init() {
	appsCmd.Flags().StringVarP(&appsStatus, "status", "s", "", "Filter by status")
	appsCmd.Flags().IntVarP(&appsLimit, "limit", "n", 0, "Maximum applications to show (0 = all)")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "Maximum events to show")
	setStatusCmd.Flags().StringVar(&setStatusNotes, "notes", "", "Replace the application's notes")

	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(setStatusCmd)
}

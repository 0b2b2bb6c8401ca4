package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/db"
	"github.com/daviddao/jobmail/internal/display"
	"github.com/daviddao/jobmail/internal/poller"
	"github.com/daviddao/jobmail/internal/types"
)

type statsOutput struct {
	KPIs        *db.KPIs       `json:"kpis"`
	Statuses    map[string]int `json:"statuses"`
	EventTypes  map[string]int `json:"event_types"`
	Processed   map[string]int `json:"processed"`
	LastChecked string         `json:"last_checked,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job search statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kpis, err := store.KPIs(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("kpis: %w", err)
		}
		statuses, err := store.StatusCounts(ctx)
		if err != nil {
			return fmt.Errorf("status counts: %w", err)
		}
		eventTypes, err := store.EventTypeCounts(ctx)
		if err != nil {
			return fmt.Errorf("event counts: %w", err)
		}
		processed, err := store.ProcessedCounts(ctx)
		if err != nil {
			return fmt.Errorf("processed counts: %w", err)
		}
		lastChecked, err := store.GetState(ctx, poller.LastCheckedKey)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), statsOutput{
				KPIs:        kpis,
				Statuses:    statuses,
				EventTypes:  eventTypes,
				Processed:   processed,
				LastChecked: lastChecked,
			})
		}

		display.Header("Job Search Statistics")
		fmt.Println()

		fmt.Printf("  Applications (30d)  %4d\n", kpis.RecentApplications)
		fmt.Printf("  Active pipeline     %4d\n", kpis.Active)
		fmt.Printf("  Interviews          %4d\n", kpis.Interviews)
		fmt.Printf("  Rejections          %4d\n", kpis.Rejections)
		fmt.Printf("  Offers              %4d\n", kpis.Offers)
		fmt.Printf("  Response rate       %5.1f%%\n", kpis.ResponseRate)
		fmt.Println()

		fmt.Println("  By status")
		for _, s := range types.ValidStatuses {
			n := statuses[string(s)]
			if n == 0 {
				continue
			}
			fmt.Printf("    %s %4d  %s\n", display.StatusBadge(s), n, display.Bar(n, kpis.TotalApplications, 30))
		}
		fmt.Println()

		total := 0
		for _, n := range eventTypes {
			total += n
		}
		fmt.Println("  By event")
		for _, et := range []types.EventType{
			types.EventConfirmation, types.EventUpdate, types.EventAssessment,
			types.EventInterview, types.EventOffer, types.EventRejection,
		} {
			n := eventTypes[string(et)]
			if n == 0 {
				continue
			}
			fmt.Printf("    %s %4d  %s\n", display.EventLabel(et), n, display.Bar(n, total, 30))
		}
		fmt.Println()

		seen := 0
		for _, n := range processed {
			seen += n
		}
		checked := "never"
		if lastChecked != "" {
			checked = display.TimeAgo(lastChecked)
		}
		fmt.Printf("  Total: %d applications · %d emails read (%d not job-related) · searching since %s\n",
			kpis.TotalApplications, seen, processed[types.ClassificationNotJobRelated], checked)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

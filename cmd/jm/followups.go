package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/beads"
	"github.com/daviddao/jobmail/internal/display"
	"github.com/daviddao/jobmail/internal/types"
)

var (
	followupsWithin int
	followupsBeads  bool
)

type followupsOutput struct {
	Due   []types.FollowUp `json:"due"`
	Filed []string         `json:"filed,omitempty"`
}

var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "List applications with a follow-up due",
	Long: `List applications whose latest event carries a follow-up date falling
within the next --within days (overdue ones included). Rejected applications
are left out. With --beads each follow-up is filed as a bd task, once.`,
	Example: `  jm followups
  jm followups --within 0
  jm followups --beads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		due, err := store.FollowUps(cmd.Context(), now.Add(time.Duration(followupsWithin)*24*time.Hour))
		if err != nil {
			return err
		}

		var filed []string
		if followupsBeads && len(due) > 0 {
			if !beads.Available() {
				return fmt.Errorf("bd (beads) CLI not found on PATH")
			}
			open, err := beads.OpenRefs()
			if err != nil {
				return err
			}
			for _, f := range due {
				task := beads.TaskFor(f)
				if open[task.ExternalRef] {
					continue
				}
				issue, err := beads.Create(task)
				if err != nil {
					display.ErrorMsg("file #%d: %v", f.Application.ID, err)
					continue
				}
				logger.WithField("application_id", f.Application.ID).WithField("bead", issue.ID).Debug("Filed follow-up")
				filed = append(filed, issue.ID)
			}
		}

		if jsonOutput {
			if due == nil {
				due = []types.FollowUp{}
			}
			return printJSON(cmd.OutOrStdout(), followupsOutput{Due: due, Filed: filed})
		}

		if len(due) == 0 {
			fmt.Println(display.Dim.Render("Nothing to follow up on."))
			return nil
		}
		display.Header(fmt.Sprintf("Follow-ups (%d)", len(due)))
		for _, f := range due {
			fmt.Println(display.ApplicationLine(f.Application))
			fmt.Printf("       %s %s\n", display.Dim.Render("→"), f.ActionSuggestion)
			fmt.Printf("       %s %s\n", display.Dim.Render("due"), display.DueLabel(f.FollowUpDate, now))
		}
		if len(filed) > 0 {
			fmt.Println()
			display.SuccessMsg("Filed %d beads task(s)", len(filed))
		}
		return nil
	},
}

func init() {
	followupsCmd.Flags().IntVar(&followupsWithin, "within", 7, "Include follow-ups due within this many days")
	followupsCmd.Flags().BoolVar(&followupsBeads, "beads", false, "File each follow-up as a bd task")
	rootCmd.AddCommand(followupsCmd)
}

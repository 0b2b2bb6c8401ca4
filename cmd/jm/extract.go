package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/display"
	"github.com/daviddao/jobmail/internal/mailfile"
	"github.com/daviddao/jobmail/internal/pipeline"
	"github.com/daviddao/jobmail/internal/types"
)

var (
	extractSubject string
	extractFrom    string
	extractBody    string
	extractSnippet string
)

var extractCmd = &cobra.Command{
	Use:   "extract [FILE.eml]",
	Short: "Run the pipeline on one email without saving anything",
	Long: `Debug the pipeline: read a raw .eml file, or build an email from flags,
and print the relevance verdict, classification, extracted fields and
recommended action. Nothing is written to the database.`,
	Example: `  jm extract offer.eml
  jm extract --subject "Interview invitation - Backend Engineer" --from jobs@lever.co
  jm extract confirmation.eml --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := types.EmailRecord{
			MessageID:  "cli",
			Subject:    extractSubject,
			From:       extractFrom,
			Body:       extractBody,
			Snippet:    extractSnippet,
			ReceivedAt: time.Now().UTC(),
		}
		if len(args) == 1 {
			rec, err := mailfile.ReadFile(args[0], time.Now())
			if err != nil {
				return err
			}
			email = rec
		} else if extractSubject == "" && extractBody == "" && extractSnippet == "" {
			return fmt.Errorf("give an .eml file or at least one of --subject, --body, --snippet")
		}

		pl, err := newPipeline()
		if err != nil {
			return err
		}
		out, err := pl.Process(cmd.Context(), email)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), struct {
				Email   types.EmailRecord `json:"email"`
				Outcome *pipeline.Outcome `json:"outcome"`
			}{email, out})
		}
		printOutcome(email, out)
		return nil
	},
}

func printOutcome(e types.EmailRecord, out *pipeline.Outcome) {
	display.Header(display.Truncate(e.Subject, 80))
	fmt.Println(display.Dim.Render("From: " + e.From))
	fmt.Println()

	rel := out.Relevance
	verdict := display.ErrStyle.Render("not job-related")
	if rel.IsJobRelated {
		verdict = display.Success.Render("job-related")
	}
	display.SubHeader("1. Relevance")
	fmt.Printf("   %s  %s\n", verdict, display.Confidence(rel.Confidence))
	fmt.Printf("   %s\n", display.Dim.Render(fmt.Sprintf("%s (domain %.1f, keywords %d)", rel.Reason, rel.DomainScore, rel.KeywordScore)))
	if !out.Relevant() {
		return
	}

	cls := out.Classification
	display.SubHeader("2. Classification")
	fmt.Printf("   %s %s → %s\n", display.EventLabel(cls.EventType), display.Confidence(cls.Confidence), display.StatusBadge(cls.StatusUpdate))
	if len(cls.Indicators) > 0 {
		names := make([]string, len(cls.Indicators))
		for i, ind := range cls.Indicators {
			names[i] = string(ind)
		}
		fmt.Printf("   %s\n", display.Dim.Render("matched: "+strings.Join(names, ", ")))
	}

	ex := out.Extraction
	display.SubHeader("3. Extraction")
	field := func(name, value string) {
		if value == "" {
			value = display.Dim.Render("-")
		}
		fmt.Printf("   %-10s %s\n", name, value)
	}
	field("company", ex.Company)
	field("role", ex.RoleTitle)
	field("req id", ex.ReqID)
	field("platform", ex.Platform)
	field("portal", ex.PortalLink)
	field("location", ex.Location)
	field("dates", strings.Join(ex.KeyDates, ", "))

	rec := out.Recommendation
	display.SubHeader("4. Action")
	fmt.Printf("   %s\n", rec.ActionSuggestion)
	if rec.FollowUpDate != "" {
		fmt.Printf("   %s %s\n", display.Dim.Render("follow up"), rec.FollowUpDate)
	}
}

func init() {
	extractCmd.Flags().StringVar(&extractSubject, "subject", "", "Email subject")
	extractCmd.Flags().StringVar(&extractFrom, "from", "", "Sender, e.g. 'Acme <jobs@acme.com>'")
	extractCmd.Flags().StringVar(&extractBody, "body", "", "Plain-text body")
	extractCmd.Flags().StringVar(&extractSnippet, "snippet", "", "Preview snippet")
	rootCmd.AddCommand(extractCmd)
}

// Package display provides terminal formatting for jobmail output.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/daviddao/jobmail/internal/types"
)

var (
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	OfferStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a")).Bold(true)
	InterviewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb"))
	ProgressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	RejectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	AppliedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

func statusStyle(status types.Status) (lipgloss.Style, string) {
	switch status {
	case types.StatusOffer:
		return OfferStyle, "★"
	case types.StatusInterview:
		return InterviewStyle, "●"
	case types.StatusAssessment, types.StatusInReview:
		return ProgressStyle, "◐"
	case types.StatusRejected:
		return RejectedStyle, "✗"
	case types.StatusApplied:
		return AppliedStyle, "○"
	default:
		return Dim, "·"
	}
}

// StatusDot returns a colored marker for an application status.
func StatusDot(status types.Status) string {
	style, mark := statusStyle(status)
	return style.Render(mark)
}

// StatusLabel returns a fixed-width styled status label.
func StatusLabel(status types.Status) string {
	style, _ := statusStyle(status)
	return style.Render(fmt.Sprintf("%-10s", strings.ToUpper(string(status))))
}

// StatusBadge combines the dot and label.
func StatusBadge(status types.Status) string {
	return StatusDot(status) + " " + StatusLabel(status)
}

// EventLabel styles an event type with the color of the status it implies.
func EventLabel(et types.EventType) string {
	style, _ := statusStyle(et.Status())
	return style.Render(fmt.Sprintf("%-12s", string(et)))
}

// Confidence renders a 0-1 score as a percentage, dimmed when low.
func Confidence(c float64) string {
	s := fmt.Sprintf("%3.0f%%", c*100)
	if c < 0.5 {
		return Dim.Render(s)
	}
	return s
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.000000Z",
	time.RFC3339Nano,
	types.ISOLayout,
	"2006-01-02 15:04:05",
}

// ParseTime accepts the timestamp layouts jobmail stores.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimeAgo formats a stored timestamp as a relative time.
func TimeAgo(isoDate string) string {
	return timeAgo(isoDate, time.Now())
}

func timeAgo(isoDate string, now time.Time) string {
	if isoDate == "" {
		return ""
	}
	t, ok := ParseTime(isoDate)
	if !ok {
		return isoDate[:min(10, len(isoDate))]
	}

	d := now.Sub(t)
	switch {
	case d < 0:
		return "in " + Until(isoDate, now)
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// Until describes how far a future timestamp is from now.
func Until(isoDate string, now time.Time) string {
	t, ok := ParseTime(isoDate)
	if !ok {
		return isoDate
	}
	d := t.Sub(now)
	switch {
	case d <= 0:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes())+1)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// DueLabel renders a follow-up date, red when overdue.
func DueLabel(followUp string, now time.Time) string {
	t, ok := ParseTime(followUp)
	if !ok {
		return followUp
	}
	date := t.Format("Jan 2")
	if !t.After(now) {
		return ErrStyle.Render(date + " (overdue)")
	}
	return date + Dim.Render(" (in "+Until(followUp, now)+")")
}

// Truncate shortens a string to maxLen runes, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(Success.Render("✓") + " " + msg)
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+msg)
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}

// SubHeader prints a dim subsection label.
func SubHeader(title string) {
	fmt.Println(Muted.Render(title))
}

// ApplicationLine renders one application as a list row.
func ApplicationLine(a types.Application) string {
	title := Bold.Render(Truncate(a.Company, 28)) + Muted.Render(" · ") + Truncate(a.RoleTitle, 40)
	meta := Dim.Render(TimeAgo(a.LastUpdated))
	if a.Platform != "" {
		meta = Dim.Render(a.Platform+" · ") + meta
	}
	return fmt.Sprintf("%s %s  %s  %s", Muted.Render(fmt.Sprintf("#%-4d", a.ID)), StatusBadge(a.Status), title, meta)
}

// EventTree prints an event in a tree-style timeline.
// connector is one of "┌─", "├─", "└─".
func EventTree(connector string, ev types.Event) {
	fmt.Printf("  %s %s %s  ·  %s\n",
		Muted.Render(connector), EventLabel(ev.EventType), Confidence(ev.Confidence), Dim.Render(TimeAgo(ev.EventTime)))

	prefix := "  │  "
	if connector == "└─" {
		prefix = "     "
	}
	if ev.Subject != "" {
		fmt.Printf("%s%s\n", Muted.Render(prefix), Truncate(ev.Subject, 80))
	}
	if ev.ActionSuggestion != "" {
		fmt.Printf("%s%s %s\n", Muted.Render(prefix), Dim.Render("→"), Truncate(ev.ActionSuggestion, 80))
	}
	if ev.FollowUpDate != "" {
		fmt.Printf("%s%s %s\n", Muted.Render(prefix), Dim.Render("follow up"), DueLabel(ev.FollowUpDate, time.Now()))
	}
}

// Connector picks the tree connector for item i of n.
func Connector(i, n int) string {
	switch {
	case n == 1 || i == n-1:
		return "└─"
	case i == 0:
		return "┌─"
	default:
		return "├─"
	}
}

// Bar renders a proportional bar of at most width cells.
func Bar(n, total, width int) string {
	if total <= 0 || n <= 0 {
		return ""
	}
	cells := max(1, n*width/total)
	return Muted.Render(strings.Repeat("█", cells))
}

// Package beads files job follow-ups as tasks in the bd (beads) CLI.
//
// jobmail keeps application state in its own database; beads only receives
// the follow-up reminders. This package shells out to the bd binary and
// parses its JSON output.
package beads

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/daviddao/jobmail/internal/types"
)

// Labels attached to every follow-up task.
var Labels = []string{"job", "follow-up"}

// Issue is the subset of beads issue fields jobmail reads back.
type Issue struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    int    `json:"priority"`
	ExternalRef string `json:"external_ref,omitempty"`
}

// Task is a follow-up ready to be filed.
type Task struct {
	Title       string
	Description string
	Priority    string
	ExternalRef string
	Due         string
}

// runner executes bd; tests swap it out.
var runner = run

// Available checks if the bd binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("bd")
	return err == nil
}

// Priority maps an application status to a beads priority.
func Priority(status types.Status) string {
	switch status {
	case types.StatusOffer, types.StatusInterview:
		return "1"
	case types.StatusAssessment:
		return "2"
	default:
		return "3"
	}
}

// ExternalRef builds the external_ref for an application.
func ExternalRef(appID int64) string {
	return "jm:app:" + strconv.FormatInt(appID, 10)
}

// TaskFor turns a due follow-up into a beads task.
func TaskFor(f types.FollowUp) Task {
	a := f.Application
	desc := []string{f.ActionSuggestion, "", "Status: " + string(a.Status)}
	if a.Platform != "" {
		desc = append(desc, "Platform: "+a.Platform)
	}
	if a.PortalLink != "" {
		desc = append(desc, "Portal: "+a.PortalLink)
	}
	due := f.FollowUpDate
	if len(due) > 10 {
		due = due[:10]
	}
	return Task{
		Title:       fmt.Sprintf("Follow up: %s · %s", a.Company, a.RoleTitle),
		Description: strings.Join(desc, "\n"),
		Priority:    Priority(a.Status),
		ExternalRef: ExternalRef(a.ID),
		Due:         due,
	}
}

// Create files a task and returns the created issue.
func Create(t Task) (*Issue, error) {
	args := []string{"create", t.Title,
		"-p", t.Priority,
		"-t", "task",
		"--external-ref", t.ExternalRef,
		"-l", strings.Join(Labels, ","),
		"--json", "--silent",
	}
	if t.Description != "" {
		args = append(args, "-d", t.Description)
	}
	if t.Due != "" {
		args = append(args, "--notes", "Due "+t.Due)
	}

	out, err := runner(args...)
	if err != nil {
		return nil, err
	}
	var issue Issue
	if err := json.Unmarshal(out, &issue); err != nil {
		return nil, fmt.Errorf("parse bd create output: %w", err)
	}
	return &issue, nil
}

// List returns beads issues with the given labels and status.
func List(labels []string, status string) ([]Issue, error) {
	args := []string{"list", "--json"}
	if len(labels) > 0 {
		args = append(args, "-l", strings.Join(labels, ","))
	}
	if status != "" {
		args = append(args, "-s", status)
	}

	out, err := runner(args...)
	if err != nil {
		return nil, err
	}
	var issues []Issue
	if err := json.Unmarshal(out, &issues); err != nil {
		return nil, fmt.Errorf("parse bd list output: %w", err)
	}
	return issues, nil
}

// OpenRefs returns the external refs of open follow-up tasks.
func OpenRefs() (map[string]bool, error) {
	issues, err := List(Labels, "open")
	if err != nil {
		return nil, err
	}
	refs := make(map[string]bool, len(issues))
	for _, is := range issues {
		if is.ExternalRef != "" {
			refs[is.ExternalRef] = true
		}
	}
	return refs, nil
}

// discoverBeadsDB walks up from cwd looking for a .beads/ directory
// and returns the path to .beads/beads.db, or empty string if not found.
func discoverBeadsDB() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".beads", "beads.db")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// run executes the bd CLI and returns stdout.
func run(args ...string) ([]byte, error) {
	if dbPath := discoverBeadsDB(); dbPath != "" {
		args = append([]string{"--db", dbPath}, args...)
	}

	cmd := exec.Command("bd", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			return nil, fmt.Errorf("bd %s: %s", args[0], stderr)
		}
		return nil, fmt.Errorf("bd %s: %w", args[0], err)
	}
	return out, nil
}

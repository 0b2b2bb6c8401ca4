// Package db provides SQLite storage for jobmail.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daviddao/jobmail/internal/types"
)

// Layout of the per-project database.
const (
	DirName  = ".jobmail"
	FileName = "jobs.db"
)

// TimeFormat is the fixed-width UTC layout used for stored timestamps so
// that string order matches time order.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// ErrNotFound is returned when a record addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for jobmail operations.
type DB struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open opens (or creates) a jobmail database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer keeps the single-poller model honest.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath, now: time.Now}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// SetClock overrides the time source used for stored timestamps.
func (d *DB) SetClock(now func() time.Time) {
	d.now = now
}

// Now returns the current time in TimeFormat.
func (d *DB) Now() string {
	return FormatTime(d.now())
}

// FormatTime renders t in TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses a stored timestamp, accepting a few older layouts.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{TimeFormat, time.RFC3339Nano, types.ISOLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Reset drops every table and recreates the schema.
func (d *DB) Reset(ctx context.Context) error {
	if _, err := d.conn.ExecContext(ctx, dropSchema); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	if _, err := d.conn.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// DiscoverDB finds the jobmail database by walking up from cwd.
// Returns the path to .jobmail/jobs.db or empty string if not found.
func DiscoverDB() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, DirName, FileName)
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

// FindProjectRoot walks up from cwd looking for a .git directory.
func FindProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// --- Application operations ---

const applicationColumns = `id, company, role_title, platform, portal_link, status, first_seen_date, last_updated, notes`

// ApplicationsByPortalLink returns applications with exactly this link, most recently updated first.
func (d *DB) ApplicationsByPortalLink(ctx context.Context, link string) ([]types.Application, error) {
	return d.queryApplications(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE portal_link = ?
		ORDER BY last_updated DESC, id DESC`, link)
}

// ApplicationsByCompanyRole returns applications whose company and role match
// case-insensitively, most recently updated first.
func (d *DB) ApplicationsByCompanyRole(ctx context.Context, company, role string) ([]types.Application, error) {
	return d.queryApplications(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE LOWER(company) = LOWER(?) AND LOWER(role_title) = LOWER(?)
		ORDER BY last_updated DESC, id DESC`, company, role)
}

// CreateApplication inserts an application and returns its id. Missing
// status and dates are filled in.
func (d *DB) CreateApplication(ctx context.Context, app *types.Application) (int64, error) {
	now := d.Now()
	if app.Status == "" {
		app.Status = types.StatusApplied
	}
	if app.FirstSeenDate == "" {
		app.FirstSeenDate = now
	}
	if app.LastUpdated == "" {
		app.LastUpdated = now
	}
	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO applications (company, role_title, platform, portal_link, status, first_seen_date, last_updated, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		app.Company, app.RoleTitle, nullStr(app.Platform), nullStr(app.PortalLink),
		string(app.Status), app.FirstSeenDate, app.LastUpdated, nullStr(app.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("insert application: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	app.ID = id
	return id, nil
}

// GetApplication returns an application by id, or nil if it does not exist.
func (d *DB) GetApplication(ctx context.Context, id int64) (*types.Application, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ListApplications lists applications, optionally filtered by status, most
// recently updated first. limit <= 0 means no limit.
func (d *DB) ListApplications(ctx context.Context, status string, limit int) ([]types.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY last_updated DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return d.queryApplications(ctx, query, args...)
}

// UpdateApplicationStatus sets the status and bumps last_updated. A non-empty
// note replaces the stored notes.
func (d *DB) UpdateApplicationStatus(ctx context.Context, id int64, status types.Status, notes string) error {
	return updateStatus(ctx, d.conn, id, status, notes, d.Now())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateStatus(ctx context.Context, ex execer, id int64, status types.Status, notes, now string) error {
	var (
		res sql.Result
		err error
	)
	if notes != "" {
		res, err = ex.ExecContext(ctx,
			`UPDATE applications SET status = ?, notes = ?, last_updated = ? WHERE id = ?`,
			string(status), notes, now, id)
	} else {
		res, err = ex.ExecContext(ctx,
			`UPDATE applications SET status = ?, last_updated = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return fmt.Errorf("update application %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return nil
}

// --- Event operations ---

const eventColumns = `id, application_id, event_type, event_time, message_id, subject, from_addr,
	confidence, extracted_json, action_suggestion, follow_up_date, created_at`

// CreateEvent appends an event. It returns 0 without error when the same
// message was already recorded for the application.
func (d *DB) CreateEvent(ctx context.Context, ev *types.Event) (int64, error) {
	return insertEvent(ctx, d.conn, ev, d.Now())
}

func insertEvent(ctx context.Context, ex execer, ev *types.Event, now string) (int64, error) {
	extracted, err := json.Marshal(ev.Extracted)
	if err != nil {
		return 0, fmt.Errorf("encode extracted fields: %w", err)
	}
	if ev.CreatedAt == "" {
		ev.CreatedAt = now
	}
	if ev.EventTime == "" {
		ev.EventTime = now
	}
	res, err := ex.ExecContext(ctx, `
		INSERT INTO events (application_id, event_type, event_time, message_id, subject, from_addr,
			confidence, extracted_json, action_suggestion, follow_up_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id, application_id) DO NOTHING`,
		ev.ApplicationID, string(ev.EventType), ev.EventTime, ev.MessageID,
		nullStr(ev.Subject), nullStr(ev.From), ev.Confidence, string(extracted),
		nullStr(ev.ActionSuggestion), nullStr(ev.FollowUpDate), ev.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	ev.ID = id
	return id, nil
}

// EventsForApplication returns the timeline of an application, newest first.
func (d *DB) EventsForApplication(ctx context.Context, appID int64) ([]types.Event, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE application_id = ?
		ORDER BY event_time DESC, id DESC`, appID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// RecentEvent is an event joined with its application.
type RecentEvent struct {
	types.Event
	Company           string       `json:"company"`
	RoleTitle         string       `json:"role_title"`
	ApplicationStatus types.Status `json:"application_status"`
}

// RecentEvents returns the latest events across all applications.
func (d *DB) RecentEvents(ctx context.Context, limit int) ([]RecentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT e.id, e.application_id, e.event_type, e.event_time, e.message_id, e.subject, e.from_addr,
			e.confidence, e.extracted_json, e.action_suggestion, e.follow_up_date, e.created_at,
			a.company, a.role_title, a.status
		FROM events e
		JOIN applications a ON a.id = e.application_id
		ORDER BY e.event_time DESC, e.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var out []RecentEvent
	for rows.Next() {
		var (
			re     RecentEvent
			status string
		)
		ev, err := scanEvent(rows, &re.Company, &re.RoleTitle, &status)
		if err != nil {
			return nil, err
		}
		re.Event = *ev
		re.ApplicationStatus = types.Status(status)
		out = append(out, re)
	}
	return out, rows.Err()
}

// RecordEvent stores an event, applies its status to the application and
// marks the email processed, all in one transaction.
func (d *DB) RecordEvent(ctx context.Context, ev *types.Event, status types.Status, processed *types.ProcessedEmail) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := d.Now()
	if _, err := insertEvent(ctx, tx, ev, now); err != nil {
		return err
	}
	if err := updateStatus(ctx, tx, ev.ApplicationID, status, "", now); err != nil {
		return err
	}
	if err := markProcessed(ctx, tx, processed, now); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Processed-email ledger ---

// IsProcessed reports whether a message id is in the ledger.
func (d *DB) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, `SELECT 1 FROM emails_processed WHERE message_id = ?`, messageID).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return true, nil
}

// MarkProcessed records a message in the ledger, replacing any earlier entry.
func (d *DB) MarkProcessed(ctx context.Context, p *types.ProcessedEmail) error {
	return markProcessed(ctx, d.conn, p, d.Now())
}

func markProcessed(ctx context.Context, ex execer, p *types.ProcessedEmail, now string) error {
	if p.ProcessedAt == "" {
		p.ProcessedAt = now
	}
	if p.ReceivedAt == "" {
		p.ReceivedAt = now
	}
	_, err := ex.ExecContext(ctx, `
		INSERT OR REPLACE INTO emails_processed
			(message_id, thread_id, received_at, from_domain, subject, classification, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.MessageID, nullStr(p.ThreadID), p.ReceivedAt, nullStr(p.FromDomain),
		nullStr(p.Subject), p.Classification, p.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", p.MessageID, err)
	}
	return nil
}

// ProcessedCounts returns ledger entries per classification.
func (d *DB) ProcessedCounts(ctx context.Context) (map[string]int, error) {
	return d.countBy(ctx, `SELECT classification, COUNT(*) FROM emails_processed GROUP BY classification`)
}

// --- System state ---

// GetState returns a stored value, or "" when the key is unset.
func (d *DB) GetState(ctx context.Context, key string) (string, error) {
	var v string
	err := d.conn.QueryRowContext(ctx, `SELECT value FROM system_state WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get state %s: %w", key, err)
	}
	return v, nil
}

// SetState stores a value.
func (d *DB) SetState(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO system_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, d.Now())
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

// --- Reporting ---

// StatusCounts returns the number of applications per status.
func (d *DB) StatusCounts(ctx context.Context) (map[string]int, error) {
	return d.countBy(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
}

// EventTypeCounts returns the number of events per type.
func (d *DB) EventTypeCounts(ctx context.Context) (map[string]int, error) {
	return d.countBy(ctx, `SELECT event_type, COUNT(*) FROM events GROUP BY event_type`)
}

// KPIs summarizes the job search.
type KPIs struct {
	TotalApplications  int     `json:"total_applications"`
	RecentApplications int     `json:"recent_applications"`
	Active             int     `json:"active"`
	Interviews         int     `json:"interviews"`
	Rejections         int     `json:"rejections"`
	Offers             int     `json:"offers"`
	ResponseRate       float64 `json:"response_rate"`
}

// RecentWindow is the period counted as recent by KPIs.
const RecentWindow = 30 * 24 * time.Hour

// KPIs computes the dashboard numbers as of now.
func (d *DB) KPIs(ctx context.Context, now time.Time) (*KPIs, error) {
	counts, err := d.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	k := &KPIs{}
	for status, n := range counts {
		k.TotalApplications += n
		for _, a := range types.ActiveStatuses {
			if string(a) == status {
				k.Active += n
			}
		}
	}
	k.Interviews = counts[string(types.StatusInterview)]
	k.Rejections = counts[string(types.StatusRejected)]
	k.Offers = counts[string(types.StatusOffer)]

	if err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE first_seen_date > ?`,
		FormatTime(now.Add(-RecentWindow))).Scan(&k.RecentApplications); err != nil {
		return nil, fmt.Errorf("count recent applications: %w", err)
	}

	var responses int
	if err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE event_type != ?`,
		string(types.EventConfirmation)).Scan(&responses); err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	k.ResponseRate = float64(responses) / float64(max(k.TotalApplications, 1)) * 100
	return k, nil
}

// FollowUps returns applications whose latest event has a follow-up date on
// or before the cutoff, excluding rejected ones, soonest first.
func (d *DB) FollowUps(ctx context.Context, before time.Time) ([]types.FollowUp, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT a.id, a.company, a.role_title, a.platform, a.portal_link, a.status,
			a.first_seen_date, a.last_updated, a.notes,
			e.event_type, e.action_suggestion, e.follow_up_date
		FROM applications a
		JOIN events e ON e.id = (
			SELECT e2.id FROM events e2
			WHERE e2.application_id = a.id
			ORDER BY e2.event_time DESC, e2.id DESC
			LIMIT 1)
		WHERE a.status != ?
			AND e.follow_up_date IS NOT NULL AND e.follow_up_date != ''
			AND e.follow_up_date <= ?
		ORDER BY e.follow_up_date ASC, a.id ASC`,
		string(types.StatusRejected), before.UTC().Format(types.ISOLayout))
	if err != nil {
		return nil, fmt.Errorf("query follow-ups: %w", err)
	}
	defer rows.Close()

	var out []types.FollowUp
	for rows.Next() {
		var (
			f                             types.FollowUp
			platform, link, notes, action sql.NullString
			status, eventType             string
		)
		if err := rows.Scan(&f.Application.ID, &f.Application.Company, &f.Application.RoleTitle,
			&platform, &link, &status, &f.Application.FirstSeenDate, &f.Application.LastUpdated, &notes,
			&eventType, &action, &f.FollowUpDate); err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		f.Application.Platform = platform.String
		f.Application.PortalLink = link.String
		f.Application.Notes = notes.String
		f.Application.Status = types.Status(status)
		f.EventType = types.EventType(eventType)
		f.ActionSuggestion = action.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// --- Helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func (d *DB) queryApplications(ctx context.Context, query string, args ...any) ([]types.Application, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func scanApplication(s scanner) (*types.Application, error) {
	var (
		app                   types.Application
		platform, link, notes sql.NullString
		status                string
	)
	if err := s.Scan(&app.ID, &app.Company, &app.RoleTitle, &platform, &link,
		&status, &app.FirstSeenDate, &app.LastUpdated, &notes); err != nil {
		return nil, err
	}
	app.Platform = platform.String
	app.PortalLink = link.String
	app.Notes = notes.String
	app.Status = types.Status(status)
	return &app, nil
}

// scanEvent scans the eventColumns followed by any extra destinations.
func scanEvent(s scanner, extra ...any) (*types.Event, error) {
	var (
		ev                                         types.Event
		eventType                                  string
		subject, from, extracted, action, followUp sql.NullString
	)
	dest := []any{&ev.ID, &ev.ApplicationID, &eventType, &ev.EventTime, &ev.MessageID,
		&subject, &from, &ev.Confidence, &extracted, &action, &followUp, &ev.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	ev.EventType = types.EventType(eventType)
	ev.Subject = subject.String
	ev.From = from.String
	ev.ActionSuggestion = action.String
	ev.FollowUpDate = followUp.String
	if extracted.Valid && extracted.String != "" {
		if err := json.Unmarshal([]byte(extracted.String), &ev.Extracted); err != nil {
			return nil, fmt.Errorf("decode extracted fields of event %d: %w", ev.ID, err)
		}
	}
	if ev.Extracted.KeyDates == nil {
		ev.Extracted.KeyDates = []string{}
	}
	return &ev, nil
}

func (d *DB) countBy(ctx context.Context, query string) (map[string]int, error) {
	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// nullStr returns a sql.NullString that is NULL for empty strings.
func nullStr(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

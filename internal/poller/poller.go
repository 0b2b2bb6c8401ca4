// Package poller fetches new job mail on an interval, runs it through the
// pipeline and records the results.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/daviddao/jobmail/internal/db"
	"github.com/daviddao/jobmail/internal/pipeline"
	"github.com/daviddao/jobmail/internal/platforms"
	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

// LastCheckedKey is the system_state key holding the last poll start time.
const LastCheckedKey = "last_checked_iso"

// SubjectQuery catches job mail from senders outside the platform table.
const SubjectQuery = `subject:("application" OR "interview" OR "assessment" OR "coding challenge")`

// DefaultQueries are the Gmail searches run every cycle.
func DefaultQueries() []string {
	return append(platforms.SenderQueries(4), SubjectQuery)
}

// Source lists and loads messages.
type Source interface {
	ListIDs(ctx context.Context, query string, maxResults int64) ([]string, error)
	Fetch(ctx context.Context, id string) (types.EmailRecord, error)
}

// Store is the persistence the poller needs beyond the resolver's.
type Store interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, p *types.ProcessedEmail) error
	RecordEvent(ctx context.Context, ev *types.Event, status types.Status, processed *types.ProcessedEmail) error
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error
}

var _ Store = (*db.DB)(nil)

// Options tune a poller. Zero values take defaults.
type Options struct {
	Queries    []string
	MaxResults int64
	Lookback   time.Duration
}

// Poller runs polling cycles.
type Poller struct {
	src      Source
	store    Store
	pipeline *pipeline.Pipeline
	opts     Options
	log      logrus.FieldLogger
	now      func() time.Time
}

// New creates a poller.
func New(src Source, store Store, p *pipeline.Pipeline, opts Options, log logrus.FieldLogger) *Poller {
	if len(opts.Queries) == 0 {
		opts.Queries = DefaultQueries()
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 100
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 30 * 24 * time.Hour
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller{src: src, store: store, pipeline: p, opts: opts, log: log, now: time.Now}
}

// PollOnce runs a single cycle. Per-email failures are logged and counted;
// those emails stay unmarked and the last-checked time does not advance, so
// the next cycle searches the same window and retries them. An error is
// returned only when the cycle as a whole could not run.
func (p *Poller) PollOnce(ctx context.Context) (*types.PollSummary, error) {
	started := p.now().UTC()
	sum := &types.PollSummary{RunID: uuid.NewString()}
	log := p.log.WithField("run_id", sum.RunID)

	since, err := p.since(ctx, started)
	if err != nil {
		return nil, err
	}
	log.WithField("since", since.Format(time.RFC3339)).Info("Starting polling cycle")

	ids, err := p.search(ctx, log, since)
	if err != nil {
		return nil, err
	}
	sum.Found = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		done, err := p.store.IsProcessed(ctx, id)
		if err != nil {
			return sum, err
		}
		if done {
			continue
		}
		sum.New++

		mlog := log.WithField("message_id", id)
		if err := p.processID(ctx, mlog, id, sum); err != nil {
			sum.Failed++
			mlog.WithError(err).Error("Error processing message")
		}
	}

	// Failed emails must stay inside the next search window.
	checkpoint := started
	if sum.Failed > 0 {
		checkpoint = since
		log.WithField("failed", sum.Failed).Warn("Keeping search window for retry")
	}
	sum.LastChecked = checkpoint.Format(time.RFC3339)
	if err := p.store.SetState(ctx, LastCheckedKey, sum.LastChecked); err != nil {
		return sum, err
	}

	log.WithFields(logrus.Fields{
		"found":      sum.Found,
		"new":        sum.New,
		"processed":  sum.Processed,
		"irrelevant": sum.Irrelevant,
		"failed":     sum.Failed,
		"created":    sum.Created,
	}).Info("Polling cycle complete")
	return sum, nil
}

// Run polls until ctx is cancelled, waiting interval between cycles.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	p.log.WithField("interval", interval.String()).Info("Starting email poller")
	for {
		if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.log.WithError(err).Error("Polling cycle failed")
		}
		select {
		case <-ctx.Done():
			p.log.Info("Poller stopped")
			return nil
		case <-time.After(interval):
		}
	}
}

func (p *Poller) since(ctx context.Context, now time.Time) (time.Time, error) {
	v, err := p.store.GetState(ctx, LastCheckedKey)
	if err != nil {
		return time.Time{}, err
	}
	if v != "" {
		for _, layout := range []string{time.RFC3339Nano, types.ISOLayout, "2006-01-02T15:04:05.999999"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		p.log.WithField("value", v).Warn("Ignoring unparseable last-checked time")
	}
	return now.Add(-p.opts.Lookback), nil
}

// search runs every query and returns the union of ids in first-seen order.
// It fails only if every query fails.
func (p *Poller) search(ctx context.Context, log logrus.FieldLogger, since time.Time) ([]string, error) {
	after := " after:" + since.Format("2006/01/02")
	seen := make(map[string]bool)
	var (
		ids  []string
		errs []error
	)
	for _, q := range p.opts.Queries {
		found, err := p.src.ListIDs(ctx, q+after, p.opts.MaxResults)
		if err != nil {
			log.WithError(err).WithField("query", q).Warn("Gmail query failed")
			errs = append(errs, err)
			continue
		}
		for _, id := range found {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(errs) == len(p.opts.Queries) {
		return nil, fmt.Errorf("all queries failed: %w", errors.Join(errs...))
	}
	return ids, nil
}

func (p *Poller) processID(ctx context.Context, log logrus.FieldLogger, id string, sum *types.PollSummary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	rec, err := p.src.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if rec.MessageID == "" {
		rec.MessageID = id
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = p.now()
	}
	return p.process(ctx, log, rec, sum)
}

func (p *Poller) process(ctx context.Context, log logrus.FieldLogger, rec types.EmailRecord, sum *types.PollSummary) error {
	processed := &types.ProcessedEmail{
		MessageID:  rec.MessageID,
		ThreadID:   rec.ThreadID,
		ReceivedAt: db.FormatTime(rec.ReceivedAt),
		FromDomain: textclean.EmailDomain(rec.From),
		Subject:    rec.Subject,
	}

	out, err := p.pipeline.Process(ctx, rec)
	if err != nil {
		return err
	}
	if !out.Relevant() {
		processed.Classification = types.ClassificationNotJobRelated
		if err := p.store.MarkProcessed(ctx, processed); err != nil {
			return err
		}
		log.WithField("reason", out.Relevance.Reason).Debug("Skipping, not job-related")
		sum.Irrelevant++
		return nil
	}
	if out.Resolution == nil {
		return errors.New("pipeline has no resolver")
	}

	cls := out.Classification
	processed.Classification = string(cls.EventType)
	ev := &types.Event{
		ApplicationID:    out.Resolution.ApplicationID,
		EventType:        cls.EventType,
		EventTime:        db.FormatTime(rec.ReceivedAt),
		MessageID:        rec.MessageID,
		Subject:          rec.Subject,
		From:             rec.From,
		Confidence:       cls.Confidence,
		Extracted:        *out.Extraction,
		ActionSuggestion: out.Recommendation.ActionSuggestion,
		FollowUpDate:     out.Recommendation.FollowUpDate,
	}
	if err := p.store.RecordEvent(ctx, ev, cls.StatusUpdate, processed); err != nil {
		return err
	}

	sum.Processed++
	if out.Resolution.IsNew {
		sum.Created++
	}
	log.WithFields(logrus.Fields{
		"application_id": ev.ApplicationID,
		"event_type":     ev.EventType,
		"match_method":   out.Resolution.MatchMethod,
	}).Infof("Processed message for %s - %s", out.Extraction.Company, out.Extraction.RoleTitle)
	return nil
}

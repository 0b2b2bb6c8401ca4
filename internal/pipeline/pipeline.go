// Package pipeline chains the filter, classifier, extractor, resolver and
// recommender over a single email.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/daviddao/jobmail/internal/action"
	"github.com/daviddao/jobmail/internal/classify"
	"github.com/daviddao/jobmail/internal/extract"
	"github.com/daviddao/jobmail/internal/relevance"
	"github.com/daviddao/jobmail/internal/resolve"
	"github.com/daviddao/jobmail/internal/types"
)

// Outcome collects every stage result for one email. Only Relevance is set
// when the email is not job-related.
type Outcome struct {
	Relevance      types.RelevanceResult       `json:"relevance"`
	Classification *types.ClassificationResult `json:"classification,omitempty"`
	Extraction     *types.ExtractionResult     `json:"extraction,omitempty"`
	Resolution     *types.Resolution           `json:"resolution,omitempty"`
	Recommendation *types.Recommendation       `json:"recommendation,omitempty"`
}

// Relevant reports whether the email passed the filter.
func (o *Outcome) Relevant() bool {
	return o.Relevance.IsJobRelated
}

// Pipeline holds the configured stages. Resolver may be nil for dry runs, in
// which case Process stops after extraction and recommendation.
type Pipeline struct {
	Filter      *relevance.Filter
	Classifier  *classify.Classifier
	Extractor   *extract.Extractor
	Resolver    *resolve.Resolver
	Recommender *action.Recommender
	Log         logrus.FieldLogger
}

// New builds a pipeline from default stages and the given resolver.
func New(resolver *resolve.Resolver, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		Filter:      relevance.Default(),
		Classifier:  classify.Default(),
		Extractor:   extract.Default(),
		Resolver:    resolver,
		Recommender: action.New(nil),
		Log:         log,
	}
}

// Process runs the stages in order. The returned error comes only from the
// resolver's store.
func (p *Pipeline) Process(ctx context.Context, e types.EmailRecord) (*Outcome, error) {
	log := p.Log.WithField("message_id", e.MessageID)

	out := &Outcome{Relevance: p.Filter.Check(e)}
	if !out.Relevant() {
		log.WithField("reason", out.Relevance.Reason).Debug("Not job-related")
		return out, nil
	}
	log.WithField("reason", out.Relevance.Reason).Debug("Job-related")

	cls := p.Classifier.Classify(e)
	out.Classification = &cls
	log.WithFields(logrus.Fields{
		"event_type": cls.EventType,
		"confidence": cls.Confidence,
	}).Debug("Classified")

	ex := p.Extractor.Extract(e)
	out.Extraction = &ex
	log.WithFields(logrus.Fields{
		"company": ex.Company,
		"role":    ex.RoleTitle,
	}).Debug("Extracted")

	if p.Resolver != nil {
		res, err := p.Resolver.Resolve(ctx, ex)
		if err != nil {
			return out, fmt.Errorf("resolve %s: %w", e.MessageID, err)
		}
		out.Resolution = &res
		log.WithFields(logrus.Fields{
			"application_id": res.ApplicationID,
			"match_method":   res.MatchMethod,
			"is_new":         res.IsNew,
		}).Debug("Resolved")
	}

	rec := p.Recommender.Recommend(cls.EventType, ex)
	out.Recommendation = &rec
	return out, nil
}

// Package resolve links an extraction to an existing application or creates one.
package resolve

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/daviddao/jobmail/internal/types"
)

// DefaultThreshold is the minimum combined similarity for a fuzzy match.
const DefaultThreshold = 80.0

// Store is the slice of persistence the resolver needs. Lookups return
// candidates ordered by most recently updated first.
type Store interface {
	ApplicationsByPortalLink(ctx context.Context, link string) ([]types.Application, error)
	ApplicationsByCompanyRole(ctx context.Context, company, role string) ([]types.Application, error)
	CreateApplication(ctx context.Context, app *types.Application) (int64, error)
}

// Resolver applies the matching policy: portal link, then fuzzy company and
// role, then a new record.
type Resolver struct {
	store     Store
	sim       Similarity
	threshold float64
	log       logrus.FieldLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSimilarity swaps the string similarity strategy.
func WithSimilarity(s Similarity) Option {
	return func(r *Resolver) { r.sim = s }
}

// WithThreshold sets the acceptance threshold (0-100).
func WithThreshold(t float64) Option {
	return func(r *Resolver) { r.threshold = t }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Resolver) { r.log = l }
}

// New returns a resolver over store.
func New(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		sim:       LevenshteinRatio,
		threshold: DefaultThreshold,
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve finds or creates the application for an extraction. Only store
// errors are returned.
func (r *Resolver) Resolve(ctx context.Context, ex types.ExtractionResult) (types.Resolution, error) {
	company, role := ex.Company, ex.RoleTitle
	if company == "" {
		company = types.UnknownCompany
	}
	if role == "" {
		role = types.UnknownRole
	}

	if ex.PortalLink != "" {
		apps, err := r.store.ApplicationsByPortalLink(ctx, ex.PortalLink)
		if err != nil {
			return types.Resolution{}, fmt.Errorf("find by portal link: %w", err)
		}
		if len(apps) > 0 {
			r.log.WithField("application_id", apps[0].ID).Debug("Matched application by portal link")
			return types.Resolution{ApplicationID: apps[0].ID, MatchMethod: types.MatchPortalLink}, nil
		}
	}

	apps, err := r.store.ApplicationsByCompanyRole(ctx, company, role)
	if err != nil {
		return types.Resolution{}, fmt.Errorf("find by company and role: %w", err)
	}
	if best, score, ok := bestMatch(r.sim, company, role, apps); ok && score >= r.threshold {
		method := fmt.Sprintf("%s%.0f", types.MatchFuzzyPrefix, score)
		r.log.WithFields(logrus.Fields{
			"application_id": best.ID,
			"score":          score,
		}).Debug("Matched application by company and role")
		return types.Resolution{ApplicationID: best.ID, MatchMethod: method}, nil
	}

	app := &types.Application{
		Company:    company,
		RoleTitle:  role,
		Platform:   ex.Platform,
		PortalLink: ex.PortalLink,
		Status:     types.StatusApplied,
	}
	id, err := r.store.CreateApplication(ctx, app)
	if err != nil {
		return types.Resolution{}, fmt.Errorf("create application: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"application_id": id,
		"company":        company,
		"role":           role,
	}).Info("Created application")
	return types.Resolution{ApplicationID: id, IsNew: true, MatchMethod: types.MatchCreatedNew}, nil
}

// bestMatch returns the first candidate with the highest mean of company and
// role similarity.
func bestMatch(sim Similarity, company, role string, apps []types.Application) (types.Application, float64, bool) {
	var best types.Application
	bestScore := -1.0
	for _, a := range apps {
		s := (sim.Score(company, a.Company) + sim.Score(role, a.RoleTitle)) / 2
		if s > bestScore {
			best, bestScore = a, s
		}
	}
	return best, bestScore, bestScore >= 0
}

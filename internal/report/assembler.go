package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"unilib/internal/analytics"
	"unilib/internal/storage"
)

// Cache stores assembled reports by as-of instant
type Cache interface {
	Get(ctx context.Context, asOf time.Time) (*Reports, bool)
	Set(ctx context.Context, reports *Reports)
}

// Assembler builds reports from a storage.Storage
type Assembler struct {
	store  storage.Storage
	logger *zap.Logger
	cache  Cache
}

// Option configures an Assembler
type Option func(*Assembler)

// WithCache serves repeated builds for the same as-of from c
func WithCache(c Cache) Option {
	return func(a *Assembler) {
		a.cache = c
	}
}

// NewAssembler creates an assembler reading from store
func NewAssembler(store storage.Storage, logger *zap.Logger, opts ...Option) *Assembler {
	a := &Assembler{store: store, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build takes one snapshot as of asOf and computes every report over it.
// Sections are evaluated concurrently; a failure anywhere fails the build.
func (a *Assembler) Build(ctx context.Context, asOf time.Time) (*Reports, error) {
	if asOf.IsZero() {
		return nil, analytics.ErrInvalidAsOf
	}
	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, asOf); ok {
			a.logger.Debug("Serving cached reports",
				zap.String("build_id", cached.BuildID),
				zap.Time("as_of", asOf))
			return cached, nil
		}
	}

	buildID := uuid.NewString()
	start := time.Now()
	logger := a.logger.With(zap.String("build_id", buildID), zap.Time("as_of", asOf))

	ledger, err := a.ledger(ctx, asOf)
	if err != nil {
		logger.Error("Report build failed", zap.Error(err))
		return nil, err
	}

	r := &Reports{BuildID: buildID, AsOf: asOf, Subjects: orEmpty(ledger.Subjects())}

	g, gctx := errgroup.WithContext(ctx)
	section := func(fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	section(func() {
		r.Dashboard = Dashboard{
			Summary:  ledger.Summary(),
			TopRisk:  orEmpty(ledger.OverdueRisk(analytics.DashboardRiskLimit)),
			TopBooks: orEmpty(ledger.TopBooks(analytics.TopBooksLimit)),
		}
	})
	section(func() { r.OverdueRisk = orEmpty(ledger.OverdueRisk(analytics.DashboardRiskLimit)) })
	section(func() { r.PatronRisk = orEmpty(ledger.PatronRisk()) })
	section(func() {
		r.Popularity = Popularity{
			Top:       orEmpty(ledger.TopBooks(analytics.TopBooksLimit)),
			BySubject: ledger.SubjectRanking(analytics.AllSubjects()),
		}
	})
	section(func() { r.Histogram = ledger.PopularityHistogram() })
	section(func() { r.Fines = orEmpty(ledger.FineAnalysis()) })
	section(func() { r.Trend = orEmpty(ledger.MonthlyTrend()) })
	section(func() { r.MultiBranch = orEmpty(ledger.MultiBranchPatrons()) })
	section(func() { r.CoAuthors = orEmpty(ledger.CoAuthorPairs()) })
	section(func() { r.RepeatBorrowers = orEmpty(ledger.RepeatBorrowers()) })
	section(func() { r.ReservationsWithoutLoan = orEmpty(ledger.ReservationsWithoutLoan()) })
	section(func() { r.Patrons = orEmpty(ledger.PatronDirectory()) })
	section(func() { r.Books = orEmpty(ledger.BookCatalogue()) })

	if err := g.Wait(); err != nil {
		logger.Warn("Report build abandoned", zap.Error(err))
		return nil, err
	}

	logger.Info("Report build finished", zap.Duration("took", time.Since(start)))
	if a.cache != nil {
		a.cache.Set(ctx, r)
	}
	return r, nil
}

// SubjectRanking ranks books within subjects as of asOf, narrowed by filter
func (a *Assembler) SubjectRanking(ctx context.Context, asOf time.Time, filter analytics.SubjectFilter) (analytics.SubjectRanking, error) {
	if asOf.IsZero() {
		return analytics.SubjectRanking{}, analytics.ErrInvalidAsOf
	}
	ledger, err := a.ledger(ctx, asOf)
	if err != nil {
		return analytics.SubjectRanking{}, err
	}
	return ledger.SubjectRanking(filter), nil
}

func (a *Assembler) ledger(ctx context.Context, asOf time.Time) (*analytics.Ledger, error) {
	snap, err := a.store.Snapshot(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	ledger, err := analytics.NewLedger(snap, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger: %w", err)
	}
	return ledger, nil
}

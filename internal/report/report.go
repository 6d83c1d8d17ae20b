// Package report assembles every analytics payload from one snapshot
package report

import (
	"time"

	"unilib/internal/analytics"
	"unilib/internal/models"
)

// Dashboard is the landing page: headline counts, top risk and top books
type Dashboard struct {
	Summary  analytics.Summary          `json:"summary"`
	TopRisk  []analytics.OverdueRisk    `json:"top_risk"`
	TopBooks []analytics.BookPopularity `json:"top_books"`
}

// Popularity combines the overall top list with the per-subject ranking
type Popularity struct {
	Top       []analytics.BookPopularity `json:"top"`
	BySubject analytics.SubjectRanking   `json:"by_subject"`
}

// Reports is the full output of one build, all sections computed from the
// same snapshot and as-of instant
type Reports struct {
	BuildID string    `json:"build_id"`
	AsOf    time.Time `json:"as_of"`

	Dashboard               Dashboard                          `json:"dashboard"`
	OverdueRisk             []analytics.OverdueRisk            `json:"overdue_risk"`
	PatronRisk              []analytics.PatronRisk             `json:"patron_risk"`
	Popularity              Popularity                         `json:"popularity"`
	Histogram               []analytics.PopularityBucket       `json:"histogram"`
	Fines                   []analytics.ReasonFines            `json:"fines"`
	Trend                   []analytics.MonthBucket            `json:"trend"`
	MultiBranch             []analytics.MultiBranchPatron      `json:"multi_branch"`
	CoAuthors               []analytics.CoAuthorPair           `json:"co_authors"`
	RepeatBorrowers         []analytics.RepeatBorrower         `json:"repeat_borrowers"`
	ReservationsWithoutLoan []analytics.ReservationWithoutLoan `json:"reservations_without_loan"`

	// Subjects lists the headings a ranking can be filtered by
	Subjects []models.Subject `json:"subjects"`

	// Patrons and Books are the plain directory listings, outside the
	// named sections
	Patrons []models.Patron            `json:"patrons"`
	Books   []analytics.CatalogueEntry `json:"books"`
}

// Section names accepted by Reports.Section
const (
	SectionDashboard               = "dashboard"
	SectionOverdueRisk             = "overdue-risk"
	SectionPatronRisk              = "patron-risk"
	SectionPopularity              = "popularity"
	SectionHistogram               = "histogram"
	SectionFines                   = "fines"
	SectionTrend                   = "trend"
	SectionMultiBranch             = "multi-branch"
	SectionCoAuthors               = "co-authors"
	SectionRepeatBorrowers         = "repeat-borrowers"
	SectionReservationsWithoutLoan = "reservations-without-loan"
)

// SectionNames lists every section in presentation order
var SectionNames = []string{
	SectionDashboard,
	SectionOverdueRisk,
	SectionPatronRisk,
	SectionPopularity,
	SectionHistogram,
	SectionFines,
	SectionTrend,
	SectionMultiBranch,
	SectionCoAuthors,
	SectionRepeatBorrowers,
	SectionReservationsWithoutLoan,
}

// Section returns one named payload
func (r *Reports) Section(name string) (any, bool) {
	switch name {
	case SectionDashboard:
		return r.Dashboard, true
	case SectionOverdueRisk:
		return r.OverdueRisk, true
	case SectionPatronRisk:
		return r.PatronRisk, true
	case SectionPopularity:
		return r.Popularity, true
	case SectionHistogram:
		return r.Histogram, true
	case SectionFines:
		return r.Fines, true
	case SectionTrend:
		return r.Trend, true
	case SectionMultiBranch:
		return r.MultiBranch, true
	case SectionCoAuthors:
		return r.CoAuthors, true
	case SectionRepeatBorrowers:
		return r.RepeatBorrowers, true
	case SectionReservationsWithoutLoan:
		return r.ReservationsWithoutLoan, true
	}
	return nil, false
}

// orEmpty keeps empty lists from encoding as null
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

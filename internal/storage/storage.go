package storage

import (
	"context"
	"time"

	"unilib/internal/models"
)

// Storage defines the read-only entity store the report engine consumes
type Storage interface {
	// Snapshot returns every entity collection as of asOf.
	// Implementations must return an internally consistent view: no write
	// that lands while the snapshot is being read may be partially visible.
	Snapshot(ctx context.Context, asOf time.Time) (*models.Snapshot, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

// Cutoff is the first instant excluded from a snapshot taken as of asOf:
// midnight UTC at the end of asOf's calendar day. Checkouts and returns
// recorded during the as-of day are part of the ledger for that day.
func Cutoff(asOf time.Time) time.Time {
	y, m, d := asOf.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// ClipToInstant drops loan facts recorded after the as-of day.
// Loans checked out at or after Cutoff(asOf) are removed and returns
// recorded from then on are treated as still outstanding. The snapshot is
// modified in place.
func ClipToInstant(snap *models.Snapshot, asOf time.Time) {
	snap.AsOf = asOf
	cutoff := Cutoff(asOf)

	loans := snap.Loans[:0]
	for _, loan := range snap.Loans {
		if !loan.LoanedAt.IsZero() && !loan.LoanedAt.Before(cutoff) {
			continue
		}
		if loan.ReturnedAt != nil && !loan.ReturnedAt.Before(cutoff) {
			loan.ReturnedAt = nil
		}
		loans = append(loans, loan)
	}
	snap.Loans = loans
}

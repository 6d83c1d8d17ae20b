package analytics

import (
	"github.com/shopspring/decimal"

	"unilib/internal/models"
)

// Summary holds the headline counts of the dashboard
type Summary struct {
	Patrons       int             `json:"patrons"`
	Books         int             `json:"books"`
	Copies        int             `json:"copies"`
	Loans         int             `json:"loans"`
	OpenLoans     int             `json:"open_loans"`
	OverdueLoans  int             `json:"overdue_loans"`
	ReturnedLoans int             `json:"returned_loans"`
	UnpaidFines   decimal.Decimal `json:"unpaid_fines"`
	// OverdueRatePct is the share of open loans that are overdue, nil when
	// nothing is on loan.
	OverdueRatePct *decimal.Decimal `json:"overdue_rate_pct"`
}

// Summary counts the ledger as of the reference instant
func (l *Ledger) Summary() Summary {
	s := Summary{
		Patrons: len(l.snap.Patrons),
		Books:   len(l.snap.Books),
		Copies:  len(l.snap.Copies),
		Loans:   len(l.snap.Loans),
	}
	for _, m := range l.metrics {
		switch m.Status {
		case StatusReturned:
			s.ReturnedLoans++
		case StatusOverdue:
			s.OverdueLoans++
			s.OpenLoans++
		default:
			s.OpenLoans++
		}
	}
	for _, f := range l.snap.Fines {
		if f.Status == models.FineUnpaid {
			s.UnpaidFines = s.UnpaidFines.Add(f.Amount)
		}
	}
	if s.OpenLoans > 0 {
		rate := decimal.NewFromInt(int64(s.OverdueLoans)).Mul(hundred).
			DivRound(decimal.NewFromInt(int64(s.OpenLoans)), 2)
		s.OverdueRatePct = &rate
	}
	return s
}

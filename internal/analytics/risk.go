package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"unilib/internal/models"
)

// DashboardRiskLimit is the number of overdue loans kept for the dashboard
const DashboardRiskLimit = 10

var (
	overdueWeight   = decimal.NewFromInt(2)
	unpaidDivisor   = decimal.NewFromInt(10)
	highUnpaidFloor = decimal.NewFromInt(50)
	midUnpaidFloor  = decimal.NewFromInt(10)
)

// OverdueRisk is the risk score of one overdue loan
type OverdueRisk struct {
	LoanID                int64           `json:"loan_id"`
	PatronID              int64           `json:"patron_id"`
	PatronName            string          `json:"patron_name"`
	ISBN                  string          `json:"isbn"`
	Title                 string          `json:"title"`
	DueAt                 time.Time       `json:"due_ts"`
	DaysOverdue           int             `json:"days_overdue"`
	LifetimeOverdueOrLate int             `json:"lifetime_overdue_or_late"`
	UnpaidFines           decimal.Decimal `json:"unpaid_fines"`
	Score                 decimal.Decimal `json:"risk_score"`
}

// OverdueRisk scores every overdue loan:
//
//	risk = daysOverdue + 2*lifetimeOverdueOrLate + unpaidFines/10
//
// The result is ordered by risk, then days overdue (both descending), then
// loan id. A limit <= 0 returns every overdue loan.
func (l *Ledger) OverdueRisk(limit int) []OverdueRisk {
	var out []OverdueRisk
	for i, loan := range l.snap.Loans {
		m := l.metrics[i]
		if m.Status != StatusOverdue {
			continue
		}
		st := l.stats[loan.PatronID]
		book := l.bookOf(loan)
		score := decimal.NewFromInt(int64(m.DaysOverdue)).
			Add(decimal.NewFromInt(int64(st.overdueOrLate)).Mul(overdueWeight)).
			Add(st.unpaid.Div(unpaidDivisor))

		out = append(out, OverdueRisk{
			LoanID:                loan.ID,
			PatronID:              loan.PatronID,
			PatronName:            l.patrons[loan.PatronID].FullName(),
			ISBN:                  book.ISBN,
			Title:                 book.Title,
			DueAt:                 loan.DueAt,
			DaysOverdue:           m.DaysOverdue,
			LifetimeOverdueOrLate: st.overdueOrLate,
			UnpaidFines:           st.unpaid,
			Score:                 score,
		})
	}

	slices.SortFunc(out, func(a, b OverdueRisk) int {
		if c := b.Score.Cmp(a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.DaysOverdue, a.DaysOverdue); c != 0 {
			return c
		}
		return cmp.Compare(a.LoanID, b.LoanID)
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// RiskClass is a patron's delinquency classification
type RiskClass string

const (
	RiskHigh   RiskClass = "HIGH"
	RiskMedium RiskClass = "MEDIUM"
	RiskLow    RiskClass = "LOW"
)

func (c RiskClass) order() int {
	switch c {
	case RiskHigh:
		return 0
	case RiskMedium:
		return 1
	}
	return 2
}

// ClassifyPatron maps unpaid fines and currently overdue loans to a class.
// HIGH: unpaid >= 50 or overdue >= 3. MEDIUM: unpaid >= 10 or overdue >= 1.
func ClassifyPatron(unpaid decimal.Decimal, overdue int) RiskClass {
	switch {
	case unpaid.GreaterThanOrEqual(highUnpaidFloor) || overdue >= 3:
		return RiskHigh
	case unpaid.GreaterThanOrEqual(midUnpaidFloor) || overdue >= 1:
		return RiskMedium
	}
	return RiskLow
}

// PatronRisk is the risk classification of one patron
type PatronRisk struct {
	PatronID     int64             `json:"patron_id"`
	Name         string            `json:"name"`
	Type         models.PatronType `json:"patron_type"`
	TotalLoans   int               `json:"total_loans"`
	OverdueLoans int               `json:"overdue_loans"`
	UnpaidFines  decimal.Decimal   `json:"unpaid_fines"`
	Class        RiskClass         `json:"risk_class"`
}

// PatronRisk classifies every patron, HIGH first, then by patron id
func (l *Ledger) PatronRisk() []PatronRisk {
	out := make([]PatronRisk, 0, len(l.snap.Patrons))
	for _, p := range l.snap.Patrons {
		st := l.stats[p.ID]
		out = append(out, PatronRisk{
			PatronID:     p.ID,
			Name:         p.FullName(),
			Type:         p.Type,
			TotalLoans:   st.loans,
			OverdueLoans: st.overdue,
			UnpaidFines:  st.unpaid,
			Class:        ClassifyPatron(st.unpaid, st.overdue),
		})
	}

	slices.SortFunc(out, func(a, b PatronRisk) int {
		if c := cmp.Compare(a.Class.order(), b.Class.order()); c != 0 {
			return c
		}
		return cmp.Compare(a.PatronID, b.PatronID)
	})
	return out
}

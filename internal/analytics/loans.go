package analytics

import (
	"fmt"
	"time"

	"unilib/internal/models"
)

// LoanStatus is the state of a loan relative to the as-of instant
type LoanStatus string

const (
	StatusCurrent  LoanStatus = "CURRENT"
	StatusOverdue  LoanStatus = "OVERDUE"
	StatusReturned LoanStatus = "RETURNED"
)

// LoanMetrics is the derived state of one loan as of a reference instant
type LoanMetrics struct {
	LoanID       int64      `json:"loan_id"`
	Status       LoanStatus `json:"status"`
	DurationDays int        `json:"duration_days"`
	// DaysOverdue is zero unless Status is OVERDUE
	DaysOverdue  int  `json:"days_overdue"`
	ReturnedLate bool `json:"returned_late"`
}

// OverdueOrLate reports whether the loan counts towards a patron's
// lifetime delinquency: overdue now, or returned after its due date.
func (m LoanMetrics) OverdueOrLate() bool {
	return m.Status == StatusOverdue || m.ReturnedLate
}

// ComputeLoanMetrics derives status and duration for loan as of asOf.
//
// Status rules:
// 1. RETURNED when a return was recorded
// 2. OVERDUE when still open and due before asOf
// 3. CURRENT otherwise
//
// Durations count whole calendar days (UTC) between checkout and the
// return, or asOf for open loans. A loan without a checkout date has a
// duration of zero.
func ComputeLoanMetrics(loan models.Loan, asOf time.Time) (LoanMetrics, error) {
	if asOf.IsZero() {
		return LoanMetrics{}, ErrInvalidAsOf
	}
	if err := checkLoan(loan); err != nil {
		return LoanMetrics{}, err
	}

	m := LoanMetrics{LoanID: loan.ID}
	end := asOf
	switch {
	case loan.ReturnedAt != nil:
		m.Status = StatusReturned
		m.ReturnedLate = loan.ReturnedAt.After(loan.DueAt)
		end = *loan.ReturnedAt
	case loan.DueAt.Before(asOf):
		m.Status = StatusOverdue
		m.DaysOverdue = daysBetween(loan.DueAt, asOf)
	default:
		m.Status = StatusCurrent
	}

	if !loan.LoanedAt.IsZero() {
		m.DurationDays = daysBetween(loan.LoanedAt, end)
		if m.DurationDays < 0 {
			return LoanMetrics{}, fmt.Errorf("%w: loan %d checked out after as-of %s",
				ErrDataIntegrity, loan.ID, asOf.Format(time.RFC3339))
		}
	}
	return m, nil
}

func checkLoan(loan models.Loan) error {
	if loan.LoanedAt.IsZero() {
		return nil
	}
	if loan.DueAt.Before(loan.LoanedAt) {
		return fmt.Errorf("%w: loan %d due before it was checked out", ErrDataIntegrity, loan.ID)
	}
	if loan.ReturnedAt != nil && loan.ReturnedAt.Before(loan.LoanedAt) {
		return fmt.Errorf("%w: loan %d returned before it was checked out", ErrDataIntegrity, loan.ID)
	}
	return nil
}

// dayNumber is the count of UTC calendar days since the Unix epoch
func dayNumber(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func daysBetween(from, to time.Time) int {
	return int(dayNumber(to) - dayNumber(from))
}

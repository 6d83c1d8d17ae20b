package analytics

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"unilib/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ReasonFines aggregates the fines raised for one reason
type ReasonFines struct {
	ReasonID     int64           `json:"reason_id"`
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	TotalCount   int             `json:"total_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidCount    int             `json:"paid_count"`
	UnpaidCount  int             `json:"unpaid_count"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
	// AvgAmount, MinAmount, MaxAmount and PaymentRatePct are nil when no
	// fine has been raised for the reason.
	AvgAmount      *decimal.Decimal `json:"avg_amount"`
	MinAmount      *decimal.Decimal `json:"min_amount"`
	MaxAmount      *decimal.Decimal `json:"max_amount"`
	PaymentRatePct *decimal.Decimal `json:"payment_rate_pct"`
}

// FineAnalysis groups fines by reason. Reasons without fines are included
// with zero sums. Ordered by total amount descending, then reason id.
func (l *Ledger) FineAnalysis() []ReasonFines {
	byReason := make(map[int64]*ReasonFines, len(l.snap.FineReasons))
	out := make([]ReasonFines, len(l.snap.FineReasons))
	for i, r := range l.snap.FineReasons {
		out[i] = ReasonFines{ReasonID: r.ID, Code: r.Code, Description: r.Description}
		byReason[r.ID] = &out[i]
	}

	for _, f := range l.snap.Fines {
		rf := byReason[f.ReasonID]
		rf.TotalCount++
		rf.TotalAmount = rf.TotalAmount.Add(f.Amount)
		if f.Status == models.FinePaid {
			rf.PaidCount++
			rf.PaidAmount = rf.PaidAmount.Add(f.Amount)
		} else {
			rf.UnpaidCount++
			rf.UnpaidAmount = rf.UnpaidAmount.Add(f.Amount)
		}
		amount := f.Amount
		if rf.MinAmount == nil || amount.LessThan(*rf.MinAmount) {
			rf.MinAmount = &amount
		}
		if rf.MaxAmount == nil || amount.GreaterThan(*rf.MaxAmount) {
			rf.MaxAmount = &amount
		}
	}

	for i := range out {
		rf := &out[i]
		if rf.TotalCount == 0 {
			continue
		}
		total := decimal.NewFromInt(int64(rf.TotalCount))
		avg := rf.TotalAmount.DivRound(total, 2)
		rate := decimal.NewFromInt(int64(rf.PaidCount)).Mul(hundred).DivRound(total, 2)
		rf.AvgAmount = &avg
		rf.PaymentRatePct = &rate
	}

	slices.SortFunc(out, func(a, b ReasonFines) int {
		if c := b.TotalAmount.Cmp(a.TotalAmount); c != 0 {
			return c
		}
		return cmp.Compare(a.ReasonID, b.ReasonID)
	})
	return out
}

package analytics

import (
	"slices"

	"unilib/internal/models"
)

// MonthBucket counts the loans checked out in one calendar month
type MonthBucket struct {
	Month   string `json:"month"` // YYYY-MM
	Student int    `json:"student"`
	Faculty int    `json:"faculty"`
	Staff   int    `json:"staff"`
	Alumni  int    `json:"alumni"`
	Other   int    `json:"other"`
	// Unrecognized counts loans by patrons whose type is none of the five
	// canonical values.
	Unrecognized int `json:"unrecognized"`
	TotalLoans   int `json:"total_loans"`
	RunningTotal int `json:"running_total"`
}

func (b *MonthBucket) add(t models.PatronType) {
	switch t {
	case models.PatronStudent:
		b.Student++
	case models.PatronFaculty:
		b.Faculty++
	case models.PatronStaff:
		b.Staff++
	case models.PatronAlumni:
		b.Alumni++
	case models.PatronOther:
		b.Other++
	default:
		b.Unrecognized++
	}
	b.TotalLoans++
}

// MonthlyTrend buckets loans by UTC checkout month and patron type, in
// month order, with a running total of loans up to and including each
// month. Loans without a checkout date are left out.
func (l *Ledger) MonthlyTrend() []MonthBucket {
	months := make(map[string]*MonthBucket)
	for _, loan := range l.snap.Loans {
		if loan.LoanedAt.IsZero() {
			continue
		}
		key := loan.LoanedAt.UTC().Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &MonthBucket{Month: key}
			months[key] = b
		}
		b.add(l.patrons[loan.PatronID].Type)
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]MonthBucket, 0, len(keys))
	running := 0
	for _, k := range keys {
		b := *months[k]
		running += b.TotalLoans
		b.RunningTotal = running
		out = append(out, b)
	}
	return out
}

package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"unilib/internal/analytics"
	"unilib/internal/report"
)

// maxRows keeps replies well under Telegram's message size limit
const maxRows = 20

func header(b *strings.Builder, title string, asOf time.Time) {
	fmt.Fprintf(b, "%s (as of %s)\n\n", title, asOf.Format(time.DateOnly))
}

// rows writes n lines produced by line, capped at maxRows
func rows(b *strings.Builder, n int, empty string, line func(i int) string) {
	if n == 0 {
		b.WriteString(empty)
		return
	}
	for i := range min(n, maxRows) {
		b.WriteString(line(i))
		b.WriteByte('\n')
	}
	if n > maxRows {
		fmt.Fprintf(b, "…and %d more\n", n-maxRows)
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func optional(d *decimal.Decimal, format func(decimal.Decimal) string) string {
	if d == nil {
		return "n/a"
	}
	return format(*d)
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func renderDashboard(r *report.Reports) string {
	var b strings.Builder
	s := r.Dashboard.Summary
	header(&b, "📊 Dashboard", r.AsOf)
	fmt.Fprintf(&b, "Patrons: %d\nBooks: %d\nCopies: %d\n", s.Patrons, s.Books, s.Copies)
	fmt.Fprintf(&b, "Loans: %d (open %d, overdue %d, returned %d)\n", s.Loans, s.OpenLoans, s.OverdueLoans, s.ReturnedLoans)
	fmt.Fprintf(&b, "Overdue rate: %s\n", optional(s.OverdueRatePct, percent))
	fmt.Fprintf(&b, "Unpaid fines: %s\n", money(s.UnpaidFines))

	b.WriteString("\n⚠️ Top risk\n")
	rows(&b, len(r.Dashboard.TopRisk), "Nothing overdue\n", func(i int) string {
		o := r.Dashboard.TopRisk[i]
		return fmt.Sprintf("%d. %s: %s (score %s)", i+1, o.PatronName, o.Title, o.Score.String())
	})

	b.WriteString("\n📚 Top books\n")
	rows(&b, len(r.Dashboard.TopBooks), "No books\n", func(i int) string {
		p := r.Dashboard.TopBooks[i]
		return fmt.Sprintf("%d. %s (%d loans)", i+1, p.Title, p.TimesLoaned)
	})
	return b.String()
}

func renderOverdue(asOf time.Time, risks []analytics.OverdueRisk) string {
	var b strings.Builder
	header(&b, "⏰ Overdue loans", asOf)
	rows(&b, len(risks), "Nothing overdue", func(i int) string {
		o := risks[i]
		return fmt.Sprintf("%d. %s, %s: %d days overdue, %d late before, %s unpaid, score %s",
			i+1, o.PatronName, o.Title, o.DaysOverdue, o.LifetimeOverdueOrLate, money(o.UnpaidFines), o.Score.String())
	})
	return b.String()
}

func renderPatronRisk(asOf time.Time, risks []analytics.PatronRisk) string {
	var b strings.Builder
	header(&b, "🚦 Patron risk", asOf)
	rows(&b, len(risks), "No patrons", func(i int) string {
		p := risks[i]
		return fmt.Sprintf("%s %s (%s): %d overdue of %d loans, %s unpaid",
			p.Class, p.Name, p.Type, p.OverdueLoans, p.TotalLoans, money(p.UnpaidFines))
	})
	return b.String()
}

func renderTopBooks(asOf time.Time, books []analytics.BookPopularity) string {
	var b strings.Builder
	header(&b, "📚 Most loaned books", asOf)
	rows(&b, len(books), "No books", func(i int) string {
		return fmt.Sprintf("%d. %s (%d loans)", i+1, books[i].Title, books[i].TimesLoaned)
	})
	return b.String()
}

func renderSubjectRanking(asOf time.Time, ranking analytics.SubjectRanking) string {
	var b strings.Builder
	header(&b, "🏷 Ranking by subject", asOf)
	rows(&b, len(ranking.Books), "No books under this subject", func(i int) string {
		rb := ranking.Books[i]
		subject := rb.SubjectName
		if rb.SubjectID == nil {
			subject = "No subject"
		}
		return fmt.Sprintf("%s #%d: %s (%d loans)", subject, rb.Rank, rb.Title, rb.TimesLoaned)
	})
	return b.String()
}

func renderHistogram(asOf time.Time, buckets []analytics.PopularityBucket) string {
	var b strings.Builder
	header(&b, "📈 Loan volume", asOf)
	rows(&b, len(buckets), "No books", func(i int) string {
		h := buckets[i]
		return fmt.Sprintf("%s: %d books, %d loans, avg %s", h.Label, h.Books, h.Sum,
			optional(h.Avg, func(d decimal.Decimal) string { return d.StringFixed(2) }))
	})
	return b.String()
}

func renderFines(asOf time.Time, fines []analytics.ReasonFines) string {
	var b strings.Builder
	header(&b, "💸 Fines by reason", asOf)
	rows(&b, len(fines), "No fine reasons", func(i int) string {
		f := fines[i]
		return fmt.Sprintf("%s (%s): %d fines, %s total, %s unpaid, paid rate %s",
			f.Description, f.Code, f.TotalCount, money(f.TotalAmount), money(f.UnpaidAmount),
			optional(f.PaymentRatePct, percent))
	})
	return b.String()
}

func renderTrend(asOf time.Time, trend []analytics.MonthBucket) string {
	var b strings.Builder
	header(&b, "🗓 Monthly loans", asOf)
	if len(trend) > maxRows {
		// Latest months are the interesting ones
		trend = trend[len(trend)-maxRows:]
	}
	rows(&b, len(trend), "No loans", func(i int) string {
		m := trend[i]
		return fmt.Sprintf("%s: %d loans (students %d, faculty %d, staff %d, alumni %d, other %d, unrecognized %d), %d to date",
			m.Month, m.TotalLoans, m.Student, m.Faculty, m.Staff, m.Alumni, m.Other, m.Unrecognized, m.RunningTotal)
	})
	return b.String()
}

func renderMultiBranch(asOf time.Time, patrons []analytics.MultiBranchPatron) string {
	var b strings.Builder
	header(&b, "🏛 Patrons using several branches", asOf)
	rows(&b, len(patrons), "No patron has borrowed from more than one branch", func(i int) string {
		p := patrons[i]
		return fmt.Sprintf("%s: %d branches (%s), %d loans", p.Name, p.BranchCount, p.BranchNames, p.TotalLoans)
	})
	return b.String()
}

func renderCoAuthors(asOf time.Time, pairs []analytics.CoAuthorPair) string {
	var b strings.Builder
	header(&b, "✍️ Co-authors", asOf)
	rows(&b, len(pairs), "No authors share enough books", func(i int) string {
		p := pairs[i]
		return fmt.Sprintf("%s & %s: %d books", p.AuthorName1, p.AuthorName2, p.SharedBooks)
	})
	return b.String()
}

func renderRepeatBorrowers(asOf time.Time, repeats []analytics.RepeatBorrower) string {
	var b strings.Builder
	header(&b, "🔁 Repeat borrowers", asOf)
	rows(&b, len(repeats), "Nobody borrowed a book twice", func(i int) string {
		r := repeats[i]
		return fmt.Sprintf("%s: %s %d times over %d days", r.PatronName, r.Title, r.Loans, r.SpanDays)
	})
	return b.String()
}

func renderReservations(asOf time.Time, patrons []analytics.ReservationWithoutLoan) string {
	var b strings.Builder
	header(&b, "📝 Reserving, never borrowed", asOf)
	rows(&b, len(patrons), "No such patrons", func(i int) string {
		p := patrons[i]
		return fmt.Sprintf("%s <%s>: %d open reservations", p.Name, p.Email, p.OpenReservations)
	})
	return b.String()
}

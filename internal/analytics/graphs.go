package analytics

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// MultiBranchPatron is a patron who has borrowed from more than one branch
type MultiBranchPatron struct {
	PatronID    int64  `json:"patron_id"`
	Name        string `json:"name"`
	BranchCount int    `json:"branch_count"`
	TotalLoans  int    `json:"total_loans"`
	BranchNames string `json:"branch_names"`
}

// MultiBranchPatrons lists patrons whose loans span more than one branch,
// ordered by branch count, then total loans (both descending), then id.
func (l *Ledger) MultiBranchPatrons() []MultiBranchPatron {
	branchesOf := make(map[int64]map[int64]struct{})
	for _, loan := range l.snap.Loans {
		set, ok := branchesOf[loan.PatronID]
		if !ok {
			set = make(map[int64]struct{})
			branchesOf[loan.PatronID] = set
		}
		set[l.copies[loan.CopyID].BranchID] = struct{}{}
	}

	var out []MultiBranchPatron
	for patronID, set := range branchesOf {
		if len(set) < 2 {
			continue
		}
		names := make([]string, 0, len(set))
		for id := range set {
			names = append(names, l.branches[id].Name)
		}
		slices.Sort(names)
		out = append(out, MultiBranchPatron{
			PatronID:    patronID,
			Name:        l.patrons[patronID].FullName(),
			BranchCount: len(set),
			TotalLoans:  l.stats[patronID].loans,
			BranchNames: strings.Join(names, ", "),
		})
	}

	slices.SortFunc(out, func(a, b MultiBranchPatron) int {
		if c := cmp.Compare(b.BranchCount, a.BranchCount); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TotalLoans, a.TotalLoans); c != 0 {
			return c
		}
		return cmp.Compare(a.PatronID, b.PatronID)
	})
	return out
}

// CoAuthorMinShared is the number of shared books a pair needs to be reported
const CoAuthorMinShared = 2

// CoAuthorPair is an unordered pair of authors; AuthorID1 < AuthorID2
type CoAuthorPair struct {
	AuthorID1   int64  `json:"author_id_1"`
	AuthorName1 string `json:"author_name_1"`
	AuthorID2   int64  `json:"author_id_2"`
	AuthorName2 string `json:"author_name_2"`
	SharedBooks int    `json:"shared_books"`
}

type authorPair struct{ lo, hi int64 }

// CoAuthorPairs counts the distinct books shared by every pair of authors
// and keeps the pairs sharing at least CoAuthorMinShared. Ordered by shared
// books descending, then the authors' names, then their ids.
func (l *Ledger) CoAuthorPairs() []CoAuthorPair {
	authorsOf := make(map[string][]int64)
	for _, ba := range l.snap.BookAuthors {
		if !slices.Contains(authorsOf[ba.ISBN], ba.AuthorID) {
			authorsOf[ba.ISBN] = append(authorsOf[ba.ISBN], ba.AuthorID)
		}
	}

	shared := make(map[authorPair]int)
	for _, ids := range authorsOf {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				p := authorPair{lo: min(ids[i], ids[j]), hi: max(ids[i], ids[j])}
				shared[p]++
			}
		}
	}

	var out []CoAuthorPair
	for p, n := range shared {
		if n < CoAuthorMinShared {
			continue
		}
		out = append(out, CoAuthorPair{
			AuthorID1:   p.lo,
			AuthorName1: l.authors[p.lo].Name,
			AuthorID2:   p.hi,
			AuthorName2: l.authors[p.hi].Name,
			SharedBooks: n,
		})
	}

	slices.SortFunc(out, func(a, b CoAuthorPair) int {
		return cmp.Or(
			cmp.Compare(b.SharedBooks, a.SharedBooks),
			cmp.Compare(a.AuthorName1, b.AuthorName1),
			cmp.Compare(a.AuthorName2, b.AuthorName2),
			cmp.Compare(a.AuthorID1, b.AuthorID1),
			cmp.Compare(a.AuthorID2, b.AuthorID2),
		)
	})
	return out
}

// RepeatBorrower is a patron who borrowed the same book more than once
type RepeatBorrower struct {
	PatronID   int64  `json:"patron_id"`
	PatronName string `json:"patron_name"`
	ISBN       string `json:"isbn"`
	Title      string `json:"title"`
	Loans      int    `json:"loans"`
	// FirstLoan, LastLoan and SpanDays cover only loans with a checkout date
	FirstLoan *time.Time `json:"first_loan_ts"`
	LastLoan  *time.Time `json:"last_loan_ts"`
	SpanDays  int        `json:"span_days"`
}

type patronBook struct {
	patronID int64
	isbn     string
}

// RepeatBorrowers lists (patron, book) pairs with more than one loan,
// ordered by loan count descending, then patron name, then title.
func (l *Ledger) RepeatBorrowers() []RepeatBorrower {
	pairs := make(map[patronBook]*RepeatBorrower)
	for _, loan := range l.snap.Loans {
		book := l.bookOf(loan)
		key := patronBook{patronID: loan.PatronID, isbn: book.ISBN}
		rb, ok := pairs[key]
		if !ok {
			rb = &RepeatBorrower{
				PatronID:   loan.PatronID,
				PatronName: l.patrons[loan.PatronID].FullName(),
				ISBN:       book.ISBN,
				Title:      book.Title,
			}
			pairs[key] = rb
		}
		rb.Loans++

		if loan.LoanedAt.IsZero() {
			continue
		}
		at := loan.LoanedAt
		if rb.FirstLoan == nil || at.Before(*rb.FirstLoan) {
			rb.FirstLoan = &at
		}
		if rb.LastLoan == nil || at.After(*rb.LastLoan) {
			rb.LastLoan = &at
		}
	}

	var out []RepeatBorrower
	for _, rb := range pairs {
		if rb.Loans < 2 {
			continue
		}
		if rb.FirstLoan != nil {
			rb.SpanDays = daysBetween(*rb.FirstLoan, *rb.LastLoan)
		}
		out = append(out, *rb)
	}

	slices.SortFunc(out, func(a, b RepeatBorrower) int {
		return cmp.Or(
			cmp.Compare(b.Loans, a.Loans),
			cmp.Compare(a.PatronName, b.PatronName),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.PatronID, b.PatronID),
			cmp.Compare(a.ISBN, b.ISBN),
		)
	})
	return out
}

// ReservationWithoutLoan is a patron holding open reservations who has
// never borrowed anything
type ReservationWithoutLoan struct {
	PatronID         int64  `json:"patron_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	OpenReservations int    `json:"open_reservations"`
}

// ReservationsWithoutLoan lists patrons with Active or Waiting reservations
// and no loan of any status, ordered by patron id.
func (l *Ledger) ReservationsWithoutLoan() []ReservationWithoutLoan {
	open := make(map[int64]int)
	for _, r := range l.snap.Reservations {
		if r.Status.Open() && l.stats[r.PatronID].loans == 0 {
			open[r.PatronID]++
		}
	}

	out := make([]ReservationWithoutLoan, 0, len(open))
	for id, n := range open {
		p := l.patrons[id]
		out = append(out, ReservationWithoutLoan{
			PatronID:         id,
			Name:             p.FullName(),
			Email:            p.Email,
			OpenReservations: n,
		})
	}
	slices.SortFunc(out, func(a, b ReservationWithoutLoan) int {
		return cmp.Compare(a.PatronID, b.PatronID)
	})
	return out
}

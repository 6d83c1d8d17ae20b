package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"unilib/internal/models"
)

// Ledger is a validated, indexed view of one snapshot at one as-of instant.
// It is never modified after construction, so every report method is safe
// to call from multiple goroutines.
type Ledger struct {
	asOf time.Time
	snap *models.Snapshot

	patrons  map[int64]*models.Patron
	books    map[string]*models.Book
	pubs     map[int64]*models.Publisher
	copies   map[int64]*models.Copy
	branches map[int64]*models.Branch
	subjects map[int64]*models.Subject
	authors  map[int64]*models.Author
	reasons  map[int64]*models.FineReason

	metrics []LoanMetrics // parallel to snap.Loans
	stats   map[int64]*patronStats
	loaned  map[string]int // isbn -> times loaned
}

// patronStats aggregates one patron's loans and fines.
// Patrons without loans or fines keep zero values.
type patronStats struct {
	loans         int
	overdue       int
	overdueOrLate int
	unpaid        decimal.Decimal
}

// NewLedger validates snap and precomputes the per-loan metrics and
// per-patron aggregates shared by every report.
func NewLedger(snap *models.Snapshot, asOf time.Time) (*Ledger, error) {
	if asOf.IsZero() {
		return nil, ErrInvalidAsOf
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: missing snapshot", ErrDataIntegrity)
	}

	l := &Ledger{
		asOf:     asOf,
		snap:     snap,
		patrons:  make(map[int64]*models.Patron, len(snap.Patrons)),
		books:    make(map[string]*models.Book, len(snap.Books)),
		pubs:     make(map[int64]*models.Publisher, len(snap.Publishers)),
		copies:   make(map[int64]*models.Copy, len(snap.Copies)),
		branches: make(map[int64]*models.Branch, len(snap.Branches)),
		subjects: make(map[int64]*models.Subject, len(snap.Subjects)),
		authors:  make(map[int64]*models.Author, len(snap.Authors)),
		reasons:  make(map[int64]*models.FineReason, len(snap.FineReasons)),
		stats:    make(map[int64]*patronStats, len(snap.Patrons)),
		loaned:   make(map[string]int, len(snap.Books)),
	}
	if err := l.index(); err != nil {
		return nil, err
	}
	if err := l.checkReferences(); err != nil {
		return nil, err
	}
	if err := l.aggregate(); err != nil {
		return nil, err
	}
	return l, nil
}

// AsOf returns the reference instant of the ledger
func (l *Ledger) AsOf() time.Time {
	return l.asOf
}

// Subjects returns the subject headings of the snapshot
func (l *Ledger) Subjects() []models.Subject {
	return l.snap.Subjects
}

func (l *Ledger) index() error {
	s := l.snap
	for i := range s.Patrons {
		p := &s.Patrons[i]
		if _, dup := l.patrons[p.ID]; dup {
			return fmt.Errorf("%w: duplicate patron %d", ErrDataIntegrity, p.ID)
		}
		if p.Balance.IsNegative() {
			return fmt.Errorf("%w: patron %d has negative balance", ErrDataIntegrity, p.ID)
		}
		l.patrons[p.ID] = p
		l.stats[p.ID] = &patronStats{}
	}
	for i := range s.Books {
		b := &s.Books[i]
		if _, dup := l.books[b.ISBN]; dup {
			return fmt.Errorf("%w: duplicate isbn %q", ErrDataIntegrity, b.ISBN)
		}
		l.books[b.ISBN] = b
		l.loaned[b.ISBN] = 0
	}
	for i := range s.Publishers {
		p := &s.Publishers[i]
		if _, dup := l.pubs[p.ID]; dup {
			return fmt.Errorf("%w: duplicate publisher %d", ErrDataIntegrity, p.ID)
		}
		l.pubs[p.ID] = p
	}
	for i := range s.Copies {
		c := &s.Copies[i]
		if _, dup := l.copies[c.ID]; dup {
			return fmt.Errorf("%w: duplicate copy %d", ErrDataIntegrity, c.ID)
		}
		l.copies[c.ID] = c
	}
	for i := range s.Branches {
		l.branches[s.Branches[i].ID] = &s.Branches[i]
	}
	for i := range s.Subjects {
		l.subjects[s.Subjects[i].ID] = &s.Subjects[i]
	}
	for i := range s.Authors {
		l.authors[s.Authors[i].ID] = &s.Authors[i]
	}
	for i := range s.FineReasons {
		l.reasons[s.FineReasons[i].ID] = &s.FineReasons[i]
	}
	return nil
}

func (l *Ledger) checkReferences() error {
	s := l.snap
	for _, b := range s.Books {
		if b.PublisherID == nil {
			continue
		}
		if _, ok := l.pubs[*b.PublisherID]; !ok {
			return fmt.Errorf("%w: isbn %q references unknown publisher %d", ErrDataIntegrity, b.ISBN, *b.PublisherID)
		}
	}
	for _, c := range s.Copies {
		if _, ok := l.books[c.ISBN]; !ok {
			return fmt.Errorf("%w: copy %d references unknown isbn %q", ErrDataIntegrity, c.ID, c.ISBN)
		}
		if _, ok := l.branches[c.BranchID]; !ok {
			return fmt.Errorf("%w: copy %d references unknown branch %d", ErrDataIntegrity, c.ID, c.BranchID)
		}
	}
	loanIDs := make(map[int64]struct{}, len(s.Loans))
	for _, loan := range s.Loans {
		if _, dup := loanIDs[loan.ID]; dup {
			return fmt.Errorf("%w: duplicate loan %d", ErrDataIntegrity, loan.ID)
		}
		loanIDs[loan.ID] = struct{}{}
		if _, ok := l.copies[loan.CopyID]; !ok {
			return fmt.Errorf("%w: loan %d references unknown copy %d", ErrDataIntegrity, loan.ID, loan.CopyID)
		}
		if _, ok := l.patrons[loan.PatronID]; !ok {
			return fmt.Errorf("%w: loan %d references unknown patron %d", ErrDataIntegrity, loan.ID, loan.PatronID)
		}
	}
	for _, f := range s.Fines {
		if _, ok := l.patrons[f.PatronID]; !ok {
			return fmt.Errorf("%w: fine %d references unknown patron %d", ErrDataIntegrity, f.ID, f.PatronID)
		}
		if _, ok := l.reasons[f.ReasonID]; !ok {
			return fmt.Errorf("%w: fine %d references unknown reason %d", ErrDataIntegrity, f.ID, f.ReasonID)
		}
		if f.Amount.IsNegative() {
			return fmt.Errorf("%w: fine %d has negative amount", ErrDataIntegrity, f.ID)
		}
		if !f.Status.Known() {
			return fmt.Errorf("%w: fine %d has unknown status %q", ErrDataIntegrity, f.ID, f.Status)
		}
	}
	for _, r := range s.Reservations {
		if _, ok := l.patrons[r.PatronID]; !ok {
			return fmt.Errorf("%w: reservation %d references unknown patron %d", ErrDataIntegrity, r.ID, r.PatronID)
		}
		if _, ok := l.books[r.ISBN]; !ok {
			return fmt.Errorf("%w: reservation %d references unknown isbn %q", ErrDataIntegrity, r.ID, r.ISBN)
		}
	}
	for _, bs := range s.BookSubjects {
		if _, ok := l.books[bs.ISBN]; !ok {
			return fmt.Errorf("%w: subject link references unknown isbn %q", ErrDataIntegrity, bs.ISBN)
		}
		if _, ok := l.subjects[bs.SubjectID]; !ok {
			return fmt.Errorf("%w: isbn %q references unknown subject %d", ErrDataIntegrity, bs.ISBN, bs.SubjectID)
		}
	}
	for _, ba := range s.BookAuthors {
		if _, ok := l.books[ba.ISBN]; !ok {
			return fmt.Errorf("%w: author link references unknown isbn %q", ErrDataIntegrity, ba.ISBN)
		}
		if _, ok := l.authors[ba.AuthorID]; !ok {
			return fmt.Errorf("%w: isbn %q references unknown author %d", ErrDataIntegrity, ba.ISBN, ba.AuthorID)
		}
	}
	return nil
}

func (l *Ledger) aggregate() error {
	l.metrics = make([]LoanMetrics, len(l.snap.Loans))
	for i, loan := range l.snap.Loans {
		m, err := ComputeLoanMetrics(loan, l.asOf)
		if err != nil {
			return err
		}
		l.metrics[i] = m

		st := l.stats[loan.PatronID]
		st.loans++
		if m.Status == StatusOverdue {
			st.overdue++
		}
		if m.OverdueOrLate() {
			st.overdueOrLate++
		}
		l.loaned[l.copies[loan.CopyID].ISBN]++
	}
	for _, f := range l.snap.Fines {
		if f.Status == models.FineUnpaid {
			st := l.stats[f.PatronID]
			st.unpaid = st.unpaid.Add(f.Amount)
		}
	}
	return nil
}

// bookOf resolves the book a loan's copy belongs to
func (l *Ledger) bookOf(loan models.Loan) *models.Book {
	return l.books[l.copies[loan.CopyID].ISBN]
}

// LoanMetrics returns the derived metrics of every loan in snapshot order
func (l *Ledger) LoanMetrics() []LoanMetrics {
	out := make([]LoanMetrics, len(l.metrics))
	copy(out, l.metrics)
	return out
}

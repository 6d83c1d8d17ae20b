package mysql

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"unilib/internal/models"
)

// Row types mirror the UniLib schema column for column

type patronRecord struct {
	ID        int64           `db:"patron_id"`
	FirstName string          `db:"first_name"`
	LastName  string          `db:"last_name"`
	Email     string          `db:"email"`
	Type      string          `db:"patron_type"`
	Balance   decimal.Decimal `db:"balance"`
}

func (r patronRecord) model() models.Patron {
	return models.Patron{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Type:      models.PatronType(r.Type),
		Balance:   r.Balance,
	}
}

type bookRecord struct {
	ISBN        string        `db:"isbn"`
	Title       string        `db:"title"`
	PubYear     sql.NullInt32 `db:"pub_year"`
	PublisherID sql.NullInt64 `db:"publisher_id"`
}

func (r bookRecord) model() models.Book {
	b := models.Book{ISBN: r.ISBN, Title: r.Title, PubYear: int(r.PubYear.Int32)}
	if r.PublisherID.Valid {
		id := r.PublisherID.Int64
		b.PublisherID = &id
	}
	return b
}

type publisherRecord struct {
	ID   int64  `db:"publisher_id"`
	Name string `db:"name"`
}

func (r publisherRecord) model() models.Publisher { return models.Publisher{ID: r.ID, Name: r.Name} }

type copyRecord struct {
	ID       int64  `db:"copy_id"`
	ISBN     string `db:"isbn"`
	BranchID int64  `db:"branch_id"`
	Barcode  string `db:"barcode"`
}

func (r copyRecord) model() models.Copy {
	return models.Copy{ID: r.ID, ISBN: r.ISBN, BranchID: r.BranchID, Barcode: r.Barcode}
}

type loanRecord struct {
	ID         int64        `db:"loan_id"`
	CopyID     int64        `db:"copy_id"`
	PatronID   int64        `db:"patron_id"`
	LoanedAt   sql.NullTime `db:"loan_ts"`
	DueAt      time.Time    `db:"due_ts"`
	ReturnedAt sql.NullTime `db:"return_ts"`
}

func (r loanRecord) model() models.Loan {
	l := models.Loan{ID: r.ID, CopyID: r.CopyID, PatronID: r.PatronID, DueAt: r.DueAt.UTC()}
	if r.LoanedAt.Valid {
		l.LoanedAt = r.LoanedAt.Time.UTC()
	}
	if r.ReturnedAt.Valid {
		ret := r.ReturnedAt.Time.UTC()
		l.ReturnedAt = &ret
	}
	return l
}

type fineRecord struct {
	ID       int64           `db:"fine_id"`
	PatronID int64           `db:"patron_id"`
	ReasonID int64           `db:"reason_id"`
	Amount   decimal.Decimal `db:"amount"`
	Status   string          `db:"status"`
}

func (r fineRecord) model() models.Fine {
	return models.Fine{
		ID:       r.ID,
		PatronID: r.PatronID,
		ReasonID: r.ReasonID,
		Amount:   r.Amount,
		Status:   models.FineStatus(r.Status),
	}
}

type reasonRecord struct {
	ID          int64  `db:"reason_id"`
	Code        string `db:"code"`
	Description string `db:"description"`
}

func (r reasonRecord) model() models.FineReason {
	return models.FineReason{ID: r.ID, Code: r.Code, Description: r.Description}
}

type branchRecord struct {
	ID   int64  `db:"branch_id"`
	Name string `db:"name"`
}

func (r branchRecord) model() models.Branch { return models.Branch{ID: r.ID, Name: r.Name} }

type subjectRecord struct {
	ID   int64  `db:"subject_id"`
	Name string `db:"name"`
}

func (r subjectRecord) model() models.Subject { return models.Subject{ID: r.ID, Name: r.Name} }

type authorRecord struct {
	ID   int64  `db:"author_id"`
	Name string `db:"name"`
}

func (r authorRecord) model() models.Author { return models.Author{ID: r.ID, Name: r.Name} }

type bookSubjectRecord struct {
	ISBN      string `db:"isbn"`
	SubjectID int64  `db:"subject_id"`
}

func (r bookSubjectRecord) model() models.BookSubject {
	return models.BookSubject{ISBN: r.ISBN, SubjectID: r.SubjectID}
}

type bookAuthorRecord struct {
	ISBN     string `db:"isbn"`
	AuthorID int64  `db:"author_id"`
}

func (r bookAuthorRecord) model() models.BookAuthor {
	return models.BookAuthor{ISBN: r.ISBN, AuthorID: r.AuthorID}
}

type reservationRecord struct {
	ID       int64  `db:"reservation_id"`
	PatronID int64  `db:"patron_id"`
	ISBN     string `db:"isbn"`
	Status   string `db:"status"`
}

func (r reservationRecord) model() models.Reservation {
	return models.Reservation{ID: r.ID, PatronID: r.PatronID, ISBN: r.ISBN, Status: models.ReservationStatus(r.Status)}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

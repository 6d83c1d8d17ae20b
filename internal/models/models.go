package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatronType is the borrower category recorded on a patron
type PatronType string

const (
	PatronStudent PatronType = "Student"
	PatronFaculty PatronType = "Faculty"
	PatronStaff   PatronType = "Staff"
	PatronAlumni  PatronType = "Alumni"
	PatronOther   PatronType = "Other"
)

// Canonical reports whether t is one of the five known patron types
func (t PatronType) Canonical() bool {
	switch t {
	case PatronStudent, PatronFaculty, PatronStaff, PatronAlumni, PatronOther:
		return true
	}
	return false
}

// FineStatus is the payment state of a fine
type FineStatus string

const (
	FineUnpaid FineStatus = "Unpaid"
	FinePaid   FineStatus = "Paid"
)

// Known reports whether s is one of the two recorded payment states
func (s FineStatus) Known() bool {
	return s == FineUnpaid || s == FinePaid
}

// ReservationStatus is the state of a hold placed by a patron
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "Active"
	ReservationWaiting   ReservationStatus = "Waiting"
	ReservationFulfilled ReservationStatus = "Fulfilled"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// Open reports whether the reservation still holds a place in the queue
func (s ReservationStatus) Open() bool {
	return s == ReservationActive || s == ReservationWaiting
}

// Patron represents a library member
type Patron struct {
	ID        int64           `json:"patron_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Type      PatronType      `json:"patron_type"`
	Balance   decimal.Decimal `json:"balance"`
}

// FullName returns "First Last"
func (p Patron) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Book represents a title in the catalogue
type Book struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	PubYear     int    `json:"pub_year"`
	PublisherID *int64 `json:"publisher_id,omitempty"`
}

// Publisher issues books
type Publisher struct {
	ID   int64  `json:"publisher_id"`
	Name string `json:"name"`
}

// Copy is one physical instance of a book held at a branch
type Copy struct {
	ID       int64  `json:"copy_id"`
	ISBN     string `json:"isbn"`
	BranchID int64  `json:"branch_id"`
	Barcode  string `json:"barcode"`
}

// Loan is a single checkout of a copy by a patron.
// A zero LoanedAt means the checkout date was never recorded.
type Loan struct {
	ID         int64      `json:"loan_id"`
	CopyID     int64      `json:"copy_id"`
	PatronID   int64      `json:"patron_id"`
	LoanedAt   time.Time  `json:"loan_ts"`
	DueAt      time.Time  `json:"due_ts"`
	ReturnedAt *time.Time `json:"return_ts"`
}

// Open reports whether the loan has not been returned
func (l Loan) Open() bool {
	return l.ReturnedAt == nil
}

// Fine is a charge raised against a patron
type Fine struct {
	ID       int64           `json:"fine_id"`
	PatronID int64           `json:"patron_id"`
	ReasonID int64           `json:"reason_id"`
	Amount   decimal.Decimal `json:"amount"`
	Status   FineStatus      `json:"status"`
}

// FineReason classifies fines
type FineReason struct {
	ID          int64  `json:"reason_id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Branch is a library location
type Branch struct {
	ID   int64  `json:"branch_id"`
	Name string `json:"name"`
}

// Subject is a catalogue subject heading
type Subject struct {
	ID   int64  `json:"subject_id"`
	Name string `json:"name"`
}

// Author represents a book author
type Author struct {
	ID   int64  `json:"author_id"`
	Name string `json:"name"`
}

// BookSubject links a book to one of its subjects
type BookSubject struct {
	ISBN      string `json:"isbn"`
	SubjectID int64  `json:"subject_id"`
}

// BookAuthor links a book to one of its authors
type BookAuthor struct {
	ISBN     string `json:"isbn"`
	AuthorID int64  `json:"author_id"`
}

// Reservation is a hold placed by a patron
type Reservation struct {
	ID       int64             `json:"reservation_id"`
	PatronID int64             `json:"patron_id"`
	ISBN     string            `json:"isbn"`
	Status   ReservationStatus `json:"status"`
}

// Snapshot is a consistent view of the whole ledger as of one instant
type Snapshot struct {
	AsOf         time.Time
	Patrons      []Patron
	Books        []Book
	Publishers   []Publisher
	Copies       []Copy
	Loans        []Loan
	Fines        []Fine
	FineReasons  []FineReason
	Branches     []Branch
	Subjects     []Subject
	Authors      []Author
	BookSubjects []BookSubject
	BookAuthors  []BookAuthor
	Reservations []Reservation
}

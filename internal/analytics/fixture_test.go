package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"unilib/internal/models"
)

var testAsOf = day(2024, 6, 15)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixtureSnapshot builds a small ledger:
//
//	patron 1 has two overdue loans (5 and 10 days) and one late return, $60 unpaid
//	patron 2 borrows from two branches, pays fines
//	patron 3 only reserves, patron 4 has an unrecognized type, patron 5 is idle
func fixtureSnapshot() *models.Snapshot {
	manning, oreilly := int64(1), int64(2)
	return &models.Snapshot{
		AsOf: testAsOf,
		Patrons: []models.Patron{
			{ID: 1, FirstName: "Pat", LastName: "Ridley", Email: "pat@uni.edu", Type: models.PatronStudent},
			{ID: 2, FirstName: "Sam", LastName: "Okafor", Email: "sam@uni.edu", Type: models.PatronFaculty},
			{ID: 3, FirstName: "Lee", LastName: "Chen", Email: "lee@uni.edu", Type: models.PatronStaff},
			{ID: 4, FirstName: "Kim", LastName: "Ito", Type: "Visiting"},
			{ID: 5, FirstName: "Ana", LastName: "Diaz", Type: models.PatronAlumni, Balance: money("3.50")},
		},
		Books: []models.Book{
			{ISBN: "978-0001", Title: "Go in Action", PubYear: 2015, PublisherID: &manning},
			{ISBN: "978-0002", Title: "Algorithms", PubYear: 2011},
			{ISBN: "978-0003", Title: "Zen", PubYear: 1974},
			{ISBN: "978-0004", Title: "Databases", PubYear: 2019, PublisherID: &oreilly},
			{ISBN: "978-0005", Title: "Networks", PubYear: 2010},
			{ISBN: "978-0006", Title: "Compilers", PubYear: 2006},
		},
		Publishers: []models.Publisher{
			{ID: 1, Name: "Manning"},
			{ID: 2, Name: "O'Reilly"},
		},
		Copies: []models.Copy{
			{ID: 10, ISBN: "978-0001", BranchID: 1, Barcode: "B10"},
			{ID: 11, ISBN: "978-0001", BranchID: 2, Barcode: "B11"},
			{ID: 20, ISBN: "978-0002", BranchID: 1, Barcode: "B20"},
			{ID: 30, ISBN: "978-0003", BranchID: 3, Barcode: "B30"},
			{ID: 40, ISBN: "978-0004", BranchID: 1, Barcode: "B40"},
			{ID: 50, ISBN: "978-0005", BranchID: 2, Barcode: "B50"},
		},
		Loans: []models.Loan{
			{ID: 1, CopyID: 10, PatronID: 1, LoanedAt: day(2024, 5, 1), DueAt: day(2024, 6, 10)},
			{ID: 2, CopyID: 20, PatronID: 1, LoanedAt: day(2024, 5, 1), DueAt: day(2024, 6, 5)},
			{ID: 3, CopyID: 11, PatronID: 1, LoanedAt: day(2024, 4, 1), DueAt: day(2024, 4, 15), ReturnedAt: at(2024, 4, 17)},
			{ID: 4, CopyID: 10, PatronID: 2, LoanedAt: day(2024, 3, 3), DueAt: day(2024, 3, 17), ReturnedAt: at(2024, 3, 10)},
			{ID: 5, CopyID: 11, PatronID: 2, LoanedAt: day(2024, 4, 20), DueAt: day(2024, 5, 4), ReturnedAt: at(2024, 5, 1)},
			{ID: 6, CopyID: 40, PatronID: 2, LoanedAt: day(2024, 6, 1), DueAt: day(2024, 6, 20)},
			{ID: 7, CopyID: 30, PatronID: 4, LoanedAt: day(2024, 6, 10), DueAt: day(2024, 6, 24)},
			{ID: 8, CopyID: 50, PatronID: 2, LoanedAt: day(2024, 2, 10), DueAt: day(2024, 2, 24), ReturnedAt: at(2024, 2, 20)},
		},
		FineReasons: []models.FineReason{
			{ID: 1, Code: "OVD", Description: "Overdue"},
			{ID: 2, Code: "DMG", Description: "Damage"},
			{ID: 3, Code: "LOST", Description: "Lost Item"},
		},
		Fines: []models.Fine{
			{ID: 1, PatronID: 1, ReasonID: 1, Amount: money("35.00"), Status: models.FineUnpaid},
			{ID: 2, PatronID: 1, ReasonID: 2, Amount: money("25.00"), Status: models.FineUnpaid},
			{ID: 3, PatronID: 2, ReasonID: 1, Amount: money("5.00"), Status: models.FinePaid},
			{ID: 4, PatronID: 2, ReasonID: 1, Amount: money("2.50"), Status: models.FinePaid},
			{ID: 5, PatronID: 4, ReasonID: 2, Amount: money("10.00"), Status: models.FineUnpaid},
		},
		Branches: []models.Branch{
			{ID: 1, Name: "Main"},
			{ID: 2, Name: "East"},
			{ID: 3, Name: "West"},
		},
		Subjects: []models.Subject{
			{ID: 1, Name: "Computing"},
			{ID: 2, Name: "Programming"},
			{ID: 3, Name: "Data"},
			{ID: 9, Name: "Unused"},
		},
		Authors: []models.Author{
			{ID: 1, Name: "Ada"},
			{ID: 2, Name: "Brian"},
			{ID: 3, Name: "Carol"},
		},
		BookSubjects: []models.BookSubject{
			{ISBN: "978-0001", SubjectID: 2},
			{ISBN: "978-0001", SubjectID: 1},
			{ISBN: "978-0002", SubjectID: 1},
			{ISBN: "978-0004", SubjectID: 3},
			{ISBN: "978-0005", SubjectID: 1},
			{ISBN: "978-0006", SubjectID: 1},
		},
		BookAuthors: []models.BookAuthor{
			{ISBN: "978-0001", AuthorID: 2},
			{ISBN: "978-0001", AuthorID: 1},
			{ISBN: "978-0002", AuthorID: 1},
			{ISBN: "978-0002", AuthorID: 2},
			{ISBN: "978-0003", AuthorID: 2},
			{ISBN: "978-0003", AuthorID: 3},
			{ISBN: "978-0004", AuthorID: 1},
		},
		Reservations: []models.Reservation{
			{ID: 1, PatronID: 3, ISBN: "978-0002", Status: models.ReservationWaiting},
			{ID: 2, PatronID: 5, ISBN: "978-0003", Status: models.ReservationCancelled},
			{ID: 3, PatronID: 1, ISBN: "978-0004", Status: models.ReservationActive},
			{ID: 4, PatronID: 3, ISBN: "978-0005", Status: models.ReservationActive},
		},
	}
}

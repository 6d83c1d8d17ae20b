package stubs

import (
	"time"

	"github.com/shopspring/decimal"

	"unilib/internal/models"
)

// demoEpoch anchors the demo loans; all of them fall before 2025-01-01
var demoEpoch = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

func demoDay(offset int) time.Time {
	return demoEpoch.AddDate(0, 0, offset)
}

func demoReturn(offset int) *time.Time {
	t := demoDay(offset)
	return &t
}

// DemoSnapshot is a small campus library used by the mock store and the
// development server
func DemoSnapshot() models.Snapshot {
	mit, addison, oreilly := int64(1), int64(2), int64(3)
	return models.Snapshot{
		Patrons: []models.Patron{
			{ID: 1, FirstName: "Maya", LastName: "Fischer", Email: "maya.fischer@uni.edu", Type: models.PatronStudent},
			{ID: 2, FirstName: "Omar", LastName: "Haddad", Email: "omar.haddad@uni.edu", Type: models.PatronFaculty},
			{ID: 3, FirstName: "Ines", LastName: "Moreau", Email: "ines.moreau@uni.edu", Type: models.PatronStaff},
			{ID: 4, FirstName: "Tomas", LastName: "Novak", Email: "tomas.novak@uni.edu", Type: models.PatronAlumni},
			{ID: 5, FirstName: "Priya", LastName: "Raman", Email: "priya.raman@uni.edu", Type: models.PatronStudent},
			{ID: 6, FirstName: "Lars", LastName: "Berg", Email: "lars.berg@uni.edu", Type: models.PatronOther},
		},
		Books: []models.Book{
			{ISBN: "978-0262033848", Title: "Introduction to Algorithms", PubYear: 2009, PublisherID: &mit},
			{ISBN: "978-0134190440", Title: "The Go Programming Language", PubYear: 2015, PublisherID: &addison},
			{ISBN: "978-1449373320", Title: "Designing Data-Intensive Applications", PubYear: 2017, PublisherID: &oreilly},
			{ISBN: "978-0131103627", Title: "The C Programming Language", PubYear: 1988},
			{ISBN: "978-0201633610", Title: "Design Patterns", PubYear: 1994, PublisherID: &addison},
			{ISBN: "978-0596517748", Title: "JavaScript: The Good Parts", PubYear: 2008, PublisherID: &oreilly},
		},
		Publishers: []models.Publisher{
			{ID: 1, Name: "MIT Press"},
			{ID: 2, Name: "Addison-Wesley"},
			{ID: 3, Name: "O'Reilly Media"},
			{ID: 4, Name: "No Starch Press"},
		},
		Branches: []models.Branch{
			{ID: 1, Name: "Central"},
			{ID: 2, Name: "Science"},
		},
		Copies: []models.Copy{
			{ID: 1, ISBN: "978-0262033848", BranchID: 1, Barcode: "C-0001"},
			{ID: 2, ISBN: "978-0262033848", BranchID: 2, Barcode: "S-0001"},
			{ID: 3, ISBN: "978-0134190440", BranchID: 1, Barcode: "C-0002"},
			{ID: 4, ISBN: "978-1449373320", BranchID: 2, Barcode: "S-0002"},
			{ID: 5, ISBN: "978-0131103627", BranchID: 1, Barcode: "C-0003"},
			{ID: 6, ISBN: "978-0201633610", BranchID: 2, Barcode: "S-0003"},
		},
		Loans: []models.Loan{
			{ID: 1, CopyID: 1, PatronID: 1, LoanedAt: demoDay(0), DueAt: demoDay(14), ReturnedAt: demoReturn(12)},
			{ID: 2, CopyID: 3, PatronID: 1, LoanedAt: demoDay(20), DueAt: demoDay(34), ReturnedAt: demoReturn(41)},
			{ID: 3, CopyID: 2, PatronID: 2, LoanedAt: demoDay(25), DueAt: demoDay(53), ReturnedAt: demoReturn(50)},
			{ID: 4, CopyID: 4, PatronID: 2, LoanedAt: demoDay(40), DueAt: demoDay(68)},
			{ID: 5, CopyID: 1, PatronID: 1, LoanedAt: demoDay(55), DueAt: demoDay(69)},
			{ID: 6, CopyID: 5, PatronID: 4, LoanedAt: demoDay(61), DueAt: demoDay(75), ReturnedAt: demoReturn(70)},
			{ID: 7, CopyID: 6, PatronID: 5, LoanedAt: demoDay(80), DueAt: demoDay(94), ReturnedAt: demoReturn(99)},
			{ID: 8, CopyID: 3, PatronID: 5, LoanedAt: demoDay(90), DueAt: demoDay(104)},
			{ID: 9, CopyID: 2, PatronID: 2, LoanedAt: demoDay(100), DueAt: demoDay(128), ReturnedAt: demoReturn(110)},
		},
		FineReasons: []models.FineReason{
			{ID: 1, Code: "OVERDUE", Description: "Overdue return"},
			{ID: 2, Code: "DAMAGE", Description: "Damaged item"},
			{ID: 3, Code: "LOST", Description: "Lost item"},
		},
		Fines: []models.Fine{
			{ID: 1, PatronID: 1, ReasonID: 1, Amount: decimal.RequireFromString("3.50"), Status: models.FinePaid},
			{ID: 2, PatronID: 5, ReasonID: 1, Amount: decimal.RequireFromString("2.50"), Status: models.FineUnpaid},
			{ID: 3, PatronID: 2, ReasonID: 2, Amount: decimal.RequireFromString("45.00"), Status: models.FineUnpaid},
			{ID: 4, PatronID: 1, ReasonID: 2, Amount: decimal.RequireFromString("12.00"), Status: models.FineUnpaid},
		},
		Subjects: []models.Subject{
			{ID: 1, Name: "Computer Science"},
			{ID: 2, Name: "Software Engineering"},
			{ID: 3, Name: "Databases"},
		},
		BookSubjects: []models.BookSubject{
			{ISBN: "978-0262033848", SubjectID: 1},
			{ISBN: "978-0134190440", SubjectID: 2},
			{ISBN: "978-1449373320", SubjectID: 3},
			{ISBN: "978-1449373320", SubjectID: 2},
			{ISBN: "978-0131103627", SubjectID: 1},
			{ISBN: "978-0201633610", SubjectID: 2},
		},
		Authors: []models.Author{
			{ID: 1, Name: "Thomas H. Cormen"},
			{ID: 2, Name: "Charles E. Leiserson"},
			{ID: 3, Name: "Alan Donovan"},
			{ID: 4, Name: "Brian Kernighan"},
			{ID: 5, Name: "Dennis Ritchie"},
			{ID: 6, Name: "Martin Kleppmann"},
			{ID: 7, Name: "Erich Gamma"},
			{ID: 8, Name: "Douglas Crockford"},
		},
		BookAuthors: []models.BookAuthor{
			{ISBN: "978-0262033848", AuthorID: 1},
			{ISBN: "978-0262033848", AuthorID: 2},
			{ISBN: "978-0134190440", AuthorID: 3},
			{ISBN: "978-0134190440", AuthorID: 4},
			{ISBN: "978-0131103627", AuthorID: 4},
			{ISBN: "978-0131103627", AuthorID: 5},
			{ISBN: "978-1449373320", AuthorID: 6},
			{ISBN: "978-0201633610", AuthorID: 7},
			{ISBN: "978-0596517748", AuthorID: 8},
		},
		Reservations: []models.Reservation{
			{ID: 1, PatronID: 3, ISBN: "978-1449373320", Status: models.ReservationWaiting},
			{ID: 2, PatronID: 6, ISBN: "978-0134190440", Status: models.ReservationCancelled},
			{ID: 3, PatronID: 5, ISBN: "978-0262033848", Status: models.ReservationFulfilled},
		},
	}
}

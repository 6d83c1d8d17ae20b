package analytics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unilib/internal/models"
)

func TestNewLedger_IntegrityViolations(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(s *models.Snapshot)
	}{
		{"due before checkout", func(s *models.Snapshot) { s.Loans[0].DueAt = day(2024, 4, 1) }},
		{"returned before checkout", func(s *models.Snapshot) { s.Loans[2].ReturnedAt = at(2024, 3, 1) }},
		{"loan with unknown copy", func(s *models.Snapshot) { s.Loans[0].CopyID = 404 }},
		{"loan with unknown patron", func(s *models.Snapshot) { s.Loans[0].PatronID = 404 }},
		{"copy with unknown book", func(s *models.Snapshot) { s.Copies[0].ISBN = "missing" }},
		{"copy with unknown branch", func(s *models.Snapshot) { s.Copies[0].BranchID = 404 }},
		{"fine with unknown reason", func(s *models.Snapshot) { s.Fines[0].ReasonID = 404 }},
		{"fine with unknown patron", func(s *models.Snapshot) { s.Fines[0].PatronID = 404 }},
		{"negative fine", func(s *models.Snapshot) { s.Fines[0].Amount = money("-1") }},
		{"fine status in another case", func(s *models.Snapshot) { s.Fines[0].Status = "UNPAID" }},
		{"fine without status", func(s *models.Snapshot) { s.Fines[0].Status = "" }},
		{"reservation with unknown book", func(s *models.Snapshot) { s.Reservations[0].ISBN = "missing" }},
		{"negative balance", func(s *models.Snapshot) { s.Patrons[0].Balance = money("-0.01") }},
		{"duplicate isbn", func(s *models.Snapshot) { s.Books[1].ISBN = s.Books[0].ISBN }},
		{"book with unknown publisher", func(s *models.Snapshot) { s.Publishers = s.Publishers[:1] }},
		{"duplicate publisher", func(s *models.Snapshot) { s.Publishers[1].ID = s.Publishers[0].ID }},
		{"duplicate patron", func(s *models.Snapshot) { s.Patrons[1].ID = s.Patrons[0].ID }},
		{"duplicate loan", func(s *models.Snapshot) { s.Loans[1].ID = s.Loans[0].ID }},
		{"reservation with unknown patron", func(s *models.Snapshot) { s.Reservations[0].PatronID = 404 }},
		{"unknown subject link", func(s *models.Snapshot) { s.BookSubjects[0].SubjectID = 404 }},
		{"unknown author link", func(s *models.Snapshot) { s.BookAuthors[0].AuthorID = 404 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snap := fixtureSnapshot()
			tc.mutate(snap)
			ledger, err := NewLedger(snap, testAsOf)
			assert.Nil(t, ledger)
			assert.True(t, errors.Is(err, ErrDataIntegrity), "got %v", err)
		})
	}
}

func TestNewLedger_InvalidInput(t *testing.T) {
	_, err := NewLedger(fixtureSnapshot(), time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAsOf)

	_, err = NewLedger(nil, testAsOf)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestNewLedger_MissingOptionalRelationships(t *testing.T) {
	snap := &models.Snapshot{
		Patrons: []models.Patron{{ID: 1, FirstName: "Solo", Type: models.PatronOther}},
		Books:   []models.Book{{ISBN: "x", Title: "Untagged"}},
	}
	ledger, err := NewLedger(snap, testAsOf)
	require.NoError(t, err)

	assert.Empty(t, ledger.OverdueRisk(0))
	assert.Equal(t, RiskLow, ledger.PatronRisk()[0].Class)
	assert.Equal(t, 0, ledger.TopBooks(0)[0].TimesLoaned)
	assert.Empty(t, ledger.FineAnalysis())
	assert.Empty(t, ledger.MultiBranchPatrons())
	assert.Empty(t, ledger.CoAuthorPairs())
	assert.Empty(t, ledger.RepeatBorrowers())
	assert.Empty(t, ledger.ReservationsWithoutLoan())

	summary := ledger.Summary()
	assert.Nil(t, summary.OverdueRatePct)
	assert.True(t, summary.UnpaidFines.IsZero())
}

func TestLedger_Summary(t *testing.T) {
	ledger, err := NewLedger(fixtureSnapshot(), testAsOf)
	require.NoError(t, err)

	s := ledger.Summary()
	assert.Equal(t, 5, s.Patrons)
	assert.Equal(t, 6, s.Books)
	assert.Equal(t, 6, s.Copies)
	assert.Equal(t, 8, s.Loans)
	assert.Equal(t, 4, s.OpenLoans)
	assert.Equal(t, 2, s.OverdueLoans)
	assert.Equal(t, 4, s.ReturnedLoans)
	assert.Equal(t, "70", s.UnpaidFines.String())
	require.NotNil(t, s.OverdueRatePct)
	assert.Equal(t, "50", s.OverdueRatePct.String())
}

func TestLedger_ConcurrentReportsAreDeterministic(t *testing.T) {
	ledger, err := NewLedger(fixtureSnapshot(), testAsOf)
	require.NoError(t, err)

	wantRisk := ledger.OverdueRisk(0)
	wantRanking := ledger.SubjectRanking(AllSubjects())
	wantPairs := ledger.CoAuthorPairs()
	wantRepeats := ledger.RepeatBorrowers()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, wantRisk, ledger.OverdueRisk(0))
			assert.Equal(t, wantRanking, ledger.SubjectRanking(AllSubjects()))
			assert.Equal(t, wantPairs, ledger.CoAuthorPairs())
			assert.Equal(t, wantRepeats, ledger.RepeatBorrowers())
			ledger.MonthlyTrend()
			ledger.FineAnalysis()
			ledger.PopularityHistogram()
		}()
	}
	wg.Wait()
}

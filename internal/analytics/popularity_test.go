package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unilib/internal/models"
)

func TestLedger_TopBooks(t *testing.T) {
	ledger, err := NewLedger(fixtureSnapshot(), testAsOf)
	require.NoError(t, err)

	top := ledger.TopBooks(TopBooksLimit)
	require.Len(t, top, 6)

	var titles []string
	for _, b := range top {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"Go in Action", "Algorithms", "Databases", "Networks", "Zen", "Compilers"}, titles)
	assert.Equal(t, 4, top[0].TimesLoaned)
	assert.Equal(t, 0, top[5].TimesLoaned)

	assert.Len(t, ledger.TopBooks(2), 2)
}

func TestLedger_TopBooksTitleOrderIsCaseSensitive(t *testing.T) {
	snap := &models.Snapshot{
		Books: []models.Book{
			{ISBN: "1", Title: "apple"},
			{ISBN: "2", Title: "Zebra"},
			{ISBN: "3", Title: "Apple"},
		},
	}
	ledger, err := NewLedger(snap, testAsOf)
	require.NoError(t, err)

	top := ledger.TopBooks(TopBooksLimit)
	assert.Equal(t, "Apple", top[0].Title)
	assert.Equal(t, "Zebra", top[1].Title)
	assert.Equal(t, "apple", top[2].Title)
}

func TestCompetitionRanks(t *testing.T) {
	books := []BookPopularity{
		{TimesLoaned: 9}, {TimesLoaned: 7}, {TimesLoaned: 7}, {TimesLoaned: 7}, {TimesLoaned: 3}, {TimesLoaned: 0}, {TimesLoaned: 0},
	}
	assert.Equal(t, []int{1, 2, 2, 2, 5, 6, 6}, competitionRanks(books))
	assert.Empty(t, competitionRanks(nil))
}

func TestLedger_SubjectRanking(t *testing.T) {
	ledger, err := NewLedger(fixtureSnapshot(), testAsOf)
	require.NoError(t, err)

	t.Run("all subjects", func(t *testing.T) {
		ranking := ledger.SubjectRanking(AllSubjects())
		assert.False(t, ranking.UnknownSubject)
		require.Len(t, ranking.Books, 6)

		type row struct {
			subject string
			title   string
			rank    int
		}
		var rows []row
		for _, b := range ranking.Books {
			rows = append(rows, row{b.SubjectName, b.Title, b.Rank})
		}
		// Go in Action carries subjects 2 and 1 and files under 1
		assert.Equal(t, []row{
			{"Computing", "Go in Action", 1},
			{"Computing", "Algorithms", 2},
			{"Computing", "Networks", 2},
			{"Computing", "Compilers", 4},
			{"Data", "Databases", 1},
			{"", "Zen", 1},
		}, rows)
		assert.Nil(t, ranking.Books[5].SubjectID)
		require.NotNil(t, ranking.Books[0].SubjectID)
		assert.Equal(t, int64(1), *ranking.Books[0].SubjectID)
	})

	t.Run("one subject matches any of a book's subjects", func(t *testing.T) {
		ranking := ledger.SubjectRanking(OnlySubject(2))
		assert.False(t, ranking.UnknownSubject)
		require.Len(t, ranking.Books, 1)
		assert.Equal(t, "Go in Action", ranking.Books[0].Title)
		assert.Equal(t, "Programming", ranking.Books[0].SubjectName)
		assert.Equal(t, 1, ranking.Books[0].Rank)
	})

	t.Run("known subject without books", func(t *testing.T) {
		ranking := ledger.SubjectRanking(OnlySubject(9))
		assert.False(t, ranking.UnknownSubject)
		assert.Empty(t, ranking.Books)
	})

	t.Run("unknown subject", func(t *testing.T) {
		ranking := ledger.SubjectRanking(OnlySubject(404))
		assert.True(t, ranking.UnknownSubject)
		assert.NotNil(t, ranking.Books)
		assert.Empty(t, ranking.Books)
	})

	t.Run("books without subject", func(t *testing.T) {
		ranking := ledger.SubjectRanking(WithoutSubject())
		require.Len(t, ranking.Books, 1)
		assert.Equal(t, "Zen", ranking.Books[0].Title)
		assert.Nil(t, ranking.Books[0].SubjectID)
	})
}

func TestLedger_PopularityHistogram(t *testing.T) {
	ledger, err := NewLedger(fixtureSnapshot(), testAsOf)
	require.NoError(t, err)

	buckets := ledger.PopularityHistogram()
	require.Len(t, buckets, 5)
	assert.Equal(t, "Never Loaned (0)", buckets[0].Label)
	assert.Equal(t, "Very High (>30)", buckets[4].Label)

	never := buckets[0]
	assert.Equal(t, 1, never.Books)
	require.NotNil(t, never.Min)
	assert.Equal(t, 0, *never.Min)

	low := buckets[1]
	assert.Equal(t, 5, low.Books)
	assert.Equal(t, 8, low.Sum)
	assert.Equal(t, "1.6", low.Avg.String())
	assert.Equal(t, 1, *low.Min)
	assert.Equal(t, 4, *low.Max)

	for _, b := range buckets[2:] {
		assert.Zero(t, b.Books, b.Label)
		assert.Zero(t, b.Sum, b.Label)
		assert.Nil(t, b.Avg, b.Label)
		assert.Nil(t, b.Min, b.Label)
		assert.Nil(t, b.Max, b.Label)
	}
}

func TestLedger_PopularityHistogramBoundaries(t *testing.T) {
	counts := map[string]int{"a": 5, "b": 6, "c": 15, "d": 16, "e": 30, "f": 31}
	snap := &models.Snapshot{
		Patrons:  []models.Patron{{ID: 1, Type: models.PatronStudent}},
		Branches: []models.Branch{{ID: 1, Name: "Main"}},
	}
	var loanID int64
	for isbn, n := range counts {
		snap.Books = append(snap.Books, models.Book{ISBN: isbn, Title: isbn})
		copyID := int64(len(snap.Copies) + 1)
		snap.Copies = append(snap.Copies, models.Copy{ID: copyID, ISBN: isbn, BranchID: 1})
		for i := 0; i < n; i++ {
			loanID++
			snap.Loans = append(snap.Loans, models.Loan{
				ID: loanID, CopyID: copyID, PatronID: 1,
				LoanedAt: day(2024, 1, 1), DueAt: day(2024, 1, 8), ReturnedAt: at(2024, 1, 2),
			})
		}
	}

	ledger, err := NewLedger(snap, testAsOf)
	require.NoError(t, err)

	buckets := ledger.PopularityHistogram()
	got := make([]int, len(buckets))
	for i, b := range buckets {
		got[i] = b.Books
	}
	assert.Equal(t, []int{0, 1, 2, 2, 1}, got)
	assert.Equal(t, 6, *buckets[2].Min)
	assert.Equal(t, 15, *buckets[2].Max)
	assert.Equal(t, 31, buckets[4].Sum)
}

package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unilib/internal/models"
)

func TestLedger_PatronDirectory(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Patrons[0], snap.Patrons[4] = snap.Patrons[4], snap.Patrons[0]
	ledger, err := NewLedger(snap, testAsOf)
	require.NoError(t, err)

	patrons := ledger.PatronDirectory()
	require.Len(t, patrons, 5)
	for i, p := range patrons {
		assert.Equal(t, int64(i+1), p.ID)
	}
	assert.Equal(t, "3.5", patrons[4].Balance.String())

	// the snapshot order is left alone
	assert.Equal(t, int64(5), snap.Patrons[0].ID)
}

func TestLedger_BookCatalogue(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Books = append(snap.Books, models.Book{ISBN: "978-0000", Title: "Zen", PubYear: 1999})
	ledger, err := NewLedger(snap, testAsOf)
	require.NoError(t, err)

	books := ledger.BookCatalogue()
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}
	assert.Equal(t, []string{"Algorithms", "Compilers", "Databases", "Go in Action", "Networks", "Zen", "Zen"}, titles)

	// equal titles fall back to isbn
	assert.Equal(t, "978-0000", books[5].ISBN)
	assert.Equal(t, "978-0003", books[6].ISBN)

	require.NotNil(t, books[2].PublisherName)
	assert.Equal(t, "O'Reilly", *books[2].PublisherName)
	require.NotNil(t, books[3].PublisherName)
	assert.Equal(t, "Manning", *books[3].PublisherName)
	assert.Nil(t, books[0].PublisherName)
}

func TestLedger_EmptyDirectories(t *testing.T) {
	ledger, err := NewLedger(&models.Snapshot{}, testAsOf)
	require.NoError(t, err)
	assert.Empty(t, ledger.PatronDirectory())
	assert.Empty(t, ledger.BookCatalogue())
}

package analytics

import (
	"cmp"
	"slices"

	"unilib/internal/models"
)

// CatalogueEntry is one book with its publisher resolved.
// PublisherName is nil for books with no recorded publisher.
type CatalogueEntry struct {
	ISBN          string  `json:"isbn"`
	Title         string  `json:"title"`
	PubYear       int     `json:"pub_year"`
	PublisherName *string `json:"publisher_name"`
}

// PatronDirectory lists every patron ordered by id
func (l *Ledger) PatronDirectory() []models.Patron {
	out := slices.Clone(l.snap.Patrons)
	slices.SortFunc(out, func(a, b models.Patron) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// BookCatalogue lists every book ordered by title, then isbn
func (l *Ledger) BookCatalogue() []CatalogueEntry {
	out := make([]CatalogueEntry, 0, len(l.snap.Books))
	for _, b := range l.snap.Books {
		e := CatalogueEntry{ISBN: b.ISBN, Title: b.Title, PubYear: b.PubYear}
		if b.PublisherID != nil {
			name := l.pubs[*b.PublisherID].Name
			e.PublisherName = &name
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b CatalogueEntry) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ISBN, b.ISBN))
	})
	return out
}

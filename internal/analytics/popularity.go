package analytics

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// TopBooksLimit is the size of the global popularity ranking
const TopBooksLimit = 10

// BookPopularity is the loan volume of one book
type BookPopularity struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	TimesLoaned int    `json:"times_loaned"`
}

func byTimesLoanedThenTitle(a, b BookPopularity) int {
	if c := cmp.Compare(b.TimesLoaned, a.TimesLoaned); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return cmp.Compare(a.ISBN, b.ISBN)
}

// popularity returns every book with its loan count, in snapshot order
func (l *Ledger) popularity() []BookPopularity {
	out := make([]BookPopularity, 0, len(l.snap.Books))
	for _, b := range l.snap.Books {
		out = append(out, BookPopularity{ISBN: b.ISBN, Title: b.Title, TimesLoaned: l.loaned[b.ISBN]})
	}
	return out
}

// TopBooks ranks all books by times loaned, ties by title.
// A limit <= 0 returns every book.
func (l *Ledger) TopBooks(limit int) []BookPopularity {
	out := l.popularity()
	slices.SortFunc(out, byTimesLoanedThenTitle)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// SubjectFilter selects which books a subject ranking covers
type SubjectFilter struct {
	kind      filterKind
	subjectID int64
}

type filterKind int

const (
	filterAll filterKind = iota
	filterSubject
	filterNone
)

// AllSubjects ranks every book within its primary-subject partition
func AllSubjects() SubjectFilter { return SubjectFilter{kind: filterAll} }

// OnlySubject ranks the books carrying subject id
func OnlySubject(id int64) SubjectFilter { return SubjectFilter{kind: filterSubject, subjectID: id} }

// WithoutSubject ranks the books that have no subject
func WithoutSubject() SubjectFilter { return SubjectFilter{kind: filterNone} }

// SubjectID returns the filtered subject id, if the filter names one
func (f SubjectFilter) SubjectID() (int64, bool) {
	return f.subjectID, f.kind == filterSubject
}

// RankedBook is a book with its competition rank inside a subject partition
type RankedBook struct {
	BookPopularity
	// SubjectID is nil for the partition of books without subjects
	SubjectID   *int64 `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Rank        int    `json:"rank"`
}

// SubjectRanking is the result of a subject-partitioned ranking
type SubjectRanking struct {
	// UnknownSubject is set when the filter named a subject that does not exist
	UnknownSubject bool         `json:"unknown_subject"`
	Books          []RankedBook `json:"books"`
}

// SubjectRanking ranks books by times loaned inside subject partitions.
//
// Without a filter each book belongs to its lowest-numbered subject, and
// books without subjects form a trailing partition of their own. Within a
// partition equal loan counts share a rank and the next distinct count
// resumes at its 1-based position (1, 1, 3). Ties are listed by title.
func (l *Ledger) SubjectRanking(filter SubjectFilter) SubjectRanking {
	subjectsOf := make(map[string][]int64, len(l.snap.Books))
	for _, bs := range l.snap.BookSubjects {
		subjectsOf[bs.ISBN] = append(subjectsOf[bs.ISBN], bs.SubjectID)
	}

	type partition struct {
		id    *int64
		books []BookPopularity
	}
	parts := make(map[int64]*partition)
	unfiled := &partition{}

	switch filter.kind {
	case filterSubject:
		if _, ok := l.subjects[filter.subjectID]; !ok {
			return SubjectRanking{UnknownSubject: true, Books: []RankedBook{}}
		}
		id := filter.subjectID
		p := &partition{id: &id}
		for _, bp := range l.popularity() {
			if slices.Contains(subjectsOf[bp.ISBN], id) {
				p.books = append(p.books, bp)
			}
		}
		parts[id] = p
		unfiled = nil
	default:
		for _, bp := range l.popularity() {
			ids := subjectsOf[bp.ISBN]
			if len(ids) == 0 {
				unfiled.books = append(unfiled.books, bp)
				continue
			}
			if filter.kind == filterNone {
				continue
			}
			primary := slices.Min(ids)
			p, ok := parts[primary]
			if !ok {
				p = &partition{id: &primary}
				parts[primary] = p
			}
			p.books = append(p.books, bp)
		}
	}

	ids := make([]int64, 0, len(parts))
	for id := range parts {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	ordered := make([]*partition, 0, len(parts)+1)
	for _, id := range ids {
		ordered = append(ordered, parts[id])
	}
	if unfiled != nil && len(unfiled.books) > 0 {
		ordered = append(ordered, unfiled)
	}

	out := SubjectRanking{Books: []RankedBook{}}
	for _, p := range ordered {
		name := ""
		if p.id != nil {
			name = l.subjects[*p.id].Name
		}
		slices.SortFunc(p.books, byTimesLoanedThenTitle)
		for i, rank := range competitionRanks(p.books) {
			out.Books = append(out.Books, RankedBook{
				BookPopularity: p.books[i],
				SubjectID:      p.id,
				SubjectName:    name,
				Rank:           rank,
			})
		}
	}
	return out
}

// competitionRanks assigns standard competition ranks to books already
// sorted by times loaned descending.
func competitionRanks(books []BookPopularity) []int {
	ranks := make([]int, len(books))
	for i := range books {
		if i > 0 && books[i].TimesLoaned == books[i-1].TimesLoaned {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// PopularityBucket summarises the books whose loan count falls in a range
type PopularityBucket struct {
	Label string `json:"label"`
	Books int    `json:"books"`
	// Avg, Min and Max are nil for an empty bucket
	Avg *decimal.Decimal `json:"avg_times_loaned"`
	Min *int             `json:"min_times_loaned"`
	Max *int             `json:"max_times_loaned"`
	Sum int              `json:"total_times_loaned"`
}

type bucketRange struct {
	label    string
	min, max int // max < 0 means unbounded
}

var popularityBuckets = []bucketRange{
	{"Never Loaned (0)", 0, 0},
	{"Low (1–5)", 1, 5},
	{"Medium (6–15)", 6, 15},
	{"High (16–30)", 16, 30},
	{"Very High (>30)", 31, -1},
}

// PopularityHistogram buckets books by times loaned. All five buckets are
// always returned, in fixed order.
func (l *Ledger) PopularityHistogram() []PopularityBucket {
	out := make([]PopularityBucket, len(popularityBuckets))
	for i, r := range popularityBuckets {
		out[i].Label = r.label
	}

	for _, bp := range l.popularity() {
		n := bp.TimesLoaned
		for i, r := range popularityBuckets {
			if n < r.min || (r.max >= 0 && n > r.max) {
				continue
			}
			b := &out[i]
			b.Books++
			b.Sum += n
			if b.Min == nil || n < *b.Min {
				b.Min = &n
			}
			if b.Max == nil || n > *b.Max {
				b.Max = &n
			}
			break
		}
	}

	for i := range out {
		if out[i].Books == 0 {
			continue
		}
		avg := decimal.NewFromInt(int64(out[i].Sum)).
			DivRound(decimal.NewFromInt(int64(out[i].Books)), 2)
		out[i].Avg = &avg
	}
	return out
}

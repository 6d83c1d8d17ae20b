package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"unilib/internal/models"
	"unilib/internal/storage"
)

type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	// Tables are managed via migrations (see migrations/clickhouse)
	return nil
}

// Snapshot reads every ledger table as of asOf.
// Loans checked out after the as-of day are filtered in the query; later
// returns are cleared by storage.ClipToInstant.
func (db *ClickHouseDB) Snapshot(ctx context.Context, asOf time.Time) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	var err error

	if snap.Patrons, err = queryAll(ctx, db.conn, "patrons", `
		SELECT patron_id, first_name, last_name, email, patron_type, balance
		FROM patrons ORDER BY patron_id`, scanPatron); err != nil {
		return nil, err
	}
	if snap.Books, err = queryAll(ctx, db.conn, "books", `
		SELECT isbn, title, pub_year, publisher_id
		FROM books ORDER BY isbn`, scanBook); err != nil {
		return nil, err
	}
	if snap.Publishers, err = queryAll(ctx, db.conn, "publishers", `
		SELECT publisher_id, name FROM publishers ORDER BY publisher_id`, func(rows driver.Rows) (p models.Publisher, err error) {
		err = rows.Scan(&p.ID, &p.Name)
		return
	}); err != nil {
		return nil, err
	}
	if snap.Copies, err = queryAll(ctx, db.conn, "copies", `
		SELECT copy_id, isbn, branch_id, barcode
		FROM copies ORDER BY copy_id`, func(rows driver.Rows) (c models.Copy, err error) {
		err = rows.Scan(&c.ID, &c.ISBN, &c.BranchID, &c.Barcode)
		return
	}); err != nil {
		return nil, err
	}
	if snap.Loans, err = queryAll(ctx, db.conn, "loans", `
		SELECT loan_id, copy_id, patron_id, loan_ts, due_ts, return_ts
		FROM loans
		WHERE loan_ts IS NULL OR loan_ts < ?
		ORDER BY loan_id`, scanLoan, storage.Cutoff(asOf)); err != nil {
		return nil, err
	}
	if snap.Fines, err = queryAll(ctx, db.conn, "fines", `
		SELECT fine_id, patron_id, reason_id, amount, status
		FROM fines ORDER BY fine_id`, func(rows driver.Rows) (f models.Fine, err error) {
		var status string
		err = rows.Scan(&f.ID, &f.PatronID, &f.ReasonID, &f.Amount, &status)
		f.Status = models.FineStatus(status)
		return
	}); err != nil {
		return nil, err
	}
	if snap.FineReasons, err = queryAll(ctx, db.conn, "fine reasons", `
		SELECT reason_id, code, description
		FROM fine_reasons ORDER BY reason_id`, func(rows driver.Rows) (r models.FineReason, err error) {
		err = rows.Scan(&r.ID, &r.Code, &r.Description)
		return
	}); err != nil {
		return nil, err
	}
	if snap.Branches, err = queryAll(ctx, db.conn, "branches", `
		SELECT branch_id, name FROM branches ORDER BY branch_id`, func(rows driver.Rows) (b models.Branch, err error) {
		err = rows.Scan(&b.ID, &b.Name)
		return
	}); err != nil {
		return nil, err
	}
	if snap.Subjects, err = queryAll(ctx, db.conn, "subjects", `
		SELECT subject_id, name FROM subjects ORDER BY subject_id`, func(rows driver.Rows) (s models.Subject, err error) {
		err = rows.Scan(&s.ID, &s.Name)
		return
	}); err != nil {
		return nil, err
	}
	if snap.Authors, err = queryAll(ctx, db.conn, "authors", `
		SELECT author_id, name FROM authors ORDER BY author_id`, func(rows driver.Rows) (a models.Author, err error) {
		err = rows.Scan(&a.ID, &a.Name)
		return
	}); err != nil {
		return nil, err
	}
	if snap.BookSubjects, err = queryAll(ctx, db.conn, "book subjects", `
		SELECT isbn, subject_id FROM book_subjects ORDER BY isbn, subject_id`, func(rows driver.Rows) (bs models.BookSubject, err error) {
		err = rows.Scan(&bs.ISBN, &bs.SubjectID)
		return
	}); err != nil {
		return nil, err
	}
	if snap.BookAuthors, err = queryAll(ctx, db.conn, "book authors", `
		SELECT isbn, author_id FROM book_authors ORDER BY isbn, author_id`, func(rows driver.Rows) (ba models.BookAuthor, err error) {
		err = rows.Scan(&ba.ISBN, &ba.AuthorID)
		return
	}); err != nil {
		return nil, err
	}
	if snap.Reservations, err = queryAll(ctx, db.conn, "reservations", `
		SELECT reservation_id, patron_id, isbn, status
		FROM reservations ORDER BY reservation_id`, func(rows driver.Rows) (r models.Reservation, err error) {
		var status string
		err = rows.Scan(&r.ID, &r.PatronID, &r.ISBN, &status)
		r.Status = models.ReservationStatus(status)
		return
	}); err != nil {
		return nil, err
	}

	storage.ClipToInstant(snap, asOf)
	return snap, nil
}

func queryAll[T any](ctx context.Context, conn clickhouse.Conn, what, query string, scan func(driver.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}
	return out, nil
}

func scanPatron(rows driver.Rows) (models.Patron, error) {
	var p models.Patron
	var patronType string
	if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &patronType, &p.Balance); err != nil {
		return p, err
	}
	p.Type = models.PatronType(patronType)
	return p, nil
}

func scanBook(rows driver.Rows) (models.Book, error) {
	var b models.Book
	var year int32
	if err := rows.Scan(&b.ISBN, &b.Title, &year, &b.PublisherID); err != nil {
		return b, err
	}
	b.PubYear = int(year)
	return b, nil
}

func scanLoan(rows driver.Rows) (models.Loan, error) {
	var l models.Loan
	var loanedAt *time.Time
	if err := rows.Scan(&l.ID, &l.CopyID, &l.PatronID, &loanedAt, &l.DueAt, &l.ReturnedAt); err != nil {
		return l, err
	}
	if loanedAt != nil {
		l.LoanedAt = loanedAt.UTC()
	}
	l.DueAt = l.DueAt.UTC()
	if l.ReturnedAt != nil {
		ret := l.ReturnedAt.UTC()
		l.ReturnedAt = &ret
	}
	return l, nil
}

// Load appends every row of snap to the ledger tables
func (db *ClickHouseDB) Load(ctx context.Context, snap *models.Snapshot) error {
	type table struct {
		name string
		rows [][]any
	}
	var tables []table

	add := func(name string, n int, row func(i int) []any) {
		t := table{name: name, rows: make([][]any, n)}
		for i := range n {
			t.rows[i] = row(i)
		}
		tables = append(tables, t)
	}
	add("patrons", len(snap.Patrons), func(i int) []any {
		p := snap.Patrons[i]
		return []any{p.ID, p.FirstName, p.LastName, p.Email, string(p.Type), p.Balance}
	})
	add("books", len(snap.Books), func(i int) []any {
		b := snap.Books[i]
		return []any{b.ISBN, b.Title, int32(b.PubYear), b.PublisherID}
	})
	add("publishers", len(snap.Publishers), func(i int) []any {
		return []any{snap.Publishers[i].ID, snap.Publishers[i].Name}
	})
	add("copies", len(snap.Copies), func(i int) []any {
		c := snap.Copies[i]
		return []any{c.ID, c.ISBN, c.BranchID, c.Barcode}
	})
	add("loans", len(snap.Loans), func(i int) []any {
		l := snap.Loans[i]
		var loanedAt *time.Time
		if !l.LoanedAt.IsZero() {
			loanedAt = &l.LoanedAt
		}
		return []any{l.ID, l.CopyID, l.PatronID, loanedAt, l.DueAt, l.ReturnedAt}
	})
	add("fines", len(snap.Fines), func(i int) []any {
		f := snap.Fines[i]
		return []any{f.ID, f.PatronID, f.ReasonID, f.Amount, string(f.Status)}
	})
	add("fine_reasons", len(snap.FineReasons), func(i int) []any {
		r := snap.FineReasons[i]
		return []any{r.ID, r.Code, r.Description}
	})
	add("branches", len(snap.Branches), func(i int) []any {
		return []any{snap.Branches[i].ID, snap.Branches[i].Name}
	})
	add("subjects", len(snap.Subjects), func(i int) []any {
		return []any{snap.Subjects[i].ID, snap.Subjects[i].Name}
	})
	add("authors", len(snap.Authors), func(i int) []any {
		return []any{snap.Authors[i].ID, snap.Authors[i].Name}
	})
	add("book_subjects", len(snap.BookSubjects), func(i int) []any {
		return []any{snap.BookSubjects[i].ISBN, snap.BookSubjects[i].SubjectID}
	})
	add("book_authors", len(snap.BookAuthors), func(i int) []any {
		return []any{snap.BookAuthors[i].ISBN, snap.BookAuthors[i].AuthorID}
	})
	add("reservations", len(snap.Reservations), func(i int) []any {
		r := snap.Reservations[i]
		return []any{r.ID, r.PatronID, r.ISBN, string(r.Status)}
	})

	for _, t := range tables {
		if len(t.rows) == 0 {
			continue
		}
		if err := sendBatch(ctx, db.conn, t.name, t.rows); err != nil {
			return err
		}
	}
	return nil
}

// batchPreparer is the part of clickhouse.Conn that Load needs
type batchPreparer interface {
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
}

// sendBatch inserts rows into table as one batch. A batch that fails
// before Send is aborted so the connection returns to the pool.
func sendBatch(ctx context.Context, conn batchPreparer, table string, rows [][]any) error {
	batch, err := conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("failed to prepare %s batch: %w", table, err)
	}
	// no-op once the batch has been sent
	defer func() { _ = batch.Abort() }()

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("failed to append to %s: %w", table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert %s: %w", table, err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Package mysql reads the ledger from the UniLib MySQL schema
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"unilib/internal/models"
	"unilib/internal/storage"
)

const dialectMySQL = "mysql"

// DB is a MySQL backed storage.Storage
type DB struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewDB connects to MySQL and verifies the connection
func NewDB(host string, port int, database, user, password string) (*DB, error) {
	cfg := driver.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = database
	// DATETIME -> time.Time, always read as UTC
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &DB{db: db, dialect: goquDialect()}, nil
}

func goquDialect() goqu.DialectWrapper {
	return goqu.Dialect(dialectMySQL)
}

// Initialize is a no-op - tables are managed via migrations
func (d *DB) Initialize(ctx context.Context) error {
	return nil
}

// Snapshot reads every table inside one read-only repeatable-read
// transaction, so all collections come from the same consistent view
func (d *DB) Snapshot(ctx context.Context, asOf time.Time) (*models.Snapshot, error) {
	tx, err := d.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	snap := &models.Snapshot{}
	if snap.Patrons, err = selectAll[models.Patron, patronRecord](ctx, tx, d.table("Patron", &patronRecord{}, "patron_id"), "patrons"); err != nil {
		return nil, err
	}
	if snap.Books, err = selectAll[models.Book, bookRecord](ctx, tx, d.table("Book", &bookRecord{}, "isbn"), "books"); err != nil {
		return nil, err
	}
	if snap.Publishers, err = selectAll[models.Publisher, publisherRecord](ctx, tx, d.table("Publisher", &publisherRecord{}, "publisher_id"), "publishers"); err != nil {
		return nil, err
	}
	if snap.Copies, err = selectAll[models.Copy, copyRecord](ctx, tx, d.table("Copy", &copyRecord{}, "copy_id"), "copies"); err != nil {
		return nil, err
	}
	if snap.Loans, err = selectAll[models.Loan, loanRecord](ctx, tx, d.loans(asOf), "loans"); err != nil {
		return nil, err
	}
	if snap.Fines, err = selectAll[models.Fine, fineRecord](ctx, tx, d.table("Fine", &fineRecord{}, "fine_id"), "fines"); err != nil {
		return nil, err
	}
	if snap.FineReasons, err = selectAll[models.FineReason, reasonRecord](ctx, tx, d.table("FineReason", &reasonRecord{}, "reason_id"), "fine reasons"); err != nil {
		return nil, err
	}
	if snap.Branches, err = selectAll[models.Branch, branchRecord](ctx, tx, d.table("Branch", &branchRecord{}, "branch_id"), "branches"); err != nil {
		return nil, err
	}
	if snap.Subjects, err = selectAll[models.Subject, subjectRecord](ctx, tx, d.table("Subject", &subjectRecord{}, "subject_id"), "subjects"); err != nil {
		return nil, err
	}
	if snap.Authors, err = selectAll[models.Author, authorRecord](ctx, tx, d.table("Author", &authorRecord{}, "author_id"), "authors"); err != nil {
		return nil, err
	}
	if snap.BookSubjects, err = selectAll[models.BookSubject, bookSubjectRecord](ctx, tx, d.table("BookSubject", &bookSubjectRecord{}, "isbn", "subject_id"), "book subjects"); err != nil {
		return nil, err
	}
	if snap.BookAuthors, err = selectAll[models.BookAuthor, bookAuthorRecord](ctx, tx, d.table("BookAuthor", &bookAuthorRecord{}, "isbn", "author_id"), "book authors"); err != nil {
		return nil, err
	}
	if snap.Reservations, err = selectAll[models.Reservation, reservationRecord](ctx, tx, d.table("Reservation", &reservationRecord{}, "reservation_id"), "reservations"); err != nil {
		return nil, err
	}

	storage.ClipToInstant(snap, asOf)
	return snap, nil
}

// table selects the record's columns ordered by the given keys
func (d *DB) table(name string, record any, orderBy ...string) *goqu.SelectDataset {
	order := make([]exp.OrderedExpression, len(orderBy))
	for i, col := range orderBy {
		order[i] = goqu.I(col).Asc()
	}
	return d.dialect.From(name).Select(record).Order(order...)
}

// loans drops loans checked out after the as-of day; a NULL loan_ts is kept
func (d *DB) loans(asOf time.Time) *goqu.SelectDataset {
	return d.table("Loan", &loanRecord{}, "loan_id").Where(goqu.Or(
		goqu.C("loan_ts").IsNull(),
		goqu.C("loan_ts").Lt(storage.Cutoff(asOf)),
	))
}

func selectAll[M any, R interface{ model() M }](ctx context.Context, tx *sqlx.Tx, ds *goqu.SelectDataset, what string) ([]M, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", what, err)
	}

	var records []R
	if err := tx.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}

	out := make([]M, len(records))
	for i, r := range records {
		out[i] = r.model()
	}
	return out, nil
}

// Load inserts every row of snap in foreign key order inside one transaction
func (d *DB) Load(ctx context.Context, snap *models.Snapshot) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load transaction: %w", err)
	}
	defer tx.Rollback()

	inserts := []struct {
		table string
		rows  any
		n     int
	}{
		{"Patron", mapRows(snap.Patrons, func(p models.Patron) patronRecord {
			return patronRecord{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, Type: string(p.Type), Balance: p.Balance}
		}), len(snap.Patrons)},
		{"Publisher", mapRows(snap.Publishers, func(p models.Publisher) publisherRecord {
			return publisherRecord{ID: p.ID, Name: p.Name}
		}), len(snap.Publishers)},
		{"Book", mapRows(snap.Books, func(b models.Book) bookRecord {
			r := bookRecord{ISBN: b.ISBN, Title: b.Title, PubYear: sql.NullInt32{Int32: int32(b.PubYear), Valid: b.PubYear != 0}}
			if b.PublisherID != nil {
				r.PublisherID = sql.NullInt64{Int64: *b.PublisherID, Valid: true}
			}
			return r
		}), len(snap.Books)},
		{"Branch", mapRows(snap.Branches, func(b models.Branch) branchRecord {
			return branchRecord{ID: b.ID, Name: b.Name}
		}), len(snap.Branches)},
		{"Copy", mapRows(snap.Copies, func(c models.Copy) copyRecord {
			return copyRecord{ID: c.ID, ISBN: c.ISBN, BranchID: c.BranchID, Barcode: c.Barcode}
		}), len(snap.Copies)},
		{"Loan", mapRows(snap.Loans, func(l models.Loan) loanRecord {
			return loanRecord{ID: l.ID, CopyID: l.CopyID, PatronID: l.PatronID, LoanedAt: nullTime(l.LoanedAt), DueAt: l.DueAt, ReturnedAt: nullTimePtr(l.ReturnedAt)}
		}), len(snap.Loans)},
		{"FineReason", mapRows(snap.FineReasons, func(r models.FineReason) reasonRecord {
			return reasonRecord{ID: r.ID, Code: r.Code, Description: r.Description}
		}), len(snap.FineReasons)},
		{"Fine", mapRows(snap.Fines, func(f models.Fine) fineRecord {
			return fineRecord{ID: f.ID, PatronID: f.PatronID, ReasonID: f.ReasonID, Amount: f.Amount, Status: string(f.Status)}
		}), len(snap.Fines)},
		{"Subject", mapRows(snap.Subjects, func(s models.Subject) subjectRecord {
			return subjectRecord{ID: s.ID, Name: s.Name}
		}), len(snap.Subjects)},
		{"Author", mapRows(snap.Authors, func(a models.Author) authorRecord {
			return authorRecord{ID: a.ID, Name: a.Name}
		}), len(snap.Authors)},
		{"BookSubject", mapRows(snap.BookSubjects, func(bs models.BookSubject) bookSubjectRecord {
			return bookSubjectRecord{ISBN: bs.ISBN, SubjectID: bs.SubjectID}
		}), len(snap.BookSubjects)},
		{"BookAuthor", mapRows(snap.BookAuthors, func(ba models.BookAuthor) bookAuthorRecord {
			return bookAuthorRecord{ISBN: ba.ISBN, AuthorID: ba.AuthorID}
		}), len(snap.BookAuthors)},
		{"Reservation", mapRows(snap.Reservations, func(r models.Reservation) reservationRecord {
			return reservationRecord{ID: r.ID, PatronID: r.PatronID, ISBN: r.ISBN, Status: string(r.Status)}
		}), len(snap.Reservations)},
	}

	for _, ins := range inserts {
		if ins.n == 0 {
			continue
		}
		query, args, err := d.dialect.Insert(ins.table).Rows(ins.rows).Prepared(true).ToSQL()
		if err != nil {
			return fmt.Errorf("failed to build %s insert: %w", ins.table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", ins.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}
	return nil
}

func mapRows[M, R any](in []M, f func(M) R) []R {
	out := make([]R, len(in))
	for i, m := range in {
		out[i] = f(m)
	}
	return out
}

// Close closes the database connection
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
	DriverMySQL    = "mysql"
)

// Database provides high-level helpers around a SQL connection pool.
type Database struct {
	db      *sqlx.DB
	driver  string
	dialect string

	now func() time.Time
}

// SQLiteDSN builds a go-sqlite3 DSN for the file at dbPath, creating the
// parent directory so first-run succeeds.
func SQLiteDSN(dbPath string) (string, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create db dir: %w", err)
		}
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath), nil
}

// NewDatabase opens a pool for driver/dsn and creates the schema.
func NewDatabase(ctx context.Context, driver, dsn string) (*Database, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxIdleTime(60 * time.Second)
		db.SetConnMaxLifetime(10 * time.Minute)
	}

	database := &Database{
		db:      db,
		driver:  driver,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if err := database.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

func dialectFor(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite3", nil
	case DriverPostgres, DriverPGX:
		return "postgres", nil
	case DriverMySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Close closes the pool.
func (d *Database) Close() error { return d.db.Close() }

// Ping verifies the store is reachable.
func (d *Database) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Driver returns the database/sql driver name the pool was opened with.
func (d *Database) Driver() string { return d.driver }

// SQL exposes the underlying pool so other data mappers can share it.
func (d *Database) SQL() *sql.DB { return d.db.DB }

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

var schemas = map[string][]string{
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            category TEXT,
            isbn TEXT,
            total_copies INTEGER NOT NULL CHECK (total_copies > 0),
            available_copies INTEGER NOT NULL CHECK (available_copies >= 0),
            CHECK (available_copies <= total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS borrowed_books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL,
            user_name TEXT NOT NULL,
            issued_at DATETIME NOT NULL,
            returned_at DATETIME
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrowed_books_book_user ON borrowed_books(book_id, user_name);`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS books (
            id BIGSERIAL PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            category TEXT,
            isbn TEXT,
            total_copies INTEGER NOT NULL CHECK (total_copies > 0),
            available_copies INTEGER NOT NULL CHECK (available_copies >= 0),
            CHECK (available_copies <= total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS borrowed_books (
            id BIGSERIAL PRIMARY KEY,
            book_id BIGINT NOT NULL,
            user_name TEXT NOT NULL,
            issued_at TIMESTAMPTZ NOT NULL,
            returned_at TIMESTAMPTZ
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrowed_books_book_user ON borrowed_books(book_id, user_name);`,
	},
	"mysql": {
		`CREATE TABLE IF NOT EXISTS books (
            id BIGINT AUTO_INCREMENT PRIMARY KEY,
            title VARCHAR(255) NOT NULL,
            author VARCHAR(255) NOT NULL,
            category VARCHAR(255),
            isbn VARCHAR(32),
            total_copies INT NOT NULL CHECK (total_copies > 0),
            available_copies INT NOT NULL CHECK (available_copies >= 0),
            CHECK (available_copies <= total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS borrowed_books (
            id BIGINT AUTO_INCREMENT PRIMARY KEY,
            book_id BIGINT NOT NULL,
            user_name VARCHAR(255) NOT NULL,
            issued_at DATETIME(6) NOT NULL,
            returned_at DATETIME(6),
            INDEX idx_borrowed_books_book_user (book_id, user_name)
        );`,
	},
}

// Migrate creates the books and borrowed_books tables if missing.
// borrowed_books.book_id carries no foreign key: deleting a book keeps its
// lending history.
func (d *Database) Migrate(ctx context.Context) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schemas[d.dialect] {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return tx.Commit()
}

// insert runs an INSERT and yields the generated id. Postgres has no
// LastInsertId, so it goes through RETURNING.
func (d *Database) insert(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	query = q.Rebind(query)
	if d.dialect == "postgres" {
		var id int64
		if err := q.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

const selectBooks = `SELECT id,title,author,category,isbn,total_copies,available_copies FROM books`

// ListBooks returns every book in insertion order.
func (d *Database) ListBooks(ctx context.Context) ([]*Book, error) {
	books := make([]*Book, 0)
	if err := d.db.SelectContext(ctx, &books, selectBooks+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (d *Database) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := d.db.GetContext(ctx, &b, d.db.Rebind(selectBooks+` WHERE id=?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return &b, nil
}

// AddBook inserts a book with every copy available.
func (d *Database) AddBook(ctx context.Context, nb NewBook) (int64, error) {
	id, err := d.insert(ctx, d.db,
		`INSERT INTO books(title,author,category,isbn,total_copies,available_copies) VALUES(?,?,?,?,?,?)`,
		nb.Title, nb.Author, nb.Category, nb.ISBN, nb.TotalCopies, nb.TotalCopies)
	if err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	return id, nil
}

// UpdateBook applies the present fields of u to the book.
func (d *Database) UpdateBook(ctx context.Context, id int64, u BookUpdate) error {
	cols := u.columns()
	if len(cols) == 0 {
		return ErrNothingToUpdate
	}
	query, args, err := goqu.Dialect(d.dialect).
		Update("books").
		Prepared(true).
		Set(goqu.Record(cols)).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build book update: %w", err)
	}
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update book %d: %w", id, err)
	}
	return requireRows(res, ErrBookNotFound)
}

// DeleteBook removes the book row. Borrow history is left in place.
func (d *Database) DeleteBook(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, d.db.Rebind(`DELETE FROM books WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return requireRows(res, ErrBookNotFound)
}

func requireRows(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Circulation
// ---------------------------------------------------------------------------

// IssueBook takes one copy out and, when userName is set, opens a borrow
// record, all in one transaction. The conditional decrement keeps
// available_copies from going negative under concurrent issues.
func (d *Database) IssueBook(ctx context.Context, bookID int64, userName string) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issue: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE books SET available_copies=available_copies-1 WHERE id=? AND available_copies > 0`), bookID)
	if err != nil {
		return fmt.Errorf("issue book %d: %w", bookID, err)
	}
	if err := requireRows(res, ErrNotAvailable); err != nil {
		return err
	}

	if userName != "" {
		if _, err := d.insert(ctx, tx,
			`INSERT INTO borrowed_books(book_id,user_name,issued_at) VALUES(?,?,?)`,
			bookID, userName, d.now()); err != nil {
			return fmt.Errorf("record issue of book %d: %w", bookID, err)
		}
	}
	return tx.Commit()
}

// ReturnBook puts one copy back and, when userName is set, closes every open
// borrow record that user holds on the book.
func (d *Database) ReturnBook(ctx context.Context, bookID int64, userName string) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin return: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE books SET available_copies=available_copies+1 WHERE id=? AND available_copies < total_copies`), bookID)
	if err != nil {
		return fmt.Errorf("return book %d: %w", bookID, err)
	}
	if err := requireRows(res, ErrAllReturned); err != nil {
		return err
	}

	if userName != "" {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE borrowed_books SET returned_at=? WHERE book_id=? AND user_name=? AND returned_at IS NULL`),
			d.now(), bookID, userName); err != nil {
			return fmt.Errorf("record return of book %d: %w", bookID, err)
		}
	}
	return tx.Commit()
}

// BookHistory returns the borrow records of a book, newest first.
func (d *Database) BookHistory(ctx context.Context, bookID int64) ([]*BorrowRecord, error) {
	records := make([]*BorrowRecord, 0)
	err := d.db.SelectContext(ctx, &records, d.db.Rebind(`
        SELECT id, book_id, user_name, issued_at, returned_at
        FROM borrowed_books
        WHERE book_id=?
        ORDER BY issued_at DESC, id DESC`), bookID)
	if err != nil {
		return nil, fmt.Errorf("book %d history: %w", bookID, err)
	}
	return records, nil
}

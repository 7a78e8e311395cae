// Package storage maintains an ephemeral SQLite query cache over publications.json.
package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/matsen/labsite/internal/publication"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Publication is a cached entry together with its bucket and identifier.
type Publication struct {
	ID   string           `json:"id"`
	Kind publication.Kind `json:"kind"`
	publication.Entry
}

// selectPubFields contains the standard field list for SELECT queries.
const selectPubFields = `id, kind, year, title, authors, venue, within_year_order`

// orderPubs keeps results in the order they appear on the website.
const orderPubs = ` ORDER BY kind, position`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS pubs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL,
			year INTEGER,
			title TEXT NOT NULL,
			authors TEXT,
			venue TEXT,
			within_year_order INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_pubs_year ON pubs(year);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS pubs_fts USING fts5(
			id,
			title,
			authors,
			venue
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromDocument clears the database and refills it from a document.
func (d *DB) RebuildFromDocument(doc *publication.Document) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pubs"); err != nil {
		return 0, fmt.Errorf("clearing pubs table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM pubs_fts"); err != nil {
		return 0, fmt.Errorf("clearing pubs_fts table: %w", err)
	}

	pubsStmt, err := tx.Prepare(`
		INSERT INTO pubs (id, kind, position, year, title, authors, venue, within_year_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing pubs insert: %w", err)
	}
	defer pubsStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO pubs_fts (id, title, authors, venue) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	seen := make(map[string]bool)
	count := 0
	buckets := []struct {
		kind    publication.Kind
		entries []publication.Entry
	}{
		{publication.KindJournal, doc.JournalPapers},
		{publication.KindProceedings, doc.Proceedings},
	}

	for _, b := range buckets {
		for pos, e := range b.entries {
			year := 0
			if e.Year != nil {
				year = *e.Year
			}
			id := uniqueID(seen, publication.MakeID(b.kind, year, e.Title))

			if _, err := pubsStmt.Exec(id, string(b.kind), pos, nullableYear(e.Year),
				e.Title, e.Authors, e.Venue, e.WithinYearOrder); err != nil {
				return 0, fmt.Errorf("inserting %q: %w", e.Title, err)
			}
			if _, err := ftsStmt.Exec(id, e.Title, e.Authors, e.Venue); err != nil {
				return 0, fmt.Errorf("inserting fts for %q: %w", e.Title, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return count, nil
}

// uniqueID returns base, or base-2, base-3, ... if already taken.
func uniqueID(seen map[string]bool, base string) string {
	id := base
	for i := 2; seen[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	seen[id] = true
	return id
}

// Filters restricts List and Search results.
type Filters struct {
	Kind     publication.Kind // empty = both buckets
	YearFrom int              // 0 = no minimum
	YearTo   int              // 0 = no maximum
}

// where appends SQL conditions for f to query.
func (f Filters) where(query string, args []interface{}) (string, []interface{}) {
	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(f.Kind))
	}
	if f.YearFrom > 0 {
		query += " AND year >= ?"
		args = append(args, f.YearFrom)
	}
	if f.YearTo > 0 {
		query += " AND year <= ?"
		args = append(args, f.YearTo)
	}
	return query, args
}

// Search performs a full-text search over title, authors and venue.
func (d *DB) Search(query string, filters Filters, limit int) ([]Publication, error) {
	if strings.TrimSpace(query) == "" {
		return d.List(filters, limit)
	}

	q := `SELECT ` + selectPubFields + ` FROM pubs
		WHERE id IN (SELECT id FROM pubs_fts WHERE pubs_fts MATCH ?)`
	args := []interface{}{prepareFTSQuery(query)}
	q, args = filters.where(q, args)
	q += orderPubs
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// List returns cached publications in website order.
func (d *DB) List(filters Filters, limit int) ([]Publication, error) {
	q, args := filters.where(`SELECT `+selectPubFields+` FROM pubs WHERE 1=1`, nil)
	q += orderPubs
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pubs: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// GetByID retrieves a publication by its ID. Returns nil if not found.
func (d *DB) GetByID(id string) (*Publication, error) {
	row := d.db.QueryRow(`SELECT `+selectPubFields+` FROM pubs WHERE id = ?`, id)
	return scanPublication(row)
}

// Count returns the total number of cached publications.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM pubs").Scan(&count)
	return count, err
}

// CountByKind returns the number of cached publications per bucket.
func (d *DB) CountByKind() (publication.Counts, error) {
	var c publication.Counts
	rows, err := d.db.Query("SELECT kind, COUNT(*) FROM pubs GROUP BY kind")
	if err != nil {
		return c, fmt.Errorf("counting pubs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return c, err
		}
		switch publication.Kind(kind) {
		case publication.KindJournal:
			c.Journal = n
		case publication.KindProceedings:
			c.Proceedings = n
		}
	}
	return c, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPublication(s scanner) (*Publication, error) {
	var p Publication
	var kind string
	var year sql.NullInt64
	var authors, venue sql.NullString

	err := s.Scan(&p.ID, &kind, &year, &p.Title, &authors, &venue, &p.WithinYearOrder)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.Kind = publication.Kind(kind)
	p.Authors = authors.String
	p.Venue = venue.String
	if year.Valid {
		y := int(year.Int64)
		p.Year = &y
	}

	return &p, nil
}

func scanPublications(rows *sql.Rows) ([]Publication, error) {
	var pubs []Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		if p != nil {
			pubs = append(pubs, *p)
		}
	}
	return pubs, rows.Err()
}

func nullableYear(y *int) sql.NullInt64 {
	if y == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*y), Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries. Anything other
// than letters, digits and spaces is searched as a quoted phrase.
func prepareFTSQuery(query string) string {
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	for _, r := range query {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			query = strings.ReplaceAll(query, "\"", "\"\"")
			return "\"" + query + "\""
		}
	}

	return query
}

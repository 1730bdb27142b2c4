package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/shirabe/internal/models"
)

// Tables names the logical store sections. The engine is decoupled from the
// store's addressing scheme: the postings and norms sections are configured,
// not hard-coded.
type Tables struct {
	Postings string
	Norms    string
}

// DefaultTables are the section names used when the configuration leaves them
// empty.
var DefaultTables = Tables{Postings: "postings", Norms: "documents"}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	tables Tables
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema for the given table names. Parent directories are created if they
// do not exist.
func NewSQLiteStore(dbPath string, tables Tables) (*SQLiteStore, error) {
	if tables.Postings == "" {
		tables.Postings = DefaultTables.Postings
	}
	if tables.Norms == "" {
		tables.Norms = DefaultTables.Norms
	}
	if err := validTableName(tables.Postings); err != nil {
		return nil, err
	}
	if err := validTableName(tables.Norms); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &SQLiteStore{db: db, tables: tables}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// validTableName rejects names that cannot be embedded in DDL/DML safely.
func validTableName(name string) error {
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		term TEXT NOT NULL,
		doc TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (term, doc)
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_term ON %[1]s(term);

	CREATE TABLE IF NOT EXISTS %[2]s (
		doc TEXT PRIMARY KEY,
		l_d REAL NOT NULL
	);
	`, s.tables.Postings, s.tables.Norms)
	_, err := s.db.Exec(schema)
	return err
}

// Flush merges postings and inserts norms in a single transaction.
func (s *SQLiteStore) Flush(ctx context.Context, postings models.PostingTable, norms models.NormTable) error {
	if len(postings) == 0 && len(norms) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin flush: %w", err)
	}
	defer tx.Rollback()

	postingStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (term, doc, count) VALUES (?, ?, ?)
		 ON CONFLICT(term, doc) DO UPDATE SET count = excluded.count`,
		s.tables.Postings,
	))
	if err != nil {
		return err
	}
	defer postingStmt.Close()

	for term, docs := range postings {
		for doc, count := range docs {
			if _, err := postingStmt.ExecContext(ctx, term, doc, count); err != nil {
				return fmt.Errorf("failed to flush posting (%s, %s): %w", term, doc, err)
			}
		}
	}

	normStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (doc, l_d) VALUES (?, ?)
		 ON CONFLICT(doc) DO NOTHING`,
		s.tables.Norms,
	))
	if err != nil {
		return err
	}
	defer normStmt.Close()

	for doc, norm := range norms {
		if _, err := normStmt.ExecContext(ctx, doc, norm); err != nil {
			return fmt.Errorf("failed to flush norm for %s: %w", doc, err)
		}
	}

	return tx.Commit()
}

// CountDocuments returns the total number of documents ever flushed.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.tables.Norms)).Scan(&count)
	return count, err
}

// CountTerms returns the total number of distinct terms ever flushed.
func (s *SQLiteStore) CountTerms(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(DISTINCT term) FROM %s`, s.tables.Postings)).Scan(&count)
	return count, err
}

// PostingsForTerm returns the postings of term, or ErrUnknownTerm.
func (s *SQLiteStore) PostingsForTerm(ctx context.Context, term string) ([]models.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT doc, count FROM %s WHERE term = ?`, s.tables.Postings), term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postings []models.Posting
	for rows.Next() {
		var p models.Posting
		if err := rows.Scan(&p.Document, &p.Count); err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}
	return postings, nil
}

// DocumentsForTerm returns just the document identities for term; empty set
// for unknown terms.
func (s *SQLiteStore) DocumentsForTerm(ctx context.Context, term string) (models.DocSet, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s WHERE term = ?`, s.tables.Postings), term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make(models.DocSet)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs.Add(doc)
	}
	return docs, rows.Err()
}

// DocumentsNotIn returns all flushed documents not in excluded.
func (s *SQLiteStore) DocumentsNotIn(ctx context.Context, excluded models.DocSet) (models.DocSet, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s`, s.tables.Norms)
	var args []interface{}
	if len(excluded) > 0 {
		placeholders := make([]string, 0, len(excluded))
		for doc := range excluded {
			placeholders = append(placeholders, "?")
			args = append(args, doc)
		}
		query += fmt.Sprintf(" WHERE doc NOT IN (%s)", strings.Join(placeholders, ", "))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make(models.DocSet)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs.Add(doc)
	}
	return docs, rows.Err()
}

// NormOf returns the vector norm of the document, or ErrUnknownDocument.
func (s *SQLiteStore) NormOf(ctx context.Context, document string) (float64, error) {
	var norm float64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT l_d FROM %s WHERE doc = ?`, s.tables.Norms), document).Scan(&norm)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDocument, document)
	}
	if err != nil {
		return 0, err
	}
	return norm, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

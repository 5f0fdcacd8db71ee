// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store indexes the final dataset in SQLite with an FTS5 table over
// questions and answers.
//
// FTS5 needs the sqlite_fts5 build tag for github.com/mattn/go-sqlite3; the
// mage Build and Test targets set it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mdaqa/pkg/types"
)

// DefaultMaxResults bounds Search when no limit is given.
const DefaultMaxResults = 20

// ErrEmptyQuery is returned by Search when no terms or filters are given.
var ErrEmptyQuery = errors.New("empty query: provide search terms or a filter")

// Store manages the dataset index database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index database at path, creating its parent
// directory and schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			community_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			score REAL,
			evidence TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_community ON entries(community_id)`,
		`CREATE TABLE IF NOT EXISTS entry_papers (
			entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			arxiv_id TEXT NOT NULL,
			title TEXT,
			PRIMARY KEY (entry_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_papers_arxiv ON entry_papers(arxiv_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='entries_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE entries_fts USING fts5(question, answer, content=entries, content_rowid=rowid)`,
		`CREATE TRIGGER entries_ai AFTER INSERT ON entries BEGIN
			INSERT INTO entries_fts(rowid, question, answer) VALUES (new.rowid, new.question, new.answer);
		END`,
		`CREATE TRIGGER entries_ad AFTER DELETE ON entries BEGIN
			INSERT INTO entries_fts(entries_fts, rowid, question, answer) VALUES('delete', old.rowid, old.question, old.answer);
		END`,
		`CREATE TRIGGER entries_au AFTER UPDATE ON entries BEGIN
			INSERT INTO entries_fts(entries_fts, rowid, question, answer) VALUES('delete', old.rowid, old.question, old.answer);
			INSERT INTO entries_fts(rowid, question, answer) VALUES (new.rowid, new.question, new.answer);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Removed int
}

// Total returns the number of entries in the dataset that was ingested.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated
}

// Ingest makes the index mirror entries: new ids are inserted, known ids
// are updated, and ids no longer present are removed. It runs in one
// transaction.
func (s *Store) Ingest(ctx context.Context, entries []types.DatasetEntry) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := existingIDs(ctx, tx)
	if err != nil {
		return IngestSummary{}, err
	}

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (id, community_id, question, answer, score, evidence)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			community_id=excluded.community_id, question=excluded.question,
			answer=excluded.answer, score=excluded.score, evidence=excluded.evidence`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer upsert.Close()

	var summary IngestSummary
	for _, e := range entries {
		evidenceJSON, _ := json.Marshal(e.Evidence)
		if _, err := upsert.ExecContext(ctx,
			e.ID, string(e.CommunityID), e.Question, e.Answer, e.Score, string(evidenceJSON),
		); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
		if err := replacePapers(ctx, tx, e); err != nil {
			return IngestSummary{}, err
		}

		if _, ok := existing[e.ID]; ok {
			summary.Updated++
			delete(existing, e.ID)
		} else {
			summary.Indexed++
		}
	}

	for id := range existing {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return IngestSummary{}, fmt.Errorf("removing entry %s: %w", id, err)
		}
		summary.Removed++
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

func existingIDs(ctx context.Context, tx *sql.Tx) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func replacePapers(ctx context.Context, tx *sql.Tx, e types.DatasetEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_papers WHERE entry_id = ?`, e.ID); err != nil {
		return fmt.Errorf("clearing papers for %s: %w", e.ID, err)
	}
	for i, p := range e.Papers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entry_papers (entry_id, position, arxiv_id, title) VALUES (?, ?, ?, ?)`,
			e.ID, i, p.ID, p.Title,
		); err != nil {
			return fmt.Errorf("inserting paper %s for %s: %w", p.ID, e.ID, err)
		}
	}
	return nil
}

// QueryOptions holds search terms and filters.
type QueryOptions struct {
	// Query is an FTS5 match expression over question and answer text.
	Query string

	// CommunityID restricts results to one community.
	CommunityID string

	// ArxivID restricts results to entries drawing on that paper.
	ArxivID string

	// MinScore drops entries graded below it.
	MinScore float64

	// MaxResults limits result count. Zero uses DefaultMaxResults.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.CommunityID == "" && q.ArxivID == "" && q.MinScore == 0
}

// Result is a matched dataset entry. Rank is the FTS5 rank (lower is
// better) and zero for filter-only queries.
type Result struct {
	types.DatasetEntry
	Rank float64 `json:"rank" yaml:"rank"`
}

// Search queries the index. Full-text results are ordered by relevance;
// filter-only results by score descending, then id.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Result, error) {
	if opts.IsEmpty() {
		return nil, ErrEmptyQuery
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)
	if useFTS {
		qb.WriteString(
			`SELECT e.id, e.community_id, e.question, e.answer, e.score, e.evidence, entries_fts.rank
			FROM entries_fts
			JOIN entries e ON e.rowid = entries_fts.rowid
			WHERE entries_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.id, e.community_id, e.question, e.answer, e.score, e.evidence, 0 AS rank
			FROM entries e
			WHERE 1=1`)
	}

	if opts.CommunityID != "" {
		qb.WriteString(` AND e.community_id = ?`)
		args = append(args, opts.CommunityID)
	}
	if opts.ArxivID != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM entry_papers p WHERE p.entry_id = e.id AND p.arxiv_id = ?)`)
		args = append(args, opts.ArxivID)
	}
	if opts.MinScore > 0 {
		qb.WriteString(` AND e.score >= ?`)
		args = append(args, opts.MinScore)
	}

	if useFTS {
		qb.WriteString(` ORDER BY entries_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.score DESC, e.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying dataset index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r            Result
			communityID  string
			score        sql.NullFloat64
			evidenceJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &communityID, &r.Question, &r.Answer, &score, &evidenceJSON, &r.Rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.CommunityID = types.CommunityID(communityID)
		r.Score = score.Float64
		if evidenceJSON.Valid {
			json.Unmarshal([]byte(evidenceJSON.String), &r.Evidence)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range results {
		papers, err := s.papers(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Papers = papers
	}
	return results, nil
}

func (s *Store) papers(ctx context.Context, entryID string) ([]types.PaperCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT arxiv_id, title FROM entry_papers WHERE entry_id = ? ORDER BY position`, entryID)
	if err != nil {
		return nil, fmt.Errorf("loading papers for %s: %w", entryID, err)
	}
	defer rows.Close()

	var papers []types.PaperCandidate
	for rows.Next() {
		var (
			p     types.PaperCandidate
			title sql.NullString
		)
		if err := rows.Scan(&p.ID, &title); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		p.Title = title.String
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// Count returns the number of indexed entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Package bm25 implements the lexical index on an in-memory SQLite FTS5
// table ranked with the built-in bm25() function.
package bm25

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver with FTS5

	"github.com/avishayil/git-llm-analyzer/internal/core/domain"
	"github.com/avishayil/git-llm-analyzer/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// ErrClosed is returned by Build and Search after Close.
var ErrClosed = errors.New("lexical index closed")

// The terms column holds the output of Tokenize joined by spaces, so the
// FTS5 tokenizer only has to split on whitespace. Underscore stays a token
// character to keep snake_case identifiers whole.
const schema = `
CREATE VIRTUAL TABLE chunks USING fts5(
	terms,
	ordinal UNINDEXED,
	tokenize = "unicode61 tokenchars '_'"
);
`

const searchQuery = `
SELECT rowid, -bm25(chunks) AS score
FROM chunks
WHERE chunks MATCH ?
ORDER BY bm25(chunks), ordinal
LIMIT ?
`

// snapshot is one immutable build. ids is indexed by rowid-1.
type snapshot struct {
	db       *sql.DB
	ids      []string
	ordinals []int
}

func (s *snapshot) close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Index is a BM25 index over an in-memory FTS5 table.
// Build publishes a new table atomically; Search is safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	snap   *snapshot
	closed bool
}

// New creates an empty index. The database is opened by the first Build.
func New() *Index {
	return &Index{}
}

// Build tokenises every chunk into a fresh table and replaces the index.
// Building twice from the same chunks yields identical rankings. On error the
// previous table stays visible.
func (i *Index) Build(ctx context.Context, chunks []domain.Chunk) error {
	s, err := build(ctx, chunks)
	if err != nil {
		return err
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		_ = s.close()
		return ErrClosed
	}
	old := i.snap
	i.snap = s
	i.mu.Unlock()

	return old.close()
}

func build(ctx context.Context, chunks []domain.Chunk) (*snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &snapshot{
		ids:      make([]string, len(chunks)),
		ordinals: make([]int, len(chunks)),
	}
	if len(chunks) == 0 {
		return s, nil
	}

	// Every connection to ":memory:" is its own database.
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open lexical database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	if err := fill(ctx, db, s, chunks); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func fill(ctx context.Context, db *sql.DB, s *snapshot, chunks []domain.Chunk) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create lexical table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks(rowid, terms, ordinal) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for slot, c := range chunks {
		s.ids[slot] = c.ID
		s.ordinals[slot] = c.Ordinal
		terms := strings.Join(Tokenize(c.Content), " ")
		if _, err := stmt.ExecContext(ctx, slot+1, terms, c.Ordinal); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lexical table: %w", err)
	}
	return nil
}

// Search ranks every chunk containing at least one query term.
func (i *Index) Search(ctx context.Context, query string, k int) ([]driven.IndexHit, error) {
	if k <= 0 {
		return nil, nil
	}
	match := matchExpression(query)
	if match == "" {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, ErrClosed
	}
	s := i.snap
	if s == nil || s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, searchQuery, match, k)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []driven.IndexHit
	for rows.Next() {
		var (
			rowid int
			score float64
		)
		if err := rows.Scan(&rowid, &score); err != nil {
			return nil, fmt.Errorf("scan lexical hit: %w", err)
		}
		if score <= 0 || rowid < 1 || rowid > len(s.ids) {
			continue
		}
		hits = append(hits, driven.IndexHit{
			ChunkID: s.ids[rowid-1],
			Ordinal: s.ordinals[rowid-1],
			Score:   score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return hits, nil
}

// matchExpression ORs the distinct query terms, each quoted as an FTS5
// string so operators and punctuation in the query are never interpreted.
func matchExpression(query string) string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range Tokenize(query) {
		if seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}

// Len returns the number of indexed chunks.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.snap == nil {
		return 0
	}
	return len(i.snap.ids)
}

// Close waits for in-flight searches and releases the database.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	err := i.snap.close()
	i.snap = nil
	return err
}

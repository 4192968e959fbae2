package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"archmap/internal/bundle"
)

const l2Schema = `
CREATE TABLE IF NOT EXISTS context_cache (
    ref_id      TEXT    NOT NULL,
    depth       INTEGER NOT NULL,
    max_nodes   INTEGER NOT NULL,
    max_chunks  INTEGER NOT NULL,
    bundle      TEXT    NOT NULL,
    created_at  INTEGER NOT NULL,
    graph_mtime INTEGER NOT NULL,
    docs_mtime  INTEGER NOT NULL,
    PRIMARY KEY (ref_id, depth, max_nodes, max_chunks)
);`

// l2 is the persistent tier. Each write is a single INSERT OR REPLACE, so a
// reader can never observe an entry whose mtimes and body disagree.
type l2 struct {
	db *sql.DB
}

func openL2(path string) (*l2, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect cache db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(l2Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &l2{db: db}, nil
}

func (t *l2) close() error {
	return t.db.Close()
}

// get loads an entry, pruning it if stale against the supplied mtimes.
// A nil entry with nil error is a miss.
func (t *l2) get(ctx context.Context, key Key, mt Mtimes) (*entry, error) {
	row := t.db.QueryRowContext(ctx, `
		SELECT bundle, created_at, graph_mtime, docs_mtime
		FROM context_cache
		WHERE ref_id = ? AND depth = ? AND max_nodes = ? AND max_chunks = ?
	`, key.RefID, key.Depth, key.MaxNodes, key.MaxChunks)

	var body string
	var createdAt, graphMtime, docsMtime int64
	err := row.Scan(&body, &createdAt, &graphMtime, &docsMtime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache row: %w", err)
	}

	stored := Mtimes{Graph: graphMtime, Docs: docsMtime}
	if stale(stored, mt) {
		if err := t.delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var b bundle.ContextBundle
	if err := json.Unmarshal([]byte(body), &b); err != nil {
		// Unreadable row: prune it rather than serving garbage.
		if derr := t.delete(ctx, key); derr != nil {
			return nil, derr
		}
		return nil, fmt.Errorf("decode cached bundle: %w", err)
	}

	return &entry{
		bundle:    &b,
		createdAt: time.Unix(0, createdAt),
		mtimes:    stored,
	}, nil
}

func (t *l2) put(ctx context.Context, key Key, e entry) error {
	body, err := json.Marshal(e.bundle)
	if err != nil {
		return fmt.Errorf("encode bundle for cache: %w", err)
	}

	_, err = t.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO context_cache
			(ref_id, depth, max_nodes, max_chunks, bundle, created_at, graph_mtime, docs_mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, key.RefID, key.Depth, key.MaxNodes, key.MaxChunks,
		string(body), e.createdAt.UnixNano(), e.mtimes.Graph, e.mtimes.Docs)
	if err != nil {
		return fmt.Errorf("write cache row: %w", err)
	}
	return nil
}

func (t *l2) delete(ctx context.Context, key Key) error {
	_, err := t.db.ExecContext(ctx, `
		DELETE FROM context_cache
		WHERE ref_id = ? AND depth = ? AND max_nodes = ? AND max_chunks = ?
	`, key.RefID, key.Depth, key.MaxNodes, key.MaxChunks)
	if err != nil {
		return fmt.Errorf("delete cache row: %w", err)
	}
	return nil
}

func (t *l2) clear(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM context_cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (t *l2) clearRef(ctx context.Context, refID string) error {
	_, err := t.db.ExecContext(ctx,
		`DELETE FROM context_cache WHERE ref_id LIKE '%' || ? || '%'`, refID)
	if err != nil {
		return fmt.Errorf("clear cache for ref: %w", err)
	}
	return nil
}

func (t *l2) count(ctx context.Context) (int, error) {
	var n int
	if err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM context_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache rows: %w", err)
	}
	return n, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"archmap/internal/graph"
)

var _ graph.Store = (*Store)(nil)

// GetNodes returns the nodes for the given ref ids. Absent ids are missing
// from the map, not an error.
func (s *Store) GetNodes(ctx context.Context, refIDs []string) (map[string]graph.Node, error) {
	out := make(map[string]graph.Node, len(refIDs))
	if len(refIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(
		`SELECT ref_id, kind, summary, extra FROM nodes WHERE ref_id IN (%s)`,
		placeholders(len(refIDs)))
	rows, err := s.db.QueryContext(ctx, query, toAny(refIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n graph.Node
		var extra sql.NullString
		if err := rows.Scan(&n.RefID, &n.Kind, &n.Summary, &extra); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if extra.Valid && extra.String != "" {
			var e graph.NodeExtra
			if err := json.Unmarshal([]byte(extra.String), &e); err != nil {
				return nil, fmt.Errorf("decode extra for %s: %w", n.RefID, err)
			}
			n.Extra = &e
		}
		out[n.RefID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return out, nil
}

// OutgoingEdges returns edges whose src is refID, deterministically ordered.
func (s *Store) OutgoingEdges(ctx context.Context, refID string) ([]graph.Edge, error) {
	return s.queryEdges(ctx, `SELECT src, dst, kind FROM edges WHERE src = ? ORDER BY dst, kind`, refID)
}

// IncomingEdges returns edges whose dst is refID, deterministically ordered.
func (s *Store) IncomingEdges(ctx context.Context, refID string) ([]graph.Edge, error) {
	return s.queryEdges(ctx, `SELECT src, dst, kind FROM edges WHERE dst = ? ORDER BY src, kind`, refID)
}

// EdgesAmong returns every edge with both endpoints in refIDs.
func (s *Store) EdgesAmong(ctx context.Context, refIDs []string) ([]graph.Edge, error) {
	if len(refIDs) == 0 {
		return []graph.Edge{}, nil
	}
	ph := placeholders(len(refIDs))
	query := fmt.Sprintf(
		`SELECT src, dst, kind FROM edges WHERE src IN (%s) AND dst IN (%s) ORDER BY src, dst, kind`,
		ph, ph)
	args := append(toAny(refIDs), toAny(refIDs)...)
	return s.queryEdges(ctx, query, args...)
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []graph.Edge{}
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.Src, &e.Dst, &e.Kind); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}

// AllRefIDs returns every node ref id, sorted.
func (s *Store) AllRefIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ref_id FROM nodes ORDER BY ref_id`)
	if err != nil {
		return nil, fmt.Errorf("query ref ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ref id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ref ids: %w", err)
	}
	return ids, nil
}

// ChunksFor returns documentation chunks for the given ref ids, grouped in
// the order the ids are given (traversal admission order, so closer nodes
// contribute chunks earlier).
func (s *Store) ChunksFor(ctx context.Context, refIDs []string) ([]graph.Chunk, error) {
	if len(refIDs) == 0 {
		return []graph.Chunk{}, nil
	}

	query := fmt.Sprintf(
		`SELECT ref_id, section, heading, content FROM chunks WHERE ref_id IN (%s) ORDER BY rowid`,
		placeholders(len(refIDs)))
	rows, err := s.db.QueryContext(ctx, query, toAny(refIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := []graph.Chunk{}
	for rows.Next() {
		var c graph.Chunk
		if err := rows.Scan(&c.RefID, &c.Section, &c.Heading, &c.Content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	pos := make(map[string]int, len(refIDs))
	for i, id := range refIDs {
		pos[id] = i
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return pos[chunks[i].RefID] < pos[chunks[j].RefID]
	})
	return chunks, nil
}

// SymbolsFor returns code symbols bound to the given ref ids.
func (s *Store) SymbolsFor(ctx context.Context, refIDs []string) ([]graph.CodeSymbol, error) {
	if len(refIDs) == 0 {
		return []graph.CodeSymbol{}, nil
	}

	query := fmt.Sprintf(
		`SELECT ref_id, file_path, symbol_name, kind, line_start, line_end
		 FROM code_symbols WHERE ref_id IN (%s) ORDER BY file_path, line_start`,
		placeholders(len(refIDs)))
	rows, err := s.db.QueryContext(ctx, query, toAny(refIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	symbols := []graph.CodeSymbol{}
	for rows.Next() {
		var cs graph.CodeSymbol
		if err := rows.Scan(&cs.RefID, &cs.FilePath, &cs.SymbolName, &cs.Kind, &cs.LineStart, &cs.LineEnd); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbols: %w", err)
	}
	return symbols, nil
}

// RefIDsWithChunks reports which of the given ref ids have documentation.
func (s *Store) RefIDsWithChunks(ctx context.Context, refIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(refIDs))
	if len(refIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT ref_id FROM chunks WHERE ref_id IN (%s)`,
		placeholders(len(refIDs)))
	rows, err := s.db.QueryContext(ctx, query, toAny(refIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query documented refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan documented ref: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documented refs: %w", err)
	}
	return out, nil
}

// SyncStatus returns the drift feed the sync collaborator materialized.
// A database without sync rows yields an empty, valid status.
func (s *Store) SyncStatus(ctx context.Context) (graph.SyncStatus, error) {
	status := graph.SyncStatus{Stale: []string{}}

	var last string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_meta WHERE key = 'last_reindex'`).Scan(&last)
	switch {
	case err == sql.ErrNoRows:
		// No reindex recorded yet.
	case err != nil:
		return status, fmt.Errorf("query last reindex: %w", err)
	default:
		status.LastReindex = last
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ref_id FROM sync_status WHERE stale = 1 ORDER BY ref_id`)
	if err != nil {
		return status, fmt.Errorf("query stale refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return status, fmt.Errorf("scan stale ref: %w", err)
		}
		status.Stale = append(status.Stale, id)
	}
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("iterate stale refs: %w", err)
	}
	return status, nil
}

// Constraints returns the rule-engine feed. applies_to is stored as a JSON
// string array.
func (s *Store) Constraints(ctx context.Context) ([]graph.ConstraintEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_name, description, kind, applies_to FROM constraints ORDER BY rule_name`)
	if err != nil {
		return nil, fmt.Errorf("query constraints: %w", err)
	}
	defer rows.Close()

	entries := []graph.ConstraintEntry{}
	for rows.Next() {
		var e graph.ConstraintEntry
		var appliesTo string
		if err := rows.Scan(&e.RuleName, &e.Description, &e.Kind, &appliesTo); err != nil {
			return nil, fmt.Errorf("scan constraint: %w", err)
		}
		if err := json.Unmarshal([]byte(appliesTo), &e.AppliesTo); err != nil {
			return nil, fmt.Errorf("decode applies_to for %s: %w", e.RuleName, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate constraints: %w", err)
	}
	return entries, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmap/internal/graph"
)

func openSeeded(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	seed := []string{
		`INSERT INTO nodes (ref_id, kind, summary, extra) VALUES
			('billing', 'service', 'Billing service',
			 '{"links":[{"title":"ADR-7","url":"https://example.com/adr-7"}],"activity":{"level":"hot"}}'),
			('invoices', 'entity', 'Invoice entity', NULL),
			('payments', 'service', 'Payments service', '')`,
		`INSERT INTO edges (src, dst, kind) VALUES
			('billing', 'invoices', 'touches_entity'),
			('payments', 'billing', 'depends_on'),
			('billing', 'payments', 'uses')`,
		`INSERT INTO chunks (ref_id, section, heading, content) VALUES
			('billing', 'other', 'Notes', 'misc'),
			('billing', 'spec', 'Billing spec', 'how billing works'),
			('invoices', 'invariants', 'Invoice rules', 'never negative')`,
		`INSERT INTO code_symbols (ref_id, file_path, symbol_name, kind, line_start, line_end) VALUES
			('billing', 'internal/billing/service.go', 'Service', 'struct', 10, 80)`,
		`INSERT INTO sync_status (ref_id, stale) VALUES ('billing', 0), ('invoices', 1)`,
		`INSERT INTO sync_meta (key, value) VALUES ('last_reindex', '2026-08-25T10:00:00Z')`,
		`INSERT INTO constraints (rule_name, description, kind, applies_to) VALUES
			('no-entity-deps', 'entities must not depend on services', 'deny', '["invoices"]')`,
	}
	for _, stmt := range seed {
		_, err := s.DB().Exec(stmt)
		require.NoError(t, err)
	}
	return s
}

func TestOpenAppliesWAL(t *testing.T) {
	s := openSeeded(t)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestGetNodesDecodesExtra(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	nodes, err := s.GetNodes(ctx, []string{"billing", "invoices", "absent"})
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	billing := nodes["billing"]
	require.NotNil(t, billing.Extra)
	assert.Equal(t, "hot", billing.Extra.Activity.Level)
	require.Len(t, billing.Extra.Links, 1)
	assert.Equal(t, "ADR-7", billing.Extra.Links[0].Title)

	assert.Nil(t, nodes["invoices"].Extra)
}

func TestEdgeQueries(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	out, err := s.OutgoingEdges(ctx, "billing")
	require.NoError(t, err)
	assert.Len(t, out, 2)

	in, err := s.IncomingEdges(ctx, "billing")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "payments", in[0].Src)

	among, err := s.EdgesAmong(ctx, []string{"billing", "payments"})
	require.NoError(t, err)
	assert.Len(t, among, 2)

	none, err := s.EdgesAmong(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChunksForKeepsCallerOrder(t *testing.T) {
	s := openSeeded(t)

	chunks, err := s.ChunksFor(context.Background(), []string{"invoices", "billing"})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "invoices", chunks[0].RefID)
	assert.Equal(t, "billing", chunks[1].RefID)
	assert.Equal(t, "billing", chunks[2].RefID)
}

func TestRefIDsWithChunks(t *testing.T) {
	s := openSeeded(t)

	has, err := s.RefIDsWithChunks(context.Background(), []string{"billing", "payments"})
	require.NoError(t, err)
	assert.True(t, has["billing"])
	assert.False(t, has["payments"])
}

func TestSyncStatus(t *testing.T) {
	s := openSeeded(t)

	status, err := s.SyncStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-08-25T10:00:00Z", status.LastReindex)
	assert.Equal(t, []string{"invoices"}, status.Stale)
}

func TestSyncStatusEmptyDatabase(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer s.Close()

	status, err := s.SyncStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, status.LastReindex)
	assert.Empty(t, status.Stale)
}

func TestConstraints(t *testing.T) {
	s := openSeeded(t)

	entries, err := s.Constraints(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "no-entity-deps", entries[0].RuleName)
	assert.Equal(t, []string{"invoices"}, entries[0].AppliesTo)
}

func TestBFSOverSQLiteStore(t *testing.T) {
	s := openSeeded(t)

	sg, err := graph.BFSSubgraph(context.Background(), s, []string{"billing"}, 2, 10)
	require.NoError(t, err)
	assert.Len(t, sg.Nodes, 3)
	assert.Len(t, sg.Edges, 3)
}

func TestAllRefIDs(t *testing.T) {
	s := openSeeded(t)

	ids, err := s.AllRefIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"billing", "invoices", "payments"}, ids)
}

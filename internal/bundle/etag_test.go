package bundle

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestETagDeterministic(t *testing.T) {
	a := NewAssembler(fixtureStore())

	b1, err := a.Build(context.Background(), []string{"billing"}, DefaultOptions())
	require.NoError(t, err)
	b2, err := a.Build(context.Background(), []string{"billing"}, DefaultOptions())
	require.NoError(t, err)

	e1, err := ETag(b1)
	require.NoError(t, err)
	e2, err := ETag(b2)
	require.NoError(t, err)

	assert.Equal(t, e1, e2)
	assert.True(t, strings.HasPrefix(e1, "sha256:"))
	assert.Len(t, strings.TrimPrefix(e1, "sha256:"), 16)
}

func TestETagChangesWithContent(t *testing.T) {
	a := NewAssembler(fixtureStore())

	b, err := a.Build(context.Background(), []string{"billing"}, DefaultOptions())
	require.NoError(t, err)
	base, err := ETag(b)
	require.NoError(t, err)

	mutated := *b
	mutated.Focus.Summary = "Billing service, revised"
	changed, err := ETag(&mutated)
	require.NoError(t, err)

	assert.NotEqual(t, base, changed)
}

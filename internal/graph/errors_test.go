package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestPrefixFirst(t *testing.T) {
	known := []string{"billing", "billing-core", "shipping", "auth"}
	got := Suggest("billing-c", known)

	require.NotEmpty(t, got)
	assert.Equal(t, "billing-core", got[0], "prefix match must rank first")
}

func TestSuggestMissingIDX(t *testing.T) {
	got := Suggest("missing-id", []string{"missing-idx", "other"})
	assert.Contains(t, got, "missing-idx")
}

func TestSuggestCapsAtFive(t *testing.T) {
	known := []string{"svc-a", "svc-b", "svc-c", "svc-d", "svc-e", "svc-f", "svc-g"}
	got := Suggest("svc-", known)
	assert.Len(t, got, 5)
}

func TestSuggestDedupes(t *testing.T) {
	got := Suggest("pay", []string{"payments", "payments", "payroll"})
	assert.Equal(t, []string{"payroll", "payments"}, got)
}

func TestSuggestIgnoresDistantCandidates(t *testing.T) {
	got := Suggest("abc", []string{"completely-unrelated-thing"})
	assert.Empty(t, got)
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"billing", "billling", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshtein(tt.a, tt.b))
		})
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := NewNotFoundError("paymnets", []string{"payments", "shipping"})
	assert.Contains(t, err.Error(), "paymnets")
	assert.Contains(t, err.Error(), "payments")
}

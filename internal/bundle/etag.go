package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// etagAlgorithm tags the fingerprint so the scheme can change later without
// ambiguity.
const etagAlgorithm = "sha256"

// ETag returns the deterministic content fingerprint of a bundle: the first
// 16 hex characters of a SHA-256 over the bundle's canonical (sorted-key)
// JSON serialization. Identical bundles always fingerprint identically.
func ETag(b *ContextBundle) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("etag: marshal bundle: %w", err)
	}

	// Round-trip through generic maps: encoding/json emits map keys
	// sorted, which canonicalizes field order.
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("etag: canonicalize bundle: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("etag: marshal canonical form: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return etagAlgorithm + ":" + hex.EncodeToString(sum[:])[:16], nil
}

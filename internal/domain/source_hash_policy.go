package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SourceHashPolicy computes a stable hash of a handbook section's source
// content. Indexing is idempotent: same title+body (normalized) means same
// hash, and an unchanged hash skips re-embedding.
type SourceHashPolicy interface {
	Compute(title, body string) string
}

type sourceHashPolicy struct{}

// NewSourceHashPolicy creates the default hash policy.
func NewSourceHashPolicy() SourceHashPolicy {
	return &sourceHashPolicy{}
}

// Compute returns the SHA-256 of the trimmed title and body, joined by a
// null byte so "A"+"B" and "AB"+"" hash differently.
func (p *sourceHashPolicy) Compute(title, body string) string {
	content := strings.TrimSpace(title) + "\x00" + strings.TrimSpace(body)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

package arxiv

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jonathan/podcast-planner/internal/types"
)

// ContentHash computes the SHA-256 of content and returns it as hex.
func ContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// stamp records provenance for the acquired text.
func stamp(src *types.SourceContent, now time.Time) {
	src.Hash = ContentHash(src.Text)
	src.RetrievedAt = now.UTC().Format(time.RFC3339)
}

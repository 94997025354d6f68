package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// vectorIDLength is the truncated hex length of the stable FEN digest:
// 32 hex chars = 128 bits, a documented, collision-safe prefix of a
// SHA-256 digest (spec §9 Open Questions: vector_id hash).
const vectorIDLength = 32

// VectorID derives the stable vector-store point id for a position's
// FEN: SHA-256 of the normalised FEN, truncated to vectorIDLength hex
// characters. Deterministic and content-addressed, so re-embedding the
// same position always yields the same point id.
func VectorID(fen string) string {
	normalised := strings.Join(strings.Fields(fen), " ")
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:])[:vectorIDLength]
}

package embedding

import "github.com/chessmate/chessmate/internal/domain"

// DefaultChunkSize and DefaultMaxChars are the chunking bounds for one
// embedding call (spec §4.D Embedding call step 1).
const (
	DefaultChunkSize = 2048
	DefaultMaxChars  = 120_000
)

// Chunk splits jobs into batches bounded both by count (chunkSize) and
// total FEN characters (maxChars). A single FEN longer than maxChars is
// sent alone, as its own chunk.
func Chunk(jobs []domain.EmbeddingJob, chunkSize, maxChars int) [][]domain.EmbeddingJob {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks [][]domain.EmbeddingJob
	var current []domain.EmbeddingJob
	currentChars := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			currentChars = 0
		}
	}

	for _, j := range jobs {
		fenLen := len(j.FEN)
		if fenLen > maxChars {
			flush()
			chunks = append(chunks, []domain.EmbeddingJob{j})
			continue
		}
		if len(current) >= chunkSize || currentChars+fenLen > maxChars {
			flush()
		}
		current = append(current, j)
		currentChars += fenLen
	}
	flush()

	return chunks
}

package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chessmate/chessmate/internal/domain"
)

func job(id int64, fen string) domain.EmbeddingJob {
	return domain.EmbeddingJob{ID: id, GameID: id, Ply: 1, FEN: fen}
}

func TestChunk_BoundedByCount(t *testing.T) {
	jobs := []domain.EmbeddingJob{job(1, "a"), job(2, "b"), job(3, "c"), job(4, "d"), job(5, "e")}
	chunks := Chunk(jobs, 2, 1000)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)
}

func TestChunk_BoundedByChars(t *testing.T) {
	jobs := []domain.EmbeddingJob{job(1, "aaaaa"), job(2, "bbbbb"), job(3, "ccccc")}
	chunks := Chunk(jobs, 100, 10)
	assert.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 1)
}

func TestChunk_OversizedFENGetsOwnChunk(t *testing.T) {
	huge := strings.Repeat("x", 50)
	jobs := []domain.EmbeddingJob{job(1, "short"), job(2, huge), job(3, "short2")}
	chunks := Chunk(jobs, 100, 20)

	require := func(cond bool) {
		if !cond {
			t.Fatalf("expected huge job isolated in its own chunk, got %+v", chunks)
		}
	}
	var found bool
	for _, c := range chunks {
		if len(c) == 1 && c[0].FEN == huge {
			found = true
		}
	}
	require(found)
}

func TestChunk_EmptyInput(t *testing.T) {
	chunks := Chunk(nil, 10, 100)
	assert.Empty(t, chunks)
}

func TestChunk_DefaultsApplied(t *testing.T) {
	jobs := []domain.EmbeddingJob{job(1, "a")}
	chunks := Chunk(jobs, 0, 0)
	assert.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 1)
}

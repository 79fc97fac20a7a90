package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(chunkSize, overlap int) *Processor {
	return &Processor{chunkSize: chunkSize, chunkOverlap: overlap}
}

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	p := newTestProcessor(1000, 200)

	chunks := p.chunkText("a short document")

	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0])
}

func TestChunkText_EmptyText(t *testing.T) {
	p := newTestProcessor(1000, 200)

	assert.Empty(t, p.chunkText(""))
	assert.Empty(t, p.chunkText("   \n\t "))
}

func TestChunkText_RespectsSizeBound(t *testing.T) {
	p := newTestProcessor(100, 20)
	text := strings.Repeat("word ", 200)

	chunks := p.chunkText(text)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks[:len(chunks)-1] {
		assert.LessOrEqual(t, len(chunk), 100+20, "chunk %d too large", i)
	}
}

func TestChunkText_OverlapCarriesTrailingWords(t *testing.T) {
	p := newTestProcessor(50, 20)
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima"

	chunks := p.chunkText(text)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		firstWord := strings.Fields(chunks[i])[0]
		assert.Contains(t, prevWords, firstWord,
			"chunk %d should start with a word carried over from chunk %d", i, i-1)
	}
}

func TestChunkText_AllWordsCovered(t *testing.T) {
	p := newTestProcessor(80, 10)
	text := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen"

	chunks := p.chunkText(text)
	joined := " " + strings.Join(chunks, " ") + " "

	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, " "+word+" ")
	}
}

func TestOverlapWords_BoundedByMaxChars(t *testing.T) {
	words := []string{"aaaa", "bbbb", "cccc", "dddd"}

	overlap := overlapWords(words, 10)

	size := 0
	for _, w := range overlap {
		size += len(w) + 1
	}
	assert.LessOrEqual(t, size, 10)
	assert.Equal(t, []string{"cccc", "dddd"}, overlap)
}

func TestOverlapWords_AllWordsFit(t *testing.T) {
	words := []string{"a", "b"}

	overlap := overlapWords(words, 100)

	assert.Equal(t, words, overlap)
}

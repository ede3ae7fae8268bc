package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerSplit_ShortText(t *testing.T) {
	chunker := NewChunker(500)
	chunks := chunker.Split("One sentence. Another sentence.")
	require.Len(t, chunks, 1)
	// Joining keeps the sentence splitter's leading space, so the seam
	// widens to two spaces.
	require.Equal(t, "One sentence.  Another sentence.", chunks[0])
}

func TestChunkerSplit_NoPunctuation(t *testing.T) {
	chunker := NewChunker(500)
	chunks := chunker.Split("no sentence ending punctuation at all")
	require.Len(t, chunks, 1)
	require.Equal(t, "no sentence ending punctuation at all", chunks[0])
}

func TestChunkerSplit_EmptyInput(t *testing.T) {
	chunker := NewChunker(500)
	require.Empty(t, chunker.Split(""))
	require.Empty(t, chunker.Split("   \n\t  "))
}

func TestChunkerSplit_BudgetProducesTwoChunks(t *testing.T) {
	// 2100 chars of short sentences against a 500-token (~2000 char)
	// budget must land in two chunks.
	sentence := "This sentence is exactly fifty characters long ok."
	require.Len(t, sentence, 50)
	text := strings.Repeat(sentence+" ", 42)
	require.GreaterOrEqual(t, len(text), 2100)

	chunker := NewChunker(500)
	chunks := chunker.Split(text)
	require.Len(t, chunks, 2)
	for _, chunk := range chunks {
		require.NotEmpty(t, strings.TrimSpace(chunk))
		// Budget plus at most one sentence of overflow.
		require.LessOrEqual(t, len(chunk), 500*charsPerToken+len(sentence)+1)
	}
}

func TestChunkerSplit_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("word ", 600) + "end."
	chunker := NewChunker(10)
	chunks := chunker.Split(long)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0], "end.")
}

func TestChunkerSplit_NoEmptyChunks(t *testing.T) {
	chunker := NewChunker(5)
	chunks := chunker.Split("First. Second. Third. Fourth. Fifth. Sixth.")
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		require.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestChunkerSplit_ContentPreserved(t *testing.T) {
	text := "Alpha is first. Beta is second. Gamma is third."
	chunker := NewChunker(5)
	chunks := chunker.Split(text)
	joined := strings.Join(chunks, " ")
	for _, want := range []string{"Alpha is first.", "Beta is second.", "Gamma is third."} {
		require.Contains(t, joined, want)
	}
}

package rag

import (
	"regexp"
	"strings"
)

// Token size is estimated as length/4; good enough for budget bounding
// without a tokenizer dependency.
const charsPerToken = 4

const defaultChunkTokens = 500

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Chunker splits extracted document text into bounded segments, breaking at
// sentence boundaries. A single sentence larger than the budget is kept whole
// rather than truncated.
type Chunker struct {
	maxTokens int
}

func NewChunker(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = defaultChunkTokens
	}
	return &Chunker{maxTokens: maxTokens}
}

// Split returns the ordered, non-empty chunks of text. Text with no sentence
// punctuation is treated as a single sentence. Input with no extractable text
// yields zero chunks; the caller decides what that means.
func (c *Chunker) Split(text string) []string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{text}
	}

	var chunks []string
	var current string
	for _, sentence := range sentences {
		estimated := len(current+sentence) / charsPerToken
		if estimated > c.maxTokens && len(current) > 0 {
			chunks = append(chunks, strings.TrimSpace(current))
			current = sentence
		} else {
			current += " " + sentence
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	out := chunks[:0]
	for _, chunk := range chunks {
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

package rag

import (
	"fmt"
	"strings"
)

const defaultBasePrompt = "You are a helpful assistant."

const contextSeparator = "\n\n---\n\n"

// BuildSystemPrompt combines a bot's base instruction with retrieved context
// into the grounding instruction for the model. With no context it instructs
// the model to say so before offering anything general.
func BuildSystemPrompt(basePrompt string, chunks []string) string {
	base := strings.TrimSpace(basePrompt)
	if base == "" {
		base = defaultBasePrompt
	}
	if len(chunks) == 0 {
		return fmt.Sprintf(`%s

There is no knowledge-base context for this question.
Say: "I don't have specific information about this in my knowledge base yet."
Then optionally provide general guidance or suggest uploading relevant documents.`, base)
	}
	contextText := strings.Join(chunks, contextSeparator)
	return fmt.Sprintf(`%s

CRITICAL INSTRUCTION - KNOWLEDGE BASE PRIORITY
1) ALWAYS search the knowledge base context below first.
2) If the answer exists in the knowledge base, use it. Do NOT rely on general training.
3) Only use general knowledge if the knowledge base has NO relevant information.
4) When answering from the knowledge base, be direct and confident; do not hedge with phrases like "according to the provided context".
5) If NO knowledge base information is relevant, say so clearly.

KNOWLEDGE BASE CONTEXT (use first):
%s`, base, contextText)
}

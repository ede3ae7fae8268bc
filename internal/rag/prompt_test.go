package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSystemPromptWithContext(t *testing.T) {
	prompt := BuildSystemPrompt("You are the support bot.", []string{"chunk one", "chunk two"})
	require.True(t, strings.HasPrefix(prompt, "You are the support bot."))
	require.Contains(t, prompt, "KNOWLEDGE BASE CONTEXT")
	require.Contains(t, prompt, "chunk one")
	require.Contains(t, prompt, "chunk two")
	require.Contains(t, prompt, contextSeparator)
}

func TestBuildSystemPromptWithoutContext(t *testing.T) {
	prompt := BuildSystemPrompt("You are the support bot.", nil)
	require.True(t, strings.HasPrefix(prompt, "You are the support bot."))
	require.Contains(t, prompt, "I don't have specific information about this in my knowledge base yet.")
	require.NotContains(t, prompt, "KNOWLEDGE BASE CONTEXT")
}

func TestBuildSystemPromptDefaultBase(t *testing.T) {
	prompt := BuildSystemPrompt("   ", nil)
	require.True(t, strings.HasPrefix(prompt, defaultBasePrompt))
}

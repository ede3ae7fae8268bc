package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferrostar/askbase/internal/ai"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
)

func TestChatTurnRejectsEmptyMessages(t *testing.T) {
	svc := NewChatService(nil, nil, nil, nil, nil, nil, "", 4000)
	_, err := svc.ChatTurn(context.Background(), "bot-1", "sess-1", nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatTurnRejectsOversizedMessage(t *testing.T) {
	svc := NewChatService(nil, nil, nil, nil, nil, nil, "", 4000)
	messages := []ai.ChatMessage{{Role: "user", Content: strings.Repeat("a", 4001)}}
	_, err := svc.ChatTurn(context.Background(), "bot-1", "sess-1", messages)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatTurnRejectsEmptyContent(t *testing.T) {
	svc := NewChatService(nil, nil, nil, nil, nil, nil, "", 4000)
	messages := []ai.ChatMessage{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: ""},
	}
	_, err := svc.ChatTurn(context.Background(), "bot-1", "sess-1", messages)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestLatestUserMessage(t *testing.T) {
	messages := []ai.ChatMessage{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "  second  "},
	}
	require.Equal(t, "second", latestUserMessage(messages))
	require.Empty(t, latestUserMessage([]ai.ChatMessage{{Role: "assistant", Content: "x"}}))
}

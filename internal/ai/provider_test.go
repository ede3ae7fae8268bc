package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeChatProvider struct{}

func (fakeChatProvider) Name() string { return "fake" }

func (fakeChatProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk)
	close(out)
	return out, nil
}

type fakeEmbedProvider struct{}

func (fakeEmbedProvider) Name() string { return "fake" }

func (fakeEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	return []float32{1}, nil
}

func TestChatProviderRegistry(t *testing.T) {
	RegisterChat("Fake-Test", func(args interface{}) (IChatProvider, error) {
		return fakeChatProvider{}, nil
	})
	provider, err := NewChatProvider("fake-test", nil)
	require.NoError(t, err)
	require.Equal(t, "fake", provider.Name())
}

func TestChatProviderUnknown(t *testing.T) {
	_, err := NewChatProvider("no-such-provider", nil)
	require.Error(t, err)
	_, err = NewChatProvider("", nil)
	require.Error(t, err)
}

func TestEmbedProviderRegistry(t *testing.T) {
	RegisterEmbed("Fake-Test", func(args interface{}) (IEmbedProvider, error) {
		return fakeEmbedProvider{}, nil
	})
	provider, err := NewEmbedProvider("fake-test", nil)
	require.NoError(t, err)
	require.Equal(t, "fake", provider.Name())
}

func TestBuiltinProvidersRegistered(t *testing.T) {
	for _, name := range []string{"openai", "gemini"} {
		_, err := NewChatProvider(name, map[string]interface{}{"api_key": "k"})
		require.NoError(t, err, name)
		_, err = NewEmbedProvider(name, map[string]interface{}{"api_key": "k"})
		require.NoError(t, err, name)
	}
}

func TestEmbedderBindsModel(t *testing.T) {
	embedder := NewEmbedder(fakeEmbedProvider{}, "embed-004")
	require.Equal(t, "embed-004", embedder.ModelName())
	vec, err := embedder.Embed(context.Background(), "text", TaskTypeQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{1}, vec)
}

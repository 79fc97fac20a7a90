package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantified-ante/qabot/internal/llm"
)

type fakeCompleter struct {
	answer  string
	err     error
	calls   int
	lastReq llm.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	f.calls++
	f.lastReq = req
	return f.answer, f.err
}

func TestCompose_BuildsPromptFromChunks(t *testing.T) {
	completer := &fakeCompleter{answer: "MMBM stands for bullish order flow."}
	c := NewComposer(completer, 0.3, 1024)

	answer, err := c.Compose(context.Background(), "What is MMBM?", []string{
		"MMBM is bullish order flow",
		"It appears on higher timeframes",
	})

	require.NoError(t, err)
	assert.Equal(t, "MMBM stands for bullish order flow.", answer)
	assert.Equal(t, 1, completer.calls)
	assert.Contains(t, completer.lastReq.UserPrompt, "MMBM is bullish order flow\nIt appears on higher timeframes")
	assert.Contains(t, completer.lastReq.UserPrompt, "What is MMBM?")
	assert.Contains(t, completer.lastReq.SystemPrompt, "Only use information explicitly stated")
	assert.InDelta(t, 0.3, completer.lastReq.Temperature, 0.001)
}

func TestCompose_EmptyContextNeverCallsCompleter(t *testing.T) {
	completer := &fakeCompleter{answer: "should not happen"}
	c := NewComposer(completer, 0.3, 1024)

	_, err := c.Compose(context.Background(), "anything", nil)

	assert.ErrorIs(t, err, ErrEmptyContext)
	assert.Zero(t, completer.calls)
}

func TestCompose_CompletionErrorSurfaces(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("request timed out")}
	c := NewComposer(completer, 0.3, 1024)

	_, err := c.Compose(context.Background(), "anything", []string{"context"})

	assert.Error(t, err)
}

func TestSplitMessage_RoundTrip(t *testing.T) {
	const max = 1900

	tests := []struct {
		name   string
		length int
		parts  int
	}{
		{"empty", 0, 0},
		{"one under limit", max - 1, 1},
		{"exactly limit", max, 1},
		{"one over limit", max + 1, 2},
		{"four thousand chars", 4000, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := strings.Repeat("a", tt.length)
			parts := SplitMessage(input, max)

			assert.Len(t, parts, tt.parts)
			assert.Equal(t, input, strings.Join(parts, ""))
			for _, part := range parts {
				assert.LessOrEqual(t, len([]rune(part)), max)
			}
		})
	}
}

func TestSplitMessage_ExactBoundaries(t *testing.T) {
	parts := SplitMessage(strings.Repeat("x", 4000), 1900)

	assert.Equal(t, 1900, len(parts[0]))
	assert.Equal(t, 1900, len(parts[1]))
	assert.Equal(t, 200, len(parts[2]))
}

func TestSplitMessage_MultibyteRunesNotBroken(t *testing.T) {
	input := strings.Repeat("é", 10)
	parts := SplitMessage(input, 3)

	assert.Equal(t, input, strings.Join(parts, ""))
	for _, part := range parts {
		assert.True(t, strings.HasPrefix(part, "é"))
	}
}

package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/llm"
	"github.com/quantified-ante/qabot/internal/metrics"
	"github.com/quantified-ante/qabot/pkg/logger"
)

const (
	// NoInfoReply is sent when retrieval found nothing; the completion
	// service is never called in that case.
	NoInfoReply = "I couldn't find relevant information. Please try rephrasing your question."

	// FailureReply is the generic user-facing text for any internal
	// failure. Raw errors never reach the channel.
	FailureReply = "Something went wrong while answering your question. Please try again later."
)

const systemPrompt = "You are a knowledgeable Quantified Ante trading assistant. " +
	"Only use information explicitly stated in the provided context. " +
	"If something isn't mentioned in the context, don't make assumptions."

var ErrEmptyContext = errors.New("compose called with no context chunks")

type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Composer builds the grounded prompt and invokes the completion service.
type Composer struct {
	llm         Completer
	temperature float32
	maxTokens   int
}

func NewComposer(completer Completer, temperature float32, maxTokens int) *Composer {
	return &Composer{
		llm:         completer,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Compose answers the question from the given context chunks. Callers
// must not invoke it with an empty chunk list; that case is answered
// with NoInfoReply upstream, without spending a completion call.
func (c *Composer) Compose(ctx context.Context, question string, chunks []string) (string, error) {
	if len(chunks) == 0 {
		return "", ErrEmptyContext
	}

	contextBlob := strings.Join(chunks, "\n")

	userPrompt := fmt.Sprintf(`Answer the question based on the following context.
Be specific and cite concepts from the context. If something isn't explicitly mentioned in the context, don't make assumptions.

Context: %s

Question: %s

Please provide a detailed answer using only information found in the context above.`, contextBlob, question)

	start := time.Now()
	answer, err := c.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
	})
	metrics.CompletionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	logger.Debug("Answer composed",
		zap.Int("context_chunks", len(chunks)),
		zap.Int("answer_length", len(answer)),
	)

	return answer, nil
}

// SplitMessage cuts s into ordered substrings of at most max runes.
// Concatenating the parts in order reproduces s exactly. An empty string
// yields no parts.
func SplitMessage(s string, max int) []string {
	if s == "" || max <= 0 {
		return nil
	}

	runes := []rune(s)
	parts := make([]string, 0, (len(runes)+max-1)/max)
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

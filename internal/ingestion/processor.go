package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/storage/models"
	"github.com/quantified-ante/qabot/pkg/logger"
)

type ChunkWriter interface {
	ReplaceAll(ctx context.Context, chunks []models.DocumentChunk) error
}

type Embedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Processor loads a PDF into the document chunk collection with
// embeddings. Ingestion clears and repopulates the whole collection;
// there are no incremental updates.
type Processor struct {
	docs         ChunkWriter
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
}

func NewProcessor(docs ChunkWriter, embedder Embedder) *Processor {
	return &Processor{
		docs:         docs,
		embedder:     embedder,
		chunkSize:    1000,
		chunkOverlap: 200,
	}
}

func (p *Processor) IngestPDF(ctx context.Context, path string) (int, error) {
	logger.Info("Starting PDF ingestion", zap.String("path", path))

	text, err := extractText(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("no text extracted from %s", path)
	}

	texts := p.chunkText(text)
	logger.Info("PDF split into chunks", zap.Int("chunks", len(texts)))

	embeddings, err := p.embedder.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(texts))
	}

	chunks := make([]models.DocumentChunk, len(texts))
	for i, t := range texts {
		chunks[i] = models.DocumentChunk{
			Text:      t,
			Embedding: embeddings[i],
		}
	}

	if err := p.docs.ReplaceAll(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	logger.Info("PDF ingestion complete", zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// chunkText splits on word boundaries into pieces of roughly chunkSize
// characters, carrying chunkOverlap characters of trailing words into
// the next chunk to preserve context across boundaries.
func (p *Processor) chunkText(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentSize := 0

	for _, word := range words {
		wordLen := len(word) + 1

		if currentSize+wordLen > p.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			overlap := overlapWords(current, p.chunkOverlap)
			current = append([]string{}, overlap...)
			currentSize = 0
			for _, w := range current {
				currentSize += len(w) + 1
			}
		}

		current = append(current, word)
		currentSize += wordLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// overlapWords returns the trailing words covering at most maxChars
// characters.
func overlapWords(words []string, maxChars int) []string {
	size := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		size += len(words[i]) + 1
		if size > maxChars {
			break
		}
		start = i
	}
	return words[start:]
}

func extractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

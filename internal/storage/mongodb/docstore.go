package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quantified-ante/qabot/internal/storage/models"
)

const vectorIndexName = "vector_index"

// DocStore is a typed query builder over the document chunk collection.
// Each method maps one retrieval tier onto the store's native query
// language; tiering policy lives with the caller.
type DocStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewDocStore(client *Client, collection string) *DocStore {
	return &DocStore{
		coll:    client.Collection(collection),
		timeout: client.Timeout(),
	}
}

// ByTextContains matches chunks whose text contains any term as a whole
// word, case-insensitively. Terms are escaped, so regex metacharacters
// in user input cannot produce malformed or pathological patterns.
func (s *DocStore) ByTextContains(ctx context.Context, terms []string, k int) ([]string, error) {
	return s.findByRegex(ctx, terms, k, func(term string) string {
		return `\b` + regexp.QuoteMeta(term) + `\b`
	})
}

// ByFuzzy is the last-resort tier: partial containment without word
// boundaries, still escaped.
func (s *DocStore) ByFuzzy(ctx context.Context, terms []string, k int) ([]string, error) {
	return s.findByRegex(ctx, terms, k, regexp.QuoteMeta)
}

func (s *DocStore) findByRegex(ctx context.Context, terms []string, k int, pattern func(string) string) ([]string, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	or := make(bson.A, 0, len(terms))
	for _, term := range terms {
		if term == "" {
			continue
		}
		or = append(or, bson.M{"text": bson.M{
			"$regex": primitive.Regex{Pattern: pattern(term), Options: "i"},
		}})
	}
	if len(or) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"$or": or}, options.Find().SetLimit(int64(k)))
	if err != nil {
		return nil, fmt.Errorf("text query failed: %w", err)
	}
	return decodeTexts(ctx, cursor)
}

// ByFullText runs the collection's $text index search ranked by score.
// It errors when no text index exists; callers treat that as an empty tier.
func (s *DocStore) ByFullText(ctx context.Context, query string, k int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().
		SetProjection(bson.M{"text": 1, "score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(int64(k))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("full-text query failed: %w", err)
	}
	return decodeTexts(ctx, cursor)
}

// ByVector asks Atlas Search for the k nearest chunks by embedding
// similarity. Chunks without an embedding are excluded by the index
// itself, so no runtime check is needed here.
func (s *DocStore) ByVector(ctx context.Context, embedding []float32, k int) ([]string, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "index", Value: vectorIndexName},
			{Key: "knnBeta", Value: bson.D{
				{Key: "vector", Value: embedding},
				{Key: "path", Value: "embedding"},
				{Key: "k", Value: k},
			}},
		}}},
		{{Key: "$limit", Value: k}},
		{{Key: "$project", Value: bson.D{{Key: "text", Value: 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	return decodeTexts(ctx, cursor)
}

func (s *DocStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.coll.CountDocuments(ctx, bson.M{})
}

// SampleFields returns the field names of an arbitrary document, used by
// the debug command to verify the collection shape.
func (s *DocStore) SampleFields(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc bson.M
	err := s.coll.FindOne(ctx, bson.M{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sample query failed: %w", err)
	}

	fields := make([]string, 0, len(doc))
	for k := range doc {
		fields = append(fields, k)
	}
	return fields, nil
}

// ReplaceAll clears the collection and inserts the given chunks.
// Ingestion is clear-and-repopulate only; there is no incremental update.
func (s *DocStore) ReplaceAll(ctx context.Context, chunks []models.DocumentChunk) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	if len(chunks) == 0 {
		return nil
	}

	docs := make([]interface{}, len(chunks))
	for i := range chunks {
		docs[i] = chunks[i]
	}

	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	return nil
}

func decodeTexts(ctx context.Context, cursor *mongo.Cursor) ([]string, error) {
	defer cursor.Close(ctx)

	var texts []string
	for cursor.Next(ctx) {
		var chunk models.DocumentChunk
		if err := cursor.Decode(&chunk); err != nil {
			return nil, fmt.Errorf("failed to decode chunk: %w", err)
		}
		if chunk.Text != "" {
			texts = append(texts, chunk.Text)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return texts, nil
}

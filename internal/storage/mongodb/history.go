package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quantified-ante/qabot/internal/storage/models"
)

// HistoryStore owns the qa_history collection. Records are append-only;
// nothing in the system mutates or deletes them.
type HistoryStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewHistoryStore(client *Client, collection string) *HistoryStore {
	return &HistoryStore{
		coll:    client.Collection(collection),
		timeout: client.Timeout(),
	}
}

func (s *HistoryStore) Insert(ctx context.Context, rec *models.QAHistoryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Stats aggregates counts and recency for one guild scope. An empty
// guildID means all records. A scope with zero records yields a zero
// rate and an empty recent list, never an error.
func (s *HistoryStore) Stats(ctx context.Context, guildID string, recentN int) (*models.QAStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{}
	if guildID != "" {
		filter["guild_id"] = guildID
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count history records: %w", err)
	}

	successFilter := bson.M{"success": true}
	if guildID != "" {
		successFilter["guild_id"] = guildID
	}
	successful, err := s.coll.CountDocuments(ctx, successFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count successful records: %w", err)
	}

	stats := &models.QAStats{
		Total:      total,
		Successful: successful,
	}
	if total > 0 {
		stats.SuccessRate = float64(successful) / float64(total) * 100
	}

	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(recentN))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var rec models.QAHistoryRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode history record: %w", err)
		}
		stats.Recent = append(stats.Recent, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return stats, nil
}

func (s *HistoryStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.coll.CountDocuments(ctx, bson.M{})
}

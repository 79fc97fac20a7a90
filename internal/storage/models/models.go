package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentChunk is one unit of retrievable knowledge. Text is the only
// field guaranteed present; Embedding exists only when ingestion computed
// one, and chunks without it are simply absent from the vector index.
type DocumentChunk struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Text      string             `bson:"text"`
	Embedding []float32          `bson:"embedding,omitempty"`
}

// QAHistoryRecord is an append-only audit entry, one per question.
type QAHistoryRecord struct {
	ID        string    `bson:"id"`
	Timestamp time.Time `bson:"timestamp"`
	GuildID   string    `bson:"guild_id,omitempty"`
	GuildName string    `bson:"guild_name,omitempty"`
	UserID    string    `bson:"user_id"`
	Username  string    `bson:"username"`
	Question  string    `bson:"question"`
	Answer    string    `bson:"answer"`
	Success   bool      `bson:"success"`
}

type QAStats struct {
	Total       int64
	Successful  int64
	SuccessRate float64
	Recent      []QAHistoryRecord
}

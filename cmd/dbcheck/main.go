package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/storage/mongodb"
	appLogger "github.com/quantified-ante/qabot/pkg/logger"
)

// dbcheck verifies MongoDB connectivity in isolation: connect with
// bounded timeouts, write a probe document, read it back, delete it.
// Only the store credentials are needed, so it reads the environment
// directly instead of requiring the full bot configuration.
func main() {
	if err := appLogger.Init("debug", "console", "stdout"); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	uri := os.Getenv("QABOT_MONGO_URI")
	if uri == "" {
		appLogger.Fatal("QABOT_MONGO_URI environment variable is not set")
	}

	database := os.Getenv("QABOT_MONGO_DATABASE")
	if database == "" {
		database = "quantified_ante"
	}

	appLogger.Info("Attempting to connect to MongoDB...")

	client, err := mongodb.NewClient(uri, database, 5)
	if err != nil {
		appLogger.Fatal("Connection failed; check network access settings on the cluster", zap.Error(err))
	}
	defer client.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	coll := client.Collection("connectivity_check")

	probe := bson.M{"probe": "connection", "timestamp": time.Now().UTC()}
	result, err := coll.InsertOne(ctx, probe)
	if err != nil {
		appLogger.Fatal("Write probe failed", zap.Error(err))
	}
	appLogger.Info("✅ Successfully wrote to database")

	if err := coll.FindOne(ctx, bson.M{"_id": result.InsertedID}).Err(); err != nil {
		appLogger.Fatal("Read probe failed", zap.Error(err))
	}
	appLogger.Info("✅ Successfully read from database")

	if _, err := coll.DeleteOne(ctx, bson.M{"_id": result.InsertedID}); err != nil {
		appLogger.Fatal("Cleanup failed", zap.Error(err))
	}
	appLogger.Info("✅ Successfully cleaned up probe document")

	appLogger.Info("Connectivity check passed", zap.String("database", database))
}

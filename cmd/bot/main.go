package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	rediscache "github.com/quantified-ante/qabot/internal/cache/redis"
	"github.com/quantified-ante/qabot/internal/compose"
	"github.com/quantified-ante/qabot/internal/gateway/discord"
	"github.com/quantified-ante/qabot/internal/health"
	"github.com/quantified-ante/qabot/internal/history"
	"github.com/quantified-ante/qabot/internal/llm"
	"github.com/quantified-ante/qabot/internal/metrics"
	"github.com/quantified-ante/qabot/internal/retrieval"
	"github.com/quantified-ante/qabot/internal/storage/mongodb"
	"github.com/quantified-ante/qabot/pkg/config"
	appLogger "github.com/quantified-ante/qabot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Quantified Ante Q&A bot")

	metrics.Init()

	mongoClient, err := mongodb.NewClient(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.TimeoutSec)
	if err != nil {
		appLogger.Fatal("Failed to create MongoDB client", zap.Error(err))
	}
	defer mongoClient.Close(context.Background())

	docStore := mongodb.NewDocStore(mongoClient, cfg.Mongo.DocsCollection)
	historyStore := mongodb.NewHistoryStore(mongoClient, cfg.Mongo.HistoryCollection)

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	var cache *rediscache.Cache
	if cfg.Redis.Enabled {
		cache, err = rediscache.NewCache(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLMin)*time.Minute,
		)
		if err != nil {
			appLogger.Warn("Answer cache unavailable, continuing without it", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	retriever := retrieval.NewRetriever(docStore, llmClient, cfg.Retrieval.TopK)
	composer := compose.NewComposer(llmClient, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	historyLogger := history.NewLogger(historyStore, cfg.History.QueueSize, cfg.History.RecentN)
	defer historyLogger.Close()

	bot, err := discord.New(cfg.Discord.Token, cfg.Discord.GuildID, cfg.Discord.SplitLimit, &discord.Services{
		Store:     mongoClient,
		Docs:      docStore,
		Retriever: retriever,
		Composer:  composer,
		History:   historyLogger,
		Cache:     cache,
	})
	if err != nil {
		appLogger.Fatal("Failed to create discord bot", zap.Error(err))
	}

	if err := bot.Start(); err != nil {
		appLogger.Fatal("Failed to start discord bot", zap.Error(err))
	}
	defer bot.Stop()

	server := health.NewServer(
		cfg.Server.Host,
		cfg.Server.Port,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		mongoClient,
		bot.Ready,
	)

	go func() {
		appLogger.Info("Health server starting", zap.String("address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))
		if err := server.Listen(); err != nil {
			appLogger.Fatal("Health server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down gracefully...")
	server.Shutdown()
	appLogger.Info("Stopped")
}

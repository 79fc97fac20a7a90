package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/ingestion"
	"github.com/quantified-ante/qabot/internal/llm"
	"github.com/quantified-ante/qabot/internal/storage/mongodb"
	"github.com/quantified-ante/qabot/pkg/config"
	appLogger "github.com/quantified-ante/qabot/pkg/logger"
)

func main() {
	pdfPath := flag.String("pdf", "", "path to the PDF to ingest")
	flag.Parse()

	if *pdfPath == "" {
		fmt.Println("Usage: ingest -pdf <path>")
		os.Exit(1)
	}

	cfg, err := config.LoadIngest()
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

	mongoClient, err := mongodb.NewClient(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.TimeoutSec)
	if err != nil {
		appLogger.Fatal("Failed to create MongoDB client", zap.Error(err))
	}
	defer mongoClient.Close(context.Background())

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	docStore := mongodb.NewDocStore(mongoClient, cfg.Mongo.DocsCollection)
	processor := ingestion.NewProcessor(docStore, llmClient)

	count, err := processor.IngestPDF(context.Background(), *pdfPath)
	if err != nil {
		appLogger.Fatal("Ingestion failed", zap.Error(err))
	}

	appLogger.Info("Ingestion finished",
		zap.String("pdf", *pdfPath),
		zap.Int("chunks_stored", count),
	)
}

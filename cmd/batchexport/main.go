package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"wordslayer/internal/config"
	"wordslayer/internal/database"
	"wordslayer/internal/logger"
	"wordslayer/internal/service"
)

func main() {
	userID := flag.Int64("user", 0, "User ID (required)")
	bankID := flag.Int64("bank", 0, "Word bank ID (required)")
	batchID := flag.Int64("batch", 0, "Batch ID (required)")
	output := flag.String("output", "", "Output file path (default: <batch name>.xlsx)")
	flag.Parse()

	if *userID <= 0 || *bankID <= 0 || *batchID <= 0 {
		fmt.Println("Error: -user, -bank and -batch are required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	batches := service.NewBatchService(db, service.NewCalendar(cfg.Location), cfg.HardWordFaultCount, log)
	if err := export(context.Background(), batches, *userID, *bankID, *batchID, *output); err != nil {
		log.Fatal("Export failed", "error", err)
	}
}

func export(ctx context.Context, batches *service.BatchService, userID, bankID, batchID int64, outputPath string) error {
	batch, err := batches.GetBatch(ctx, userID, bankID, batchID)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = batch.BatchNo + ".xlsx"
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := batches.WriteWorkbook(ctx, batch, file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	fmt.Printf("Exported batch %s (%d words) to %s\n", batch.BatchNo, len(batch.Words), outputPath)
	return nil
}

package main

import (
	"context"
	"flag"
	"time"

	"saggita/internal/config"
	"saggita/internal/database"
	"saggita/internal/logger"
	"saggita/internal/repository"
	"saggita/internal/search"
)

func main() {
	var batchSize int
	flag.IntVar(&batchSize, "batch", 500, "Students per bulk indexing request")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")
	log := logger.Get()
	log.Info("Starting roster reindex")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	searchClient, err := search.NewClient(cfg.Search)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	students := repository.NewStudentRepository(db)

	start := time.Now()
	ctx := context.Background()

	all, err := students.ListAll(ctx)
	if err != nil {
		logger.Fatal("Failed to list students", "error", err)
	}

	indexed := 0
	for from := 0; from < len(all); from += batchSize {
		to := from + batchSize
		if to > len(all) {
			to = len(all)
		}
		if err := searchClient.BulkIndex(ctx, all[from:to]); err != nil {
			logger.Fatal("Bulk indexing failed", "from", from, "error", err)
		}
		indexed += to - from
		log.Info("Indexed batch", "indexed", indexed, "total", len(all))
	}

	log.Info("Reindex completed",
		"students", indexed,
		"took_ms", time.Since(start).Milliseconds())
}

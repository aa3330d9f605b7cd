package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"rampfit/adapters/api"
	"rampfit/adapters/postgres"
	"rampfit/internal"
	"rampfit/internal/config"
	"rampfit/ports"
)

func main() {
	// .env is optional; environment variables win either way
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger := internal.NewDefaultLogger()

	var repo ports.FitRepository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatal("Database connection failed: ", err)
		}
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Fatal("Schema migration failed: ", err)
		}
		repo = postgres.NewFitRepository(db)
		logger.Info("fit summary persistence enabled")
	}

	server := api.NewServer(repo, cfg.Fit.Workers, logger)
	if err := server.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

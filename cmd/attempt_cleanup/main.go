package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"culturin/internal/config"
	"culturin/internal/database"
	"culturin/internal/logger"
	"culturin/internal/repository"
)

func main() {
	olderThan := flag.Duration("older-than", 30*24*time.Hour, "delete failed and refunded payment attempts older than this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := repository.NewPaymentAttemptRepository(db).DeleteSettledOlderThan(ctx, *olderThan)
	if err != nil {
		zl.Fatal("cleanup payment_attempts failed", zap.Error(err))
	}
	zl.Info("payment attempt cleanup completed", zap.Int64("deleted", n), zap.Duration("older_than", *olderThan))
}

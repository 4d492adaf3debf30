package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"attendance-console/internal/attendance"
	"attendance-console/internal/config"
	"attendance-console/internal/queue"
	"attendance-console/internal/store"
)

// Worker consumes dispatch outcomes and appends them to the history table.
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend == "memory" {
		log.Fatal("worker needs QUEUE_BACKEND=redis; the memory queue is consumed inside the api process")
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	svc := attendance.NewService(attendance.NewRepository(db.Client))

	log.Println("worker started, waiting for outcomes...")
	n, err := attendance.ConsumeOutcomes(ctx, q, svc)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}
	log.Printf("worker stopped after storing %d outcomes", n)
}

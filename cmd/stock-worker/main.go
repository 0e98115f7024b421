package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/queuecare/hospital-backend/internal/auth"
	"github.com/queuecare/hospital-backend/internal/config"
	"github.com/queuecare/hospital-backend/internal/db"
	"github.com/queuecare/hospital-backend/internal/inventory"
	"github.com/queuecare/hospital-backend/internal/notify"
	redisclient "github.com/queuecare/hospital-backend/internal/redis"
)

// stock-worker sweeps the inventory on a schedule and opens reorder requests
// for every medicine at or below its reorder level.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("stock-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.ApprovalTokenTTL)
	engine := inventory.NewEngine(
		inventory.NewPgRepository(pgPool),
		notify.NewLogNotifier(),
		tokens,
		redisclient.NewRedisTokenConsumer(rdb),
		redisclient.NewRedisLocker(rdb, cfg.LockTTL),
	)

	runScan := func() {
		ctx, cancel := context.WithTimeout(rootCtx, 5*time.Minute)
		defer cancel()

		initiated, err := engine.ScanAndReorder(ctx)
		if err != nil {
			log.Printf("inventory scan failed: %v", err)
			return
		}
		log.Printf("inventory scan complete initiated=%d", initiated)
	}

	// One sweep at startup so a crashed worker does not leave low stock
	// unnoticed until the next tick.
	runScan()

	c := cron.New()
	if _, err := c.AddFunc(cfg.StockScanSpec, runScan); err != nil {
		log.Fatalf("invalid STOCK_SCAN_SPEC %q: %v", cfg.StockScanSpec, err)
	}
	c.Start()
	log.Printf("scheduled inventory scan spec=%q", cfg.StockScanSpec)

	<-rootCtx.Done()
	log.Println("shutting down stock-worker")

	<-c.Stop().Done()
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/queuecare/hospital-backend/internal/api"
	"github.com/queuecare/hospital-backend/internal/auth"
	"github.com/queuecare/hospital-backend/internal/booking"
	"github.com/queuecare/hospital-backend/internal/config"
	"github.com/queuecare/hospital-backend/internal/db"
	"github.com/queuecare/hospital-backend/internal/inventory"
	"github.com/queuecare/hospital-backend/internal/notify"
	redisclient "github.com/queuecare/hospital-backend/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
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

	notifier := notify.NewLogNotifier()
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	consumer := redisclient.NewRedisTokenConsumer(rdb)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.ApprovalTokenTTL)

	authRepo := auth.NewPgRepository(pgPool)
	authSvc := auth.NewService(authRepo, tokens)

	bookingRepo := booking.NewPgRepository(pgPool)
	scheduler := booking.NewScheduler(bookingRepo, cfg.BookingRetries)
	lifecycle := booking.NewLifecycle(bookingRepo, notifier)

	invRepo := inventory.NewPgRepository(pgPool)
	monitor := inventory.NewMonitor(invRepo)
	engine := inventory.NewEngine(invRepo, notifier, tokens, consumer, locker)
	orders := inventory.NewOrderService(invRepo)

	router := api.NewRouter(api.RouterDeps{
		Auth:         api.NewAuthHandler(authSvc),
		Appointments: api.NewAppointmentHandler(scheduler, lifecycle),
		Inventory:    api.NewInventoryHandler(invRepo, monitor, engine, orders),
		Health:       api.NewHealthHandler(pgPool, rdb),
		AuthService:  authSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}

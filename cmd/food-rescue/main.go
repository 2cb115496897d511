package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mr1hm/go-food-rescue/internal/api"
	"github.com/mr1hm/go-food-rescue/internal/availability"
	"github.com/mr1hm/go-food-rescue/internal/config"
	"github.com/mr1hm/go-food-rescue/internal/engine"
	"github.com/mr1hm/go-food-rescue/internal/events"
	internalgrpc "github.com/mr1hm/go-food-rescue/internal/grpc"
	"github.com/mr1hm/go-food-rescue/internal/logging"
	"github.com/mr1hm/go-food-rescue/internal/metrics"
	"github.com/mr1hm/go-food-rescue/internal/repository"
	"github.com/mr1hm/go-food-rescue/internal/sweeper"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "timezone", cfg.Location.String())

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	m, err := metrics.New(nil)
	if err != nil {
		logging.Fatalf("Failed to register metrics: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Events fan out to gRPC subscribers and the log. The dispatcher is not
	// tied to ctx so that Stop can drain the queue.
	broadcaster := internalgrpc.NewBroadcaster(m)
	dispatcher := events.NewDispatcher(cfg.Events.Workers, cfg.Events.BufferSize, m, broadcaster, events.LogSink())
	dispatcher.Start(context.Background())

	eng := engine.New(db,
		engine.WithMatcher(availability.NewFirstFit(cfg.Location)),
		engine.WithPublisher(dispatcher),
		engine.WithMetrics(m),
	)

	var sweep *sweeper.Sweeper
	if cfg.Sweep.Enabled {
		sweep = sweeper.New(eng, cfg.Sweep.Interval)
		sweep.Start(ctx)
	}

	grpcServer := internalgrpc.NewServer(broadcaster, m)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.MetricsMiddleware(m))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit.RPS))

	handler := api.NewHandler(eng, m)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	if sweep != nil {
		sweep.Stop()
	}
	dispatcher.Stop()
	broadcaster.Close() // Close all streams gracefully
	grpcServer.Stop()

	slog.Info("shutdown complete")
}

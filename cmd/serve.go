package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"todo-api/internal/auth"
	"todo-api/internal/cache"
	"todo-api/internal/config"
	"todo-api/internal/controller"
	"todo-api/internal/database"
	"todo-api/internal/queue"
	"todo-api/internal/repository"
	"todo-api/internal/routes"
	"todo-api/internal/stats"
	"todo-api/internal/worker"
	"todo-api/pkg/logger"

	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port (overrides HTTP_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := config.Get()
	if servePort != "" {
		cfg.HTTPPort = servePort
	}

	db := database.DB(ctx)
	if db == nil {
		return errors.New("database not available")
	}
	defer db.Close()
	if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
		return err
	}

	// Redis and Kafka are optional; both degrade to no-ops when unreachable
	statsCache := cache.NewStatsCache(cache.Client(ctx), time.Duration(cfg.StatsCacheTTL)*time.Second)
	producer := queue.Producer(ctx)
	queue.EnsureTopic(ctx)
	if producer != nil {
		defer producer.Close()
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), repository.NewTokenBlacklistRepo(db))
	accounts := auth.NewService(repository.NewUserRepo(db), tokens, cfg.BcryptCost)
	aggregator := stats.NewAggregator(repository.NewStatsRepo(db), statsCache, cfg.Location())

	h := &controller.Handler{
		Accounts:    accounts,
		Todos:       repository.NewTodoRepo(db),
		Categories:  repository.NewCategoryRepo(db),
		Stats:       aggregator,
		Events:      queue.NewPublisher(producer),
		Location:    cfg.Location(),
		PageSize:    cfg.PageSize,
		MaxPageSize: cfg.MaxPageSize,
	}
	deps := routes.Deps{Handler: h, Auth: accounts, DB: db, APIPrefix: cfg.APIPrefix}
	if statsCache != nil {
		deps.Cache = statsCache
	}

	// Consumes todo events and invalidates cached stats; exits when ctx is cancelled
	go worker.Run(ctx, aggregator)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort, "prefix", cfg.APIPrefix)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Server shutdown error", "error", err)
	}
	logger.Info(shutdownCtx, "Server stopped")
	return nil
}

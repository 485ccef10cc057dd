package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-platform/internal/auth"
	"library-platform/internal/books"
	"library-platform/internal/config"
	"library-platform/internal/httpapi"
	"library-platform/internal/monitoring"
	"library-platform/internal/openlibrary"
	"library-platform/internal/token"
	"library-platform/internal/users"
	"library-platform/migrations"
	"library-platform/pkg/logger"
	"library-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	signer, err := auth.NewSigner(cfg.Auth)
	if err != nil {
		log.Error("signer init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(rootCtx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	userSvc := users.NewService(users.NewPostgresRepository(db))
	tokenSvc := token.NewService(signer, token.NewPostgresStore(db), userSvc)
	bookRepo := books.NewPostgresRepository(db)
	bookSvc := books.NewService(bookRepo, openlibrary.NewClient(cfg.OpenLibrary))

	if err := userSvc.Seed(rootCtx); err != nil {
		log.Error("user seed failed", "err", err)
		os.Exit(1)
	}

	monitoring.RegisterBooksTotal(func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := bookRepo.Count(ctx)
		if err != nil {
			return 0
		}
		return float64(n)
	})

	// Expired refresh tokens only gate storage growth, not security:
	// the verifier rejects them by exp regardless. A daily sweep is enough.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				n, err := tokenSvc.PurgeExpired(rootCtx)
				if err != nil {
					log.Warn("refresh token purge failed", "err", err)
					continue
				}
				log.Info("refresh tokens purged", "deleted", n)
			}
		}
	}()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(monitoring.RequestDuration())

	h := httpapi.Handlers{
		Users:      userSvc,
		Tokens:     tokenSvc,
		Books:      bookSvc,
		Redis:      rdb,
		RateLimit:  cfg.Auth.LoginRateLimit,
		RateWindow: cfg.Auth.LoginRateWindow,
	}
	registerRoutes(r, h, signer, db, bookSvc)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

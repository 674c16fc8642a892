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

	"inventory-platform/internal/audit"
	"inventory-platform/internal/auth"
	"inventory-platform/internal/config"
	"inventory-platform/internal/httpapi"
	"inventory-platform/internal/inventory"
	"inventory-platform/internal/projects"
	"inventory-platform/internal/rbac"
	"inventory-platform/internal/trash"
	"inventory-platform/internal/users"
	"inventory-platform/pkg/logger"
	"inventory-platform/pkg/utils"

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

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Identity cache: explicitly constructed here and injected, so its
	// lifecycle (sweep goroutine, Shutdown) is owned by main.
	identityCache := auth.NewIdentityCache(auth.CacheOptions{
		TTL:           cfg.Cache.TTL,
		MaxEntries:    cfg.Cache.MaxEntries,
		SweepInterval: cfg.Cache.SweepInterval,
		Permissions:   rbac.PermissionsFor,
		AdminRole:     rbac.RoleAdmin,
	}, logger.Component(log, "auth_cache"))
	defer identityCache.Shutdown()

	auditor := audit.NewRecorder()
	retryCfg := utils.RetryConfig{}

	auditSvc := audit.NewService(audit.NewPostgresRepo(db, retryCfg))
	trashRepo := trash.NewPostgresRepo(db, auditor, retryCfg)
	trashSvc := trash.NewService(trashRepo, cfg.TrashRetention(), logger.Component(log, "trash"))
	inventorySvc := inventory.NewService(inventory.NewPostgresRepo(db, auditor, retryCfg), logger.Component(log, "inventory"))
	importer := inventory.NewImporter(inventorySvc, rdb, logger.Component(log, "csv_import"))
	projectsSvc := projects.NewService(projects.NewPostgresRepo(db, auditor, retryCfg), logger.Component(log, "projects"))
	usersSvc := users.NewService(users.NewPostgresRepo(db, auditor, retryCfg), logger.Component(log, "users"))

	// Background workers: cross-instance cache invalidation and the
	// retention sweep over the soft-delete ledger.
	go auth.NewInvalidator(rdb, identityCache, logger.Component(log, "invalidator")).Run(rootCtx)
	go trash.NewSweeper(trashRepo, cfg.TrashRetention(), cfg.Trash.SweepInterval, logger.Component(log, "trash_sweeper")).Run(rootCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := httpapi.Handlers{
		Auth:      authManager,
		Cache:     identityCache,
		Redis:     rdb,
		Users:     usersSvc,
		Audit:     auditSvc,
		Trash:     trashSvc,
		Inventory: inventorySvc,
		Importer:  importer,
		Projects:  projectsSvc,
		Log:       log,
	}
	registerRoutes(r, handlers, auth.RequireAccessToken(authManager, identityCache))

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

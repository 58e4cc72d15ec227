package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/aanooo/erp-system/api"
	"github.com/aanooo/erp-system/auth"
	"github.com/aanooo/erp-system/config"
	"github.com/aanooo/erp-system/database"
	"github.com/aanooo/erp-system/reporting"
)

const reportCachePrefix = "erp:reports:"

func main() {
	configPath := os.Getenv("ERP_CONFIG")
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	db, err := database.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if cfg.Database.Seed {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	var (
		reportOpts []reporting.Option
		cache      *reporting.RedisCache
	)
	if rdb := connectRedis(ctx, cfg.Redis); rdb != nil {
		cache = reporting.NewRedisCache(rdb, reportCachePrefix, cfg.Redis.TTL)
		reportOpts = append(reportOpts, reporting.WithCache(cache))
	}

	router, err := SetupRouter(ctx, db, cfg, reportOpts...)
	if err != nil {
		slog.Error("failed to set up router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// A listener failure cancels trigger so the shutdown operations still run.
	trigger, stop := context.WithCancel(context.Background())
	failed := serve(srv, stop)
	wait := gfshutdown.GracefulShutdown(trigger, cfg.Server.ShutdownTimeout, shutdownOps(srv, db, cache))

	exitCode := <-wait
	if err := <-failed; err != nil && exitCode == 0 {
		exitCode = 1
	}
	slog.Info("application exited", "code", exitCode)
	os.Exit(exitCode)
}

// serve runs srv in the background. If it stops for any reason other than a
// shutdown, the error is sent on the returned channel and stop is called. The
// channel is closed once the server has returned.
func serve(srv *http.Server, stop context.CancelFunc) <-chan error {
	failed := make(chan error, 1)
	go func() {
		defer close(failed)
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			failed <- err
			stop()
		}
	}()
	return failed
}

// shutdownOps stops the server and releases the database and the report
// cache. cache may be nil.
func shutdownOps(srv *http.Server, db *gorm.DB, cache *reporting.RedisCache) map[string]gfshutdown.Operation {
	ops := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			slog.Info("shutting down http server")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return database.Close(db)
		},
	}
	if cache != nil {
		ops["redis"] = func(context.Context) error {
			stats := cache.Stats()
			slog.Info("report cache stats",
				"hits", stats.Hits, "misses", stats.Misses, "sets", stats.Sets, "errors", stats.Errors)
			return cache.Close()
		}
	}
	return ops
}

// SetupRouter wires the services over db into the HTTP router.
func SetupRouter(ctx context.Context, db *gorm.DB, cfg *config.Config, reportOpts ...reporting.Option) (*gin.Engine, error) {
	authService := auth.NewService(
		auth.NewGormStore(db),
		auth.NewPasswordHasher(),
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	)
	if err := authService.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init credential store: %w", err)
	}

	opts := api.Options{AllowedOrigins: cfg.Server.AllowedOrigins}
	if cfg.Auth.RequireToken {
		verifiers := auth.Verifiers{authService}
		if cfg.Auth.OIDCIssuer != "" {
			oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
			if err != nil {
				return nil, err
			}
			verifiers = append(verifiers, oidcVerifier)
		}
		opts.Verifier = verifiers
	}

	reports := reporting.NewService(db, cfg.Reporting.LowStockThreshold, reportOpts...)
	return api.NewRouter(api.NewHandler(db, reports, authService), opts), nil
}

// connectRedis returns nil when no address is configured or the server does
// not answer; reports are then computed on every request.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, report cache disabled", "addr", cfg.Addr, "error", err)
		client.Close()
		return nil
	}
	slog.Info("report cache enabled", "addr", cfg.Addr, "ttl", cfg.TTL)
	return client
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/roombook/internal/adapters"
	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/cache"
	"github.com/example/roombook/internal/config"
	httptransport "github.com/example/roombook/internal/http"
	"github.com/example/roombook/internal/logging"
	"github.com/example/roombook/internal/notify"
	"github.com/example/roombook/internal/persistence/postgres"
	"github.com/example/roombook/internal/persistence/sqlite"
	"github.com/example/roombook/internal/persistence/sqlite/migration"
	"github.com/example/roombook/internal/storage"
)

// memoryCacheEntries bounds the in-process room cache used without Redis.
const memoryCacheEntries = 256

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel).With("environment", cfg.Environment)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	roomCache, cacheHealth, closeCache := openRoomCache(ctx, cfg, logger)
	defer closeCache()

	objects, static, err := openObjectStore(cfg)
	if err != nil {
		return err
	}

	services, err := buildApp(ctx, cfg, db, roomCache, objects, logger)
	if err != nil {
		return err
	}

	handler := services.router(cfg, httptransport.DiagnosticsConfig{
		Presence:    cfg.Presence(),
		Database:    httptransport.HealthFunc(db.Ping),
		ObjectStore: objects,
		Cache:       cacheHealth,
	}, static, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("roombook API listening", "addr", server.Addr, "database", cfg.DatabaseDriver, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// database is a migrated backend that provides every repository.
type database interface {
	adapters.Store
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

func openDatabase(ctx context.Context, cfg config.Config, logger *slog.Logger) (database, error) {
	var (
		db  database
		err error
	)
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err = postgres.Open(ctx, cfg.DatabaseURL, logger)
	default:
		db, err = sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}

// openRoomCache prefers Redis and falls back to an in-process cache when
// Redis is not configured or unreachable.
func openRoomCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (application.RoomCache, httptransport.HealthChecker, func()) {
	memory := application.NewMemoryRoomCache(cfg.RoomCacheTTL, memoryCacheEntries, time.Now)
	if cfg.RedisAddr == "" {
		return memory, nil, func() {}
	}
	redisCache, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RoomCacheTTL, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory room cache", "addr", cfg.RedisAddr, "error", err)
		return memory, nil, func() {}
	}
	return redisCache, httptransport.HealthFunc(redisCache.Ping), func() {
		if err := redisCache.Close(); err != nil {
			logger.Error("failed to close redis", "error", err)
		}
	}
}

// objectStore is an application.ObjectStore that can report its health.
type objectStore interface {
	application.ObjectStore
	httptransport.HealthChecker
}

// openObjectStore returns the configured store and, for the local driver, the
// handler serving stored files under /uploads/.
func openObjectStore(cfg config.Config) (objectStore, http.Handler, error) {
	if cfg.StorageDriver == config.StorageSupabase {
		client := &http.Client{Timeout: 30 * time.Second}
		return storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket, client), nil, nil
	}
	local, err := storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	return local, http.FileServer(http.Dir(local.Root())), nil
}

// app is the wired service graph.
type app struct {
	auth       *application.AuthService
	users      *application.UserService
	rooms      *application.RoomService
	roomBlocks *application.RoomBlockService
	bookings   *application.BookingService
	reports    *application.ReportService
	settings   *application.SettingsService
	audit      *application.AuditService
	uploads    *application.UploadService
}

func buildApp(ctx context.Context, cfg config.Config, db database, roomCache application.RoomCache, objects application.ObjectStore, logger *slog.Logger) (*app, error) {
	now := time.Now
	idGenerator := uuid.NewString
	repos := adapters.Wrap(db, now)

	tokens, err := application.NewTokenCodec([]byte(cfg.SessionSecret), now)
	if err != nil {
		return nil, fmt.Errorf("session signing: %w", err)
	}

	recorder := application.NewAuditRecorder(repos.Audit, idGenerator, now, logger)
	settings := application.NewSettingsService(repos.Settings, now, logger).WithAudit(recorder)
	users := application.NewUserServiceWithLogger(repos.Profiles, repos.Identities, idGenerator, now, logger).WithAudit(recorder)
	rooms := application.NewRoomServiceWithLogger(repos.Rooms, idGenerator, now, logger).
		WithSettings(settings).
		WithAudit(recorder).
		WithCache(roomCache).
		WithTimeout(cfg.RequestTimeout)
	bookings := application.NewBookingServiceWithLogger(repos.Bookings, repos.Rooms, repos.Profiles, idGenerator, now, logger).
		WithAudit(recorder).
		WithNotifier(notify.NewLogNotifier(settings, logger)).
		WithTimeout(cfg.RequestTimeout)

	a := &app{
		auth:       application.NewAuthServiceWithLogger(repos.Identities, users, repos.Profiles, repos.Sessions, tokens, idGenerator, now, cfg.SessionTTL, logger),
		users:      users,
		rooms:      rooms,
		roomBlocks: application.NewRoomBlockService(repos.RoomBlocks, repos.Rooms, idGenerator, now, logger).WithAudit(recorder),
		bookings:   bookings,
		reports:    application.NewReportService(repos.Bookings, repos.Rooms, settings, logger).WithTimeout(cfg.RequestTimeout),
		settings:   settings,
		audit:      application.NewAuditService(repos.Audit, logger),
		uploads:    application.NewUploadService(objects, idGenerator, logger),
	}

	if cfg.BootstrapAdminEmail != "" {
		created, err := users.BootstrapAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("bootstrap administrator created", "email", cfg.BootstrapAdminEmail)
		}
	}
	return a, nil
}

func (a *app) router(cfg config.Config, diagnostics httptransport.DiagnosticsConfig, static http.Handler, logger *slog.Logger) http.Handler {
	diagnostics.Sessions = a.auth
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(a.auth, logger),
		Users:          httptransport.NewUserHandler(a.users, logger),
		Rooms:          httptransport.NewRoomHandler(a.rooms, logger),
		RoomBlocks:     httptransport.NewRoomBlockHandler(a.roomBlocks, logger),
		Bookings:       httptransport.NewBookingHandler(a.bookings, logger),
		Uploads:        httptransport.NewUploadHandler(a.uploads, logger),
		Admin:          httptransport.NewAdminHandler(a.reports, a.settings, a.audit, logger),
		Diagnostics:    httptransport.NewDiagnosticsHandler(diagnostics, logger),
		Sessions:       a.auth,
		Static:         static,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"hrrecords/internal/domain/audit"
	"hrrecords/internal/domain/employee"
	"hrrecords/internal/platform/backup"
	"hrrecords/internal/platform/cache"
	"hrrecords/internal/platform/config"
	cryptoutil "hrrecords/internal/platform/crypto"
	"hrrecords/internal/platform/db"
	"hrrecords/internal/platform/events"
	"hrrecords/internal/platform/jobs"
	"hrrecords/internal/platform/metrics"
	"hrrecords/internal/platform/storage"
	audithandler "hrrecords/internal/transport/http/handlers/audit"
	employeehandler "hrrecords/internal/transport/http/handlers/employee"
	systemhandler "hrrecords/internal/transport/http/handlers/system"
	"hrrecords/internal/transport/http/middleware"
)

const eventSource = "hrrecords"

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler

	logger  *zap.Logger
	jobs    *jobs.Service
	backups *backup.Runner
	closers []func() error
}

// New connects every backing service and builds the router. Redis, Kafka and
// SFTP are optional and only wired when configured.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, logger: logger}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app.DB = pool
	app.closers = append(app.closers, func() error { pool.Close(); return nil })

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, db.Migrations(cfg.MigrationsDir), logger); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		seeded, err := db.Seed(ctx, pool)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		logger.Info("seed complete", zap.Int("employees", seeded))
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		app.Close()
		return nil, err
	}
	if !crypto.Configured() {
		logger.Warn("DATA_ENCRYPTION_KEY not set; uan and esiip are stored in plaintext")
	}

	store := employee.NewStore(pool, crypto)
	opts := []employee.Option{}

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, rdb.Close)
		opts = append(opts, employee.WithCache(cache.New(rdb, "hrrecords:employees:", cfg.ListCacheTTL, logger)))
		logger.Info("employee list cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEmployeeTopic, eventSource)
		app.closers = append(app.closers, publisher.Close)
		opts = append(opts, employee.WithEvents(publisher))
		logger.Info("employee change events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaEmployeeTopic))
	}

	photos, err := storage.NewPhotos(cfg.FilesDir, cfg.MaxPhotoBytes)
	if err != nil {
		app.Close()
		return nil, err
	}
	opts = append(opts, employee.WithPhotos(photos))

	employees := employee.NewService(store, logger, opts...)
	auditService := audit.New(pool)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	var uploader backup.Uploader
	if cfg.SFTPEnabled() {
		warnUnverifiedSFTP(cfg, logger)
		sftpUploader, err := backup.NewSFTPUploader(backup.SFTPConfig{
			Host:      cfg.SFTPHost,
			Port:      cfg.SFTPPort,
			User:      cfg.SFTPUser,
			Pass:      cfg.SFTPPass,
			RemoteDir: cfg.SFTPRemoteDir,
			HostKey:   cfg.SFTPHostKey,
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		uploader = sftpUploader
	}

	app.jobs = jobs.New(pool, logger)
	backups := backup.NewService(store, cfg.BackupDir, cfg.BackupKeep, uploader, logger)
	app.backups = backup.NewRunner(backups, app.jobs, auditService, collector, logger)
	app.backups.Schedule(cfg.BackupInterval)

	employeeHandler := employeehandler.NewHandler(employees, auditService, cfg.MaxPhotoBytes, logger)
	employeeHandler.CreateMiddleware = append(employeeHandler.CreateMiddleware,
		middleware.Idempotency(middleware.NewIdempotencyStore(pool), logger))

	app.Router = newRouter(routerDeps{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		ready:     pool.Ping,
		mount: []interface{ RegisterRoutes(chi.Router) }{
			employeeHandler,
			systemhandler.NewHandler(employees, db.Schema{DB: pool}, app.backups, app.jobs, collector, logger),
			audithandler.NewHandler(auditService, logger),
		},
	})
	return app, nil
}

type routerDeps struct {
	cfg       config.Config
	logger    *zap.Logger
	collector *metrics.Collector
	ready     func(context.Context) error
	mount     []interface{ RegisterRoutes(chi.Router) }
}

func newRouter(deps routerDeps) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(deps.logger, deps.collector))
	router.Use(middleware.Recoverer(deps.logger))
	router.Use(middleware.SecureHeaders(deps.cfg.IsProduction()))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.ready(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.cfg.RateLimitPerMinute, time.Minute, middleware.WithLogger(deps.logger)))
		r.Use(middleware.BodyLimit(deps.cfg.MaxBodyBytes))
		for _, h := range deps.mount {
			h.RegisterRoutes(r)
		}
	})
	return router
}

// Run starts the background jobs and serves HTTP until ctx is cancelled,
// then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("employee records server listening", zap.String("addr", a.Config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// warnUnverifiedSFTP reports whether backups go to an SFTP server whose host
// key is not pinned.
func warnUnverifiedSFTP(cfg config.Config, logger *zap.Logger) bool {
	if !cfg.SFTPEnabled() || strings.TrimSpace(cfg.SFTPHostKey) != "" {
		return false
	}
	logger.Warn("SFTP_HOST_KEY not set; sftp server identity is not verified",
		zap.String("host", cfg.SFTPHost), zap.Int("port", cfg.SFTPPort))
	return true
}

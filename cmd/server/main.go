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

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/nebula-feed/internal/audit"
	"github.com/ayush/nebula-feed/internal/auth"
	"github.com/ayush/nebula-feed/internal/config"
	"github.com/ayush/nebula-feed/internal/feed"
	"github.com/ayush/nebula-feed/internal/metrics"
	"github.com/ayush/nebula-feed/internal/store"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server.exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := store.NewPool(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		return err
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()
	sessions := auth.NewSessionStore(rdb, cfg.SessionTTL)

	// ── Metrics ──────────────────────────────────────────────
	m := metrics.New()

	// ── MongoDB (optional audit sink) ────────────────────────
	var auditStore *store.MongoAuditStore
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(dctx)
		}()
		auditStore = store.NewMongoAuditStore(mongoClient.Database(cfg.MongoDB))
		if err := auditStore.EnsureIndexes(ctx); err != nil {
			return err
		}
		log.Info("audit.mongo.enabled", "db", cfg.MongoDB)
	}

	// ── MinIO (optional avatar storage) ──────────────────────
	var avatars *store.AvatarStore
	if cfg.MinioEndpoint != "" {
		avatars, err = store.NewAvatarStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			return err
		}
		log.Info("avatars.minio.enabled", "bucket", cfg.MinioBucket)
	}

	// ── Services ─────────────────────────────────────────────
	sinks := []audit.Recorder{m}
	var auditLog feed.AuditLog
	if auditStore != nil {
		sinks = append(sinks, auditStore)
		auditLog = auditStore
	}
	trail := audit.NewTrail(log, sinks...)

	identity, err := auth.NewService(pgStore, trail, log)
	if err != nil {
		return err
	}
	if cfg.AdminPassword != "" {
		if err := identity.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
			return err
		}
	}

	guard := auth.NewGuard(pgStore, trail, log)
	stream := feed.NewStream(log, cfg.CORSAllowedOrigins, 0)

	deps := feed.Deps{
		Accounts:  pgStore,
		Posts:     pgStore,
		Guard:     guard,
		Audit:     auditLog,
		Publisher: stream,
		Trail:     trail,
		Log:       log,
	}
	if avatars != nil {
		deps.Objects = avatars
	}
	feedSvc := feed.NewService(deps)

	// ── Router ───────────────────────────────────────────────
	r := newRouter(routerDeps{
		log:      log,
		cfg:      cfg,
		metrics:  m,
		sessions: sessions,
		auth:     auth.NewHandler(identity, sessions, trail, log, cfg.CookieSecure),
		feed:     feed.NewHandler(feedSvc, log),
		stream:   stream,
		ready: func(ctx context.Context) error {
			if err := store.Ping(ctx, pgPool, 2*time.Second); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.start", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server.shutdown")
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	blobadapter "github.com/securedocs/document-service/internal/adapters/blob"
	cacheadapter "github.com/securedocs/document-service/internal/adapters/cache"
	eventadapter "github.com/securedocs/document-service/internal/adapters/events"
	grpcadapter "github.com/securedocs/document-service/internal/adapters/grpc"
	httpadapter "github.com/securedocs/document-service/internal/adapters/http"
	"github.com/securedocs/document-service/internal/adapters/postgres"
	"github.com/securedocs/document-service/internal/adapters/security"
	"github.com/securedocs/document-service/internal/application"
	"github.com/securedocs/document-service/internal/domain"
	"github.com/securedocs/document-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping document vault service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	verifier, err := security.NewTokenVerifier(cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init token verifier: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		verifier, err = security.NewEphemeralTokenVerifier()
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init ephemeral token verifier: %w", err)
		}
	}

	blobs, err := blobadapter.NewFilesystemStore(cfg.BlobDir)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			MaxUploadBytes:   cfg.MaxUploadBytes,
			DefaultListLimit: cfg.DefaultListLimit,
			MaxListLimit:     cfg.MaxListLimit,
		},
		Documents: repos.Documents,
		Requests:  repos.Requests,
		Grants:    repos.Grants,
		Blobs:     blobs,
		Vault:     security.NewKeyVault(),
		Views:     cacheadapter.NewRedisViewCounter(redisClient),
		Logger:    logger,
	})

	handler := httpadapter.NewHandler(svc, verifier, cfg.MaxUploadBytes)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewDocumentAccessServer(svc))

	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		newEventPublisher(cfg, logger),
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxClaimTTL,
		cfg.OutboxMaxRetries,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		outbox:     outbox,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// newEventPublisher prefers Kafka when brokers are configured and falls back
// to structured log delivery for local runs.
func newEventPublisher(cfg Config, logger *slog.Logger) ports.EventPublisher {
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			domain.EventDocumentUploaded:       "documents.lifecycle",
			domain.EventDocumentDeleted:        "documents.lifecycle",
			domain.EventAccessRequestSubmitted: "documents.access-requests",
			domain.EventAccessRequestApproved:  "documents.access-requests",
			domain.EventAccessRequestDenied:    "documents.access-requests",
		})
		if err == nil {
			return publisher
		}
		logger.Warn("kafka publisher unavailable, falling back to log delivery", "error", err.Error())
	}
	return eventadapter.NewLoggingPublisher(logger)
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The gRPC port is bound here, not in NewRuntime: the worker process
	// shares the constructor and must never hold the listener.
	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.cleanupFn(shutdownCtx)
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", grpcLis.Addr().String())
		if err := r.grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}

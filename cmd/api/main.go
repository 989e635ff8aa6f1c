package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/josh-kwaku/float-ledger/internal/config"
	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/handler"
	"github.com/josh-kwaku/float-ledger/internal/ledger"
	"github.com/josh-kwaku/float-ledger/internal/logging"
	"github.com/josh-kwaku/float-ledger/internal/middleware"
	"github.com/josh-kwaku/float-ledger/internal/rabbitmq"
	"github.com/josh-kwaku/float-ledger/internal/repository"
	"github.com/josh-kwaku/float-ledger/internal/repository/memory"
	"github.com/josh-kwaku/float-ledger/internal/scheduler"
	"github.com/josh-kwaku/float-ledger/internal/server"
	"github.com/josh-kwaku/float-ledger/internal/service"
	"github.com/josh-kwaku/float-ledger/internal/service/commission"
	"github.com/josh-kwaku/float-ledger/internal/service/statement"
	"github.com/josh-kwaku/float-ledger/internal/service/transaction"
)

type replayStore interface {
	middleware.ReplayStore
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationStore interface {
	Create(ctx context.Context, event *domain.NotificationEvent) error
	GetPending(ctx context.Context, limit int) ([]domain.NotificationEvent, error)
	RecordAttempt(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error
}

type backend struct {
	store         ledger.Store
	replays       replayStore
	notifications notificationStore
	db            *sql.DB
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("float-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	if be.db != nil {
		defer be.db.Close()
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	outbox := service.NewOutbox(be.notifications)
	accounts := service.NewAccountService(be.store, cfg.TxMaxRetries)
	transactions := transaction.NewService(be.store, outbox, cfg.TxMaxRetries)
	commissions := commission.NewService(be.store, outbox, cfg.TxMaxRetries)
	statements := statement.NewService(be.store)

	var health *handler.HealthHandler
	if be.db != nil {
		health = handler.NewHealthHandler(be.db, "database")
	} else {
		health = handler.NewHealthHandler(nil, "memory")
	}

	router := server.NewRouter(server.Handlers{
		Health:       health,
		Transactions: handler.NewTransactionHandler(transactions),
		Commissions:  handler.NewCommissionHandler(commissions),
		Accounts:     handler.NewAccountHandler(accounts, statements),
	}, server.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Replays:        be.replays,
	})

	dispatcher := service.NewDispatcher(be.notifications, publisher, logger, cfg.NotifyPollInterval, cfg.NotifyMaxAttempts)
	go dispatcher.Start(ctx)

	sched := scheduler.New(be.replays, logger, cfg.IdempotencyCleanup)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "schedule", cfg.IdempotencyCleanup, "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := server.NewServer(addr, router)

	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	stop()
	<-sched.Stop().Done()
	slog.Info("server stopped")
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.New()
		if err := memory.Seed(ctx, store); err != nil {
			return nil, fmt.Errorf("openBackend: %w", err)
		}
		slog.Info("in-memory store seeded", "branch_id", memory.DemoBranchID)
		return &backend{
			store:         store,
			replays:       memory.NewReplayStore(),
			notifications: memory.NewOutbox(),
		}, nil

	default:
		db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
			MaxOpenConns:     cfg.DBMaxOpenConns,
			MaxIdleConns:     cfg.DBMaxIdleConns,
			ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
			ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		})
		if err != nil {
			return nil, fmt.Errorf("openBackend: %w", err)
		}
		store := repository.NewStore(db)
		if cfg.SeedDemo {
			if err := memory.Seed(ctx, store); err != nil {
				slog.Warn("demo seed skipped", "error", err)
			}
		}
		return &backend{
			store:         store,
			replays:       repository.NewReplayRepository(db),
			notifications: repository.NewNotificationEventRepository(db),
			db:            db,
		}, nil
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) rabbitmq.Publisher {
	fallback := &rabbitmq.Fallback{Logger: logger}
	if cfg.AMQPURL == "" {
		logger.Warn("AMQP_URL not set, notifications will be logged and dropped")
		return fallback
	}

	producer, err := rabbitmq.NewEventProducer(cfg.AMQPURL, cfg.NotifyExchange)
	if err != nil {
		logger.Warn("broker unreachable, notifications will be logged and dropped", "error", err)
		return fallback
	}
	logger.Info("publishing notifications", "exchange", cfg.NotifyExchange)
	return producer
}

// main wires the succession service: stores, services, background workers,
// and the HTTP surface. Business logic lives in the internal packages; this
// file only chooses backends from configuration and manages the lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"heritage/internal/audit"
	"heritage/internal/console"
	consolehandler "heritage/internal/console/handler"
	httpapi "heritage/internal/http"
	"heritage/internal/identity"
	identityhandler "heritage/internal/identity/handler"
	"heritage/internal/notify"
	"heritage/internal/platform/config"
	"heritage/internal/platform/httpserver"
	"heritage/internal/platform/kafka"
	"heritage/internal/platform/logger"
	"heritage/internal/platform/metrics"
	platformredis "heritage/internal/platform/redis"
	protocolservice "heritage/internal/protocol/service"
	protocolstore "heritage/internal/protocol/store"
	"heritage/internal/review"
	"heritage/internal/vault"
	"heritage/internal/verify"
	verifyhandler "heritage/internal/verify/handler"
	migrations "heritage/migrations/postgres"
	id "heritage/pkg/domain"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		records     protocolstore.RecordStore
		owners      identity.OwnerStore
		audits      audit.Store
		outbox      notify.Queue
		auditWorker *audit.Worker
	)
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migrations.Apply(ctx, poolExecer{pool}); err != nil {
			return err
		}

		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		records = protocolstore.NewPostgresStore(pool)
		owners = identity.NewPostgresStore(pool)
		outbox = notify.NewPostgresQueue(db)

		// Durable audit appends go through a bounded inbox so a slow
		// database stays off the vault's hot path.
		pgAudits := audit.NewPostgresStore(db)
		asyncAudits := audit.NewAsyncStore(pgAudits, 256)
		audits = asyncAudits
		auditWorker = audit.NewWorker(pgAudits, asyncAudits.Inbox(), audit.WithWorkerLogger(log))
	} else {
		log.Warn("HERITAGE_DATABASE_URL not set; using in-memory stores")
		records = protocolstore.NewInMemoryStore()
		owners = identity.NewInMemoryStore()
		audits = audit.NewInMemoryStore()
		outbox = notify.NewInMemoryQueue()
	}

	// Verification throttle: redis when configured.
	var throttle verify.Throttle = verify.NewInMemoryThrottle(verify.DefaultMaxFailures, verify.DefaultWindow)
	redisClient, err := platformredis.New(cfg.Database.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		throttle = verify.NewRedisThrottle(redisClient.Client, verify.DefaultMaxFailures, verify.DefaultWindow)
	}

	publisher := audit.NewPublisher(audits, audit.WithTrail(audit.NewTrail(audit.DefaultTrailCap)))
	identityService := identity.NewService(owners, identity.WithLogger(log))

	ownerID, err := ownerFromEnv(cfg, log)
	if err != nil {
		return err
	}

	registry := vault.NewRegistry(ownerID, identityService, publisher, vault.WithLogger(log))
	anchors := protocolservice.NewService(records, publisher, protocolservice.WithLogger(log))
	reviews := review.NewService(outbox, records, publisher, review.WithLogger(log))
	session := console.NewConsole(ownerID, registry, console.NewLoader(records, console.WithLoaderLogger(log)),
		anchors, reviews, identityService, console.WithLogger(log))

	signingKey := cfg.Verify.JWTSigningKey
	if signingKey == "" {
		signingKey = uuid.NewString()
		log.Warn("HERITAGE_JWT_SIGNING_KEY not set; verification sessions will not survive a restart")
	}
	tokens := verify.NewTokenService(signingKey, cfg.Verify.JWTIssuer, cfg.Verify.SessionTTL)
	verifyService := verify.NewService(records, publisher, throttle, tokens, verify.WithLogger(log))

	// Outbox worker, optionally mirroring deliveries to Kafka.
	workerOpts := []notify.WorkerOption{notify.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, kafka.WithLogger(log))
		if err != nil {
			return err
		}
		defer producer.Close()
		workerOpts = append(workerOpts, notify.WithEventPublisher(producer))
	}
	if cfg.SMTP.Host == "" {
		log.Warn("HERITAGE_SMTP_HOST not set; notice delivery will fail and retry")
	}
	worker := notify.NewWorker(outbox, notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}), workerOpts...)

	scheduler := review.NewScheduler(reviews, records, identityService, review.WithSchedulerLogger(log))

	router := httpapi.NewRouter(httpapi.Deps{
		Console:    consolehandler.New(session, ownerID, publisher, log),
		Verify:     verifyhandler.New(verifyService, log),
		Identity:   identityhandler.New(identityService, log),
		Metrics:    metrics.New(),
		AdminToken: cfg.Server.AdminToken,
		Logger:     log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return worker.Run(ctx) })
	group.Go(func() error { return scheduler.Run(ctx) })
	if auditWorker != nil {
		group.Go(func() error { return auditWorker.Run(ctx) })
	}
	group.Go(func() error {
		log.Info("heritage server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("heritage server stopped")
	return nil
}

// ownerFromEnv resolves the vault owner this single-tenant instance serves.
func ownerFromEnv(cfg config.Config, log *slog.Logger) (id.UserID, error) {
	if cfg.Owner.UserID == "" {
		ownerID := id.NewUserID()
		log.Warn("HERITAGE_OWNER_ID not set; generated an ephemeral owner",
			"user_id", ownerID.String())
		return ownerID, nil
	}
	return id.ParseUserID(cfg.Owner.UserID)
}

// poolExecer adapts pgxpool to the migrations execer.
type poolExecer struct {
	pool *pgxpool.Pool
}

func (e poolExecer) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := e.pool.Exec(ctx, sql, args...)
	return err
}

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

	"golang.org/x/sync/errgroup"

	"residora/internal/account/otp"
	accountstore "residora/internal/account/store"
	"residora/internal/billing"
	billinghandler "residora/internal/billing/handler"
	billingstore "residora/internal/billing/store"
	communitystore "residora/internal/community/store"
	"residora/internal/deletion"
	deletionhandler "residora/internal/deletion/handler"
	"residora/internal/ledger"
	ledgerhandler "residora/internal/ledger/handler"
	ledgerstore "residora/internal/ledger/store"
	"residora/internal/notification"
	"residora/internal/onboarding"
	onboardinghandler "residora/internal/onboarding/handler"
	"residora/internal/platform/config"
	"residora/internal/platform/httpserver"
	"residora/internal/platform/logger"
	"residora/internal/platform/middleware"
	"residora/internal/platform/postgres"
	platformredis "residora/internal/platform/redis"
	"residora/internal/registration"
	registrationhandler "residora/internal/registration/handler"
	registrationmetrics "residora/internal/registration/metrics"
	registrationstore "residora/internal/registration/store"
	residencestore "residora/internal/residence/store"
	"residora/internal/review"
	reviewhandler "residora/internal/review/handler"
	reviewstore "residora/internal/review/store"
	"residora/internal/storage/objects"
	"residora/internal/token"
	httptransport "residora/internal/transport/http"
	"residora/pkg/platform/audit"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages; every external backend falls
// back to an in-process implementation when unconfigured so a bare
// `go run ./cmd/server` works.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: postgres when configured, in-memory otherwise.
	var (
		accounts       accountstore.AccountStore
		residences     residencestore.ResidenceStore
		memberships    residencestore.MembershipStore
		requests       registrationstore.RequestStore
		submissions    reviewstore.SubmissionStore
		communityStore communitystore.Store
		ledgerStore    ledgerstore.Store
		mappings       billingstore.MappingStore
	)
	if cfg.Postgres.URL != "" {
		db, err := postgres.Open(cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		accounts = accountstore.NewPostgresStore(db)
		residences = residencestore.NewPostgresResidenceStore(db)
		memberships = residencestore.NewPostgresMembershipStore(db)
		requests = registrationstore.NewPostgresStore(db)
		submissions = reviewstore.NewPostgresStore(db)
		communityStore = communitystore.NewPostgresStore(db)
		ledgerStore = ledgerstore.NewPostgresStore(db)
		mappings = billingstore.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		accounts = accountstore.NewInMemoryStore()
		residences = residencestore.NewInMemoryResidenceStore()
		memberships = residencestore.NewInMemoryMembershipStore()
		requests = registrationstore.NewInMemoryStore()
		submissions = reviewstore.NewInMemoryStore()
		communityStore = communitystore.NewInMemoryStore()
		ledgerStore = ledgerstore.NewInMemoryStore()
		mappings = billingstore.NewInMemoryStore()
		log.Warn("no postgres configured, using in-memory stores")
	}

	// One-time codes: redis when configured.
	var otpStore otp.Store = otp.NewInMemoryStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		otpStore = otp.NewRedisStore(redisClient.Client)
		log.Info("using redis one-time-code store")
	}
	issuer := otp.NewIssuer(otpStore, config.OTPTTL)

	// Transactional email.
	var sender notification.Sender = &notification.LogSender{Logger: log}
	if cfg.SMTP.Host != "" {
		sender = notification.NewSMTPSender(cfg.SMTP)
		log.Info("using smtp sender", "host", cfg.SMTP.Host)
	}

	// Audit trail: services emit into a channel, the worker drains into the
	// configured sink so request handlers never block on the broker.
	auditInbox := make(chan audit.Event, 256)
	auditPublisher := audit.NewChannelPublisher(auditInbox, log)
	var auditSink audit.Publisher = audit.NewStorePublisher(audit.NewInMemoryStore())
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer kafkaPublisher.Close()
		auditSink = kafkaPublisher
		log.Info("publishing audit events to kafka", "topic", cfg.Kafka.Topic)
	}
	auditWorker := audit.NewWorker(auditSink, auditInbox, log)

	// Payment provider.
	var provider billing.Provider = &billing.LogProvider{Logger: log}
	if cfg.Billing.BaseURL != "" {
		provider = billing.NewHTTPProvider(cfg.Billing.BaseURL, cfg.Billing.APIKey)
		log.Info("using hosted payment provider", "base_url", cfg.Billing.BaseURL)
	}

	objectStore := objects.NewInMemoryStore()

	registrationService := registration.NewService(residences, accounts, memberships, requests,
		registration.WithLogger(log),
		registration.WithMetrics(registrationmetrics.New()),
		registration.WithSender(sender),
		registration.WithAuditPublisher(auditPublisher),
	)
	onboardingService := onboarding.NewService(accounts, residences, memberships, issuer,
		onboarding.WithLogger(log),
		onboarding.WithSender(sender),
		onboarding.WithAuditPublisher(auditPublisher),
	)
	reviewService := review.NewService(submissions, residences, accounts, objectStore,
		review.WithLogger(log),
		review.WithAuditPublisher(auditPublisher),
	)
	ledgerService := ledger.NewService(ledgerStore, residences, memberships,
		ledger.WithLogger(log),
	)
	billingService := billing.NewService(provider, mappings, accounts,
		billing.WithLogger(log),
		billing.WithAuditPublisher(auditPublisher),
	)
	deletionService := deletion.NewService(accounts, residences, memberships, requests,
		submissions, communityStore, ledgerStore, objectStore, billingService,
		deletion.WithLogger(log),
		deletion.WithAuditPublisher(auditPublisher),
	)

	tokenService := token.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	auth := middleware.RequireAuth(tokenService, log)
	admin := middleware.RequireAdminToken(cfg.Server.AdminToken, log)

	router := httptransport.NewRouter(
		registrationhandler.New(registrationService, log, auth),
		onboardinghandler.New(onboardingService, log, auth),
		reviewhandler.New(reviewService, log, auth, admin),
		ledgerhandler.New(ledgerService, log, auth),
		billinghandler.New(billingService, log, auth, admin),
		deletionhandler.New(deletionService, log, auth, admin),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting residora", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

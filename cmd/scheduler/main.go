package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leaptra/scheduling-core/internal/config"
	"github.com/leaptra/scheduling-core/internal/email"
	"github.com/leaptra/scheduling-core/internal/repository"
	"github.com/leaptra/scheduling-core/internal/repository/memory"
	"github.com/leaptra/scheduling-core/internal/repository/postgres"
	"github.com/leaptra/scheduling-core/internal/service/availability"
	bookingsvc "github.com/leaptra/scheduling-core/internal/service/booking"
	"github.com/leaptra/scheduling-core/internal/service/ledger"
	"github.com/leaptra/scheduling-core/internal/service/matcher"
	"github.com/leaptra/scheduling-core/pkg/event"
	"github.com/leaptra/scheduling-core/pkg/logger"
	"github.com/leaptra/scheduling-core/pkg/messaging/redis"
	"github.com/leaptra/scheduling-core/pkg/metrics"
	"github.com/leaptra/scheduling-core/pkg/worker"
)

// WorkerEnv tunes the background workers from the environment, e.g.
// SCHEDULER_OUTBOX_BATCH_SIZE.
type WorkerEnv struct {
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	SweepInterval      time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
	RetryAttempts      int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay         time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
}

type application struct {
	cfg     *config.Config
	logger  *logger.Logger
	facade  *bookingsvc.Service
	ledger  *ledger.Service
	workers []func(context.Context)
}

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	var workerEnv WorkerEnv
	if err := envconfig.Process("scheduler", &workerEnv); err != nil {
		log.Fatal(err, "failed to read worker environment")
	}

	app, err := buildApplication(cfg, workerEnv, log)
	if err != nil {
		log.Fatal(err, "failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.run(ctx)
}

func buildApplication(cfg *config.Config, workerEnv WorkerEnv, log *logger.Logger) (*application, error) {
	m := metrics.NewMetrics("leaptra", "scheduling", prometheus.DefaultRegisterer)

	var (
		lawyerRepo  repository.LawyerRepository
		slotRepo    repository.SlotRepository
		bookingRepo repository.BookingRepository
		outboxRepo  repository.OutboxRepository
	)
	switch cfg.Scheduler.Store {
	case "postgres":
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		lawyerRepo = postgres.NewLawyerRepository(db)
		slotRepo = postgres.NewSlotRepository(db)
		bookingRepo = postgres.NewBookingRepository(db)
		outboxRepo = postgres.NewOutboxRepository(db)
	default:
		store := memory.NewStore()
		lawyerRepo = memory.NewLawyerRepository(store)
		slotRepo = memory.NewSlotRepository(store)
		bookingRepo = memory.NewBookingRepository(store)
		outboxRepo = memory.NewOutboxRepository(store)
	}

	cacheTTL := time.Duration(cfg.Scheduler.AvailabilityCacheSeconds) * time.Second
	availabilitySvc := availability.NewService(slotRepo, cacheTTL, log)

	matcherSvc := matcher.NewService(availabilitySvc, matcher.Config{
		MaxCandidates: cfg.Scheduler.MaxCandidates,
	}, m, log)

	eventSvc := event.NewService(outboxRepo, log)
	ledgerSvc := ledger.NewService(slotRepo, bookingRepo, lawyerRepo, eventSvc, availabilitySvc, m, log)

	holdTTL := time.Duration(cfg.Scheduler.HoldTTLMinutes) * time.Minute
	facade := bookingsvc.NewService(matcherSvc, ledgerSvc, holdTTL, log)

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   workerEnv.RetryAttempts,
		RetryBackoff: workerEnv.RetryDelay,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		return nil, err
	}

	emailSvc, err := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}, log)
	if err != nil {
		return nil, err
	}

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     workerEnv.OutboxBatchSize,
		PollInterval:  workerEnv.OutboxPollInterval,
		RetryAttempts: workerEnv.RetryAttempts,
		RetryDelay:    workerEnv.RetryDelay,
	}, log, m)

	holdSweeper := worker.NewHoldSweeper(ledgerSvc, workerEnv.SweepInterval, log)
	notifier := worker.NewNotifier(broker, emailSvc, log)

	app := &application{
		cfg:    cfg,
		logger: log,
		facade: facade,
		ledger: ledgerSvc,
	}
	app.workers = []func(context.Context){
		outboxProcessor.Start,
		holdSweeper.Start,
		func(ctx context.Context) {
			if err := notifier.Start(ctx); err != nil {
				log.Error(err, "notifier stopped")
			}
		},
		func(ctx context.Context) {
			serveMetrics(ctx, cfg.Metrics.Addr, log)
		},
	}
	return app, nil
}

func (a *application) run(ctx context.Context) {
	a.logger.Info("scheduling core starting",
		"store", a.cfg.Scheduler.Store,
		"hold_ttl_minutes", a.cfg.Scheduler.HoldTTLMinutes,
		"max_candidates", a.cfg.Scheduler.MaxCandidates)

	done := make(chan struct{})
	for _, start := range a.workers {
		start := start
		go func() {
			start(ctx)
			done <- struct{}{}
		}()
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")

	// Give workers a moment to finish their current tick.
	deadline := time.After(10 * time.Second)
	for range a.workers {
		select {
		case <-done:
		case <-deadline:
			a.logger.Warn("shutdown deadline reached")
			return
		}
	}
	a.logger.Info("scheduling core stopped")
}

func serveMetrics(ctx context.Context, addr string, log *logger.Logger) {
	if addr == "" {
		addr = ":9090"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listener starting", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(err, "metrics listener failed")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notaentrada/internal/config"
	"notaentrada/internal/infra"
	"notaentrada/internal/numbering"
	"notaentrada/internal/repository"
	"notaentrada/internal/router"
	"notaentrada/internal/service"
	"notaentrada/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const outboxFlushInterval = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger, dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	policy, err := service.CreditPolicyByName(cfg.CreditNotePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CREDIT_NOTE_POLICY")
	}

	var counter numbering.Counter
	switch cfg.NumberingBackend {
	case "memory":
		log.Warn().Msg("numbering: in-memory counter, IDs restart with the process")
		counter = numbering.NewMemoryCounter()
	case "redis":
		counter = numbering.NewRedisCounter(rdb)
	default:
		log.Fatal().Str("backend", cfg.NumberingBackend).Msg("invalid NUMBERING_BACKEND")
	}

	// ── Composition root ─────────────────────────────────────────────────────
	noteRepo := repository.NewNoteRepository(db)
	stockRepo := repository.NewStockRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	repairRepo := repository.NewRepairRepository(db)

	queueBreaker := infra.NewBreaker(infra.QueueBreakerConfig())
	dispatcher := worker.NewDispatcher(rdb, queueBreaker)

	notes := service.NewNoteService(noteRepo, numbering.NewGenerator(counter), stockRepo)
	relay := service.NewOutboxRelay(repository.NewOutboxRepository(db), dispatcher, dispatcher)
	triage := service.NewTriageService(noteRepo, relay, policy)

	departments := service.NewDepartmentService(stockRepo, financeRepo, repairRepo)

	r := router.New(cfg, router.Deps{
		DB:           db,
		Redis:        rdb,
		QueueBreaker: queueBreaker,
		Notes:        notes,
		Triage:       triage,
		Departments:  departments,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	handlers := worker.Handlers(worker.NewFinanceWorker(financeRepo), worker.NewRepairWorker(repairRepo))
	worker.StartWorkerPool(gctx, rdb, cfg.WorkerPoolSize, handlers)

	// Redelivers triage hand-offs whose queue push failed.
	g.Go(func() error {
		relay.Run(gctx, outboxFlushInterval)
		return nil
	})

	g.Go(func() error {
		log.Info().Msgf("nota de entrada backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown on SIGINT / SIGTERM or when the server fails
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server exited")
}

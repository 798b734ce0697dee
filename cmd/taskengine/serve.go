package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tupyy/taskengine/internal/config"
	"github.com/tupyy/taskengine/internal/demo"
	"github.com/tupyy/taskengine/internal/server"
	"github.com/tupyy/taskengine/internal/store"
	"github.com/tupyy/taskengine/internal/store/migrations"
	"github.com/tupyy/taskengine/pkg/notifier"
	"github.com/tupyy/taskengine/pkg/pool"
	"github.com/tupyy/taskengine/pkg/scheduler"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	var numWorkers int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the worker pool, scheduler, and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				v.Set("pool.num_workers", numWorkers)
			}
			return runServe(v)
		},
	}

	cmd.Flags().IntVar(&numWorkers, "workers", 0, "override the pool's worker count")
	return cmd
}

func runServe(v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("serve: load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("serve: build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	sugar := logger.Sugar()

	db, err := store.NewDB(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("serve: open store: %w", err)
	}
	if err := migrations.Run(context.Background(), db); err != nil {
		db.Close()
		return fmt.Errorf("serve: run migrations: %w", err)
	}
	st := store.NewStore(db)
	defer st.Close()

	var notify *notifier.Notifier
	if cfg.Notifier.Enabled {
		notify = notifier.New(cfg.Notifier.URL, cfg.Notifier.JWTSigningKey, cfg.Notifier.Timeout,
			notifier.WithLogger(sugar))
		defer notify.Close()
	}

	onResult := func(r demo.Result, submittedAt, resolvedAt time.Time) {
		outcome := store.OutcomeExecuted
		switch {
		case r.Err == context.Canceled:
			outcome = store.OutcomeAbandoned
		case r.Err != nil:
			outcome = store.OutcomeFailed
		}

		var recErr error
		switch outcome {
		case store.OutcomeFailed:
			recErr = st.RecordFailed(context.Background(), r.Kind, submittedAt, resolvedAt, r.Err)
		case store.OutcomeAbandoned:
			recErr = st.RecordAbandoned(context.Background(), r.Kind, submittedAt, resolvedAt)
		default:
			recErr = st.RecordExecuted(context.Background(), r.Kind, submittedAt, resolvedAt)
		}
		if recErr != nil {
			sugar.Errorw("failed to record execution", "kind", r.Kind, "error", recErr)
		}

		if notify != nil {
			detail := ""
			if r.Err != nil {
				detail = r.Err.Error()
			}
			notify.Notify(notifier.Event{Kind: r.Kind, Outcome: string(outcome), Timestamp: resolvedAt, Detail: detail})
		}
	}

	builder := demo.NewBuilder(demo.WithLogger(sugar), demo.WithOnResult(onResult))

	p, err := pool.NewPool(cfg.Pool.NumWorkers, pool.WithLogger(sugar))
	if err != nil {
		return fmt.Errorf("serve: start pool: %w", err)
	}

	sched := scheduler.NewScheduler(scheduler.WithLogger(sugar), scheduler.WithTickBudget(cfg.Scheduler.TickBudget))

	handler := server.NewHandler(p, sched, builder, st, sugar)
	registerFn := func(router *gin.RouterGroup) { server.RegisterRoutes(router, handler) }
	srv := server.NewServer(cfg.Server.HTTPAddr, logger, registerFn)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			sugar.Errorw("server exited", "error", err)
		}
	case sig := <-sigCh:
		sugar.Infow("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown order matches the acceptance chain: stop accepting new work
	// at the HTTP edge first, then the scheduler (so no more delayed tasks
	// land on the pool), then the pool itself.
	if err := srv.Stop(shutdownCtx); err != nil {
		sugar.Errorw("server shutdown error", "error", err)
	}
	sched.Close()
	p.Close()

	return nil
}

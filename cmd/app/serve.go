package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ai-video-orchestrator/internal/application"
	"ai-video-orchestrator/internal/infra/api"
	"ai-video-orchestrator/internal/infra/metrics"
	red "ai-video-orchestrator/internal/infra/redis"
	"ai-video-orchestrator/internal/infra/sched"
	"ai-video-orchestrator/internal/infra/worker"
	"ai-video-orchestrator/internal/usecase"
)

const shutdownGrace = 15 * time.Second

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API and the scheduled upload dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(parent context.Context, rt *runtime) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, log := rt.cfg, rt.log

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, cfg.Generation.Provider, cfg.Upload.Host, cfg.Scheduler.Backend)

	// ---- Generation ----
	generation, err := rt.generationPoller(ctx)
	if err != nil {
		return err
	}

	// ---- Host + account ----
	host, auth, _, err := rt.hostAndAuth(ctx)
	if err != nil {
		return err
	}
	account := usecase.NewAccountContext(auth, log)
	uploader := rt.uploadPipeline(host, account)

	// ---- Scheduled queue ----
	queue, err := rt.queue(ctx)
	if err != nil {
		return err
	}
	dispatcher := sched.NewUploadDispatcher(queue, uploader, rt.media(), rt.notifier(), nil, sched.DispatcherConfig{
		Tick:         cfg.Scheduler.Tick,
		HistorySize:  cfg.Scheduler.HistorySize,
		DeleteSource: *cfg.Scheduler.DeleteSource,
	}, log)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// ---- Workers ----
	pool := worker.NewPool(cfg.HTTP.Workers, log)
	pool.Start(ctx)
	defer pool.Stop()

	orch := application.NewOrchestrator(application.OrchestratorDeps{
		Generation: generation,
		Uploader:   uploader,
		Scheduler:  dispatcher,
		Account:    account,
		Pool:       pool,
		HostName:   host.Name(),
		MaxUpload:  cfg.Upload.MaxFileBytes,
	}, log)

	// ---- HTTP ----
	secret, err := cfg.Credential("jwt_secret")
	if err != nil {
		return err
	}
	issuer, err := api.NewTokenIssuer(secret, cfg.HTTP.TokenTTL)
	if err != nil {
		return err
	}
	opts := api.Options{RequestTimeout: cfg.HTTP.RequestTimeout}
	if cfg.Redis.URL != "" {
		c, err := rt.redis(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("rate limiting disabled")
		} else {
			opts.Limiter = red.NewRateLimiter(c)
			opts.SubmitLimit = cfg.HTTP.SubmitLimit
			opts.SubmitWindow = cfg.HTTP.SubmitWindow
		}
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(orch, issuer, opts, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("provider", cfg.Generation.Provider).Str("host", host.Name()).
			Str("queue", cfg.Scheduler.Backend).Msg("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return err
		}
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}

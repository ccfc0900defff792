package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ai-video-orchestrator/internal/config"
	"ai-video-orchestrator/internal/domain/ports/adapter"
	"ai-video-orchestrator/internal/domain/ports/repository"
	authAdapters "ai-video-orchestrator/internal/infra/adapters/auth"
	genAdapters "ai-video-orchestrator/internal/infra/adapters/generation"
	"ai-video-orchestrator/internal/infra/adapters/media"
	"ai-video-orchestrator/internal/infra/adapters/notify"
	"ai-video-orchestrator/internal/infra/adapters/videohost"
	pg "ai-video-orchestrator/internal/infra/db/postgres"
	"ai-video-orchestrator/internal/infra/logging"
	"ai-video-orchestrator/internal/infra/memory"
	red "ai-video-orchestrator/internal/infra/redis"
	"ai-video-orchestrator/internal/usecase"
)

// runtime holds what every subcommand needs. close releases the backends in reverse order.
type runtime struct {
	cfg     *config.Config
	log     *zerolog.Logger
	rc      *red.Client
	closers []func()
}

func (rt *runtime) onClose(fn func()) { rt.closers = append(rt.closers, fn) }

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	dev, err := cmd.Flags().GetBool(FlagDev)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path, dev)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}
	return &runtime{cfg: cfg, log: logger}, nil
}

func (rt *runtime) provider(ctx context.Context) (adapter.GenerationProvider, error) {
	g := rt.cfg.Generation
	var (
		p   adapter.GenerationProvider
		err error
	)
	switch g.Provider {
	case "gemini":
		key, cerr := rt.cfg.Credential("gemini_key")
		if cerr != nil {
			return nil, cerr
		}
		p, err = genAdapters.NewVeoAdapter(ctx, key, g.GeminiModel, g.RefImageMaxSide)
	case "replicate":
		key, cerr := rt.cfg.Credential("replicate_key")
		if cerr != nil {
			return nil, cerr
		}
		p, err = genAdapters.NewReplicateAdapter(key, g.ReplicateURL, g.ReplicateVer, g.RefImageMaxSide)
	default:
		p = genAdapters.NewNoopProvider(rt.log)
	}
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", g.Provider, err)
	}
	rt.log.Info().
		Str("provider", p.Name()).
		Int("max_concurrent", g.MaxConcurrent).
		Str("key", logging.Redact(firstNonEmpty(g.GeminiKey, g.ReplicateKey), rt.cfg.Runtime.Dev)).
		Msg("generation provider ready")
	return genAdapters.NewLimitedProvider(p, g.MaxConcurrent), nil
}

func (rt *runtime) generationPoller(ctx context.Context) (*usecase.GenerationPoller, error) {
	p, err := rt.provider(ctx)
	if err != nil {
		return nil, err
	}
	pc := rt.cfg.Generation.Poll
	policy := usecase.PollPolicy{
		FastAttempts: pc.FastAttempts,
		FastInterval: pc.FastInterval,
		SlowInterval: pc.SlowInterval,
		MaxAttempts:  pc.MaxAttempts,
	}
	return usecase.NewGenerationPoller(p, policy, nil, rt.log), nil
}

// hostAndAuth pairs the video host with its authenticator. oauth is nil unless the host is youtube.
func (rt *runtime) hostAndAuth(ctx context.Context) (adapter.VideoHost, adapter.Authenticator, *authAdapters.OAuthAuthenticator, error) {
	switch rt.cfg.Upload.Host {
	case "youtube":
		oa, err := authAdapters.NewOAuthAuthenticator(rt.cfg.YouTube, rt.cfg, rt.log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("youtube auth: %w", err)
		}
		return videohost.NewYouTubeHost(), oa, oa, nil
	case "s3":
		h, err := videohost.NewS3Host(ctx, rt.cfg.S3)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("s3 host: %w", err)
		}
		return h, authAdapters.NewStaticAuthenticator("s3:" + rt.cfg.S3.Bucket), nil, nil
	default:
		return videohost.NewNoopHost(rt.log), authAdapters.NewStaticAuthenticator("noop"), nil, nil
	}
}

func (rt *runtime) uploadPipeline(host adapter.VideoHost, account *usecase.AccountContext) *usecase.UploadPipeline {
	u := rt.cfg.Upload
	pr := rt.cfg.Processing
	processing := usecase.NewProcessingPoller(host, usecase.PollPolicy{
		FastInterval: pr.Interval,
		SlowInterval: pr.Interval,
		MaxAttempts:  pr.MaxAttempts,
	}, nil, rt.log)
	return usecase.NewUploadPipeline(
		host,
		account,
		processing,
		usecase.SimulatedFactory(u.ProgressTick, u.ProgressStep, u.ProgressCeiling),
		nil,
		usecase.UploadConfig{MaxFileBytes: u.MaxFileBytes, ChunkMultiplier: u.ChunkMultiplier},
		rt.log,
	)
}

// queue opens the configured scheduled queue backend.
func (rt *runtime) queue(ctx context.Context) (repository.ScheduledUploadQueue, error) {
	switch rt.cfg.Scheduler.Backend {
	case "redis":
		c, err := rt.redis(ctx)
		if err != nil {
			return nil, err
		}
		return red.NewScheduledQueue(c, rt.cfg.Redis.QueueKey, rt.log), nil
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, rt.cfg.Database.URL, rt.cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		rt.onClose(pool.Close)
		repo := pg.NewScheduledUploadRepo(pool, pg.NewTxManager(pool))
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return repo, nil
	default:
		return memory.NewScheduledQueue(), nil
	}
}

// redis connects once and is shared by the queue and the rate limiter.
func (rt *runtime) redis(ctx context.Context) (*red.Client, error) {
	if rt.rc != nil {
		return rt.rc, nil
	}
	if rt.cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is not configured")
	}
	c, err := red.NewClient(ctx, &rt.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	rt.onClose(func() { _ = c.Close() })
	rt.rc = c
	return c, nil
}

func (rt *runtime) notifier() adapter.Notifier {
	tg := rt.cfg.Notify.Telegram
	if tg.Token == "" || tg.ChatID == 0 {
		return notify.NewNoopNotifier(rt.log)
	}
	n, err := notify.NewTelegramNotifier(tg.Token, tg.ChatID)
	if err != nil {
		rt.log.Warn().Err(err).Msg("telegram notifier unavailable; outcomes will only be logged")
		return notify.NewNoopNotifier(rt.log)
	}
	return n
}

func (rt *runtime) media() adapter.MediaProcessor {
	return media.NewFFmpegProcessor(rt.cfg.Media, rt.log)
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

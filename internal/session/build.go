package session

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/prasanth-t0205/quiz-compiler/internal/checkpoint"
	"github.com/prasanth-t0205/quiz-compiler/internal/client"
	"github.com/prasanth-t0205/quiz-compiler/internal/config"
	"github.com/prasanth-t0205/quiz-compiler/internal/logger"
	"github.com/prasanth-t0205/quiz-compiler/internal/reporter"
)

// Engine is the assembled session core: the controller plus the
// collaborators the host shell drives directly, the API client for the
// entry flow in particular.
type Engine struct {
	Controller  *Controller
	Client      *client.Client
	Checkpoints checkpoint.Store
	Log         zerolog.Logger

	reporter *reporter.Reporter
}

// Build assembles an engine from configuration: logger, API client, the
// configured checkpoint backend (sealed at rest when a secret is set) and
// the optional proctor reporter. env and notifier may be nil; the
// controller substitutes no-ops.
func Build(ctx context.Context, cfg *config.Config, env Environment, notifier Notifier) (*Engine, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	var codec checkpoint.Codec
	if cfg.CheckpointSecret != "" {
		var err error
		codec, err = checkpoint.Sealed(cfg.CheckpointSecret)
		if err != nil {
			return nil, fmt.Errorf("checkpoint codec: %w", err)
		}
	}

	store, err := buildStore(ctx, cfg, codec, log)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.APIBaseURL, cfg.SubmitTimeout, log)

	var rep *reporter.Reporter
	if cfg.ProctorWSURL != "" {
		rep = reporter.New(cfg.ProctorWSURL, "", log)
	}

	ctrl := New(Deps{
		Backend:     api,
		Checkpoints: store,
		Env:         env,
		Notifier:    notifier,
		Reporter:    rep,
		Config:      cfg,
		Log:         log,
	})

	return &Engine{
		Controller:  ctrl,
		Client:      api,
		Checkpoints: store,
		Log:         log,
		reporter:    rep,
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config, codec checkpoint.Codec, log zerolog.Logger) (checkpoint.Store, error) {
	switch cfg.CheckpointBackend {
	case "redis":
		rdb, err := checkpoint.DialRedis(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, fmt.Errorf("checkpoint backend: %w", err)
		}
		return checkpoint.NewRedisStore(rdb, codec, 0), nil
	case "memory":
		return checkpoint.NewMemoryStore(codec), nil
	case "", "sqlite":
		store, err := checkpoint.NewSQLiteStore(cfg.CheckpointPath, codec)
		if err != nil {
			return nil, fmt.Errorf("checkpoint backend: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("checkpoint backend: unknown backend %q", cfg.CheckpointBackend)
	}
}

// Close releases everything Build opened: controller resources, the proctor
// stream and the checkpoint store when it holds a file handle.
func (e *Engine) Close() error {
	e.Controller.Close()
	if e.reporter != nil {
		e.reporter.Stop()
	}
	if closer, ok := e.Checkpoints.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

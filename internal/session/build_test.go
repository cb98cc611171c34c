package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/prasanth-t0205/quiz-compiler/internal/checkpoint"
	"github.com/prasanth-t0205/quiz-compiler/internal/config"
	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

func buildConfig() *config.Config {
	cfg := testConfig()
	cfg.APIBaseURL = "http://127.0.0.1:1"
	cfg.LogLevel = "error"
	cfg.LogFormat = "json"
	cfg.CheckpointBackend = "memory"
	return cfg
}

func TestBuildAssemblesEngine(t *testing.T) {
	engine, err := Build(context.Background(), buildConfig(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	require.NotNil(t, engine.Controller)
	require.NotNil(t, engine.Client)
	require.NotNil(t, engine.Checkpoints)
	require.Nil(t, engine.reporter)
	require.Equal(t, model.PhaseNotStarted, engine.Controller.Phase())
}

func TestBuildSQLiteBackend(t *testing.T) {
	cfg := buildConfig()
	cfg.CheckpointBackend = "sqlite"
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "checkpoints.db")

	engine, err := Build(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, engine.Checkpoints.Save(ctx, "t1", &model.Snapshot{AttemptID: "a1", TestStarted: true, RemainingSeconds: 60}))
	snap, err := engine.Checkpoints.Load(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "a1", snap.AttemptID)

	// The sqlite store holds a file handle; Close must release it.
	require.NoError(t, engine.Close())
}

func TestBuildRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := buildConfig()
	cfg.CheckpointBackend = "redis"
	cfg.RedisURL = "redis://" + mr.Addr()

	engine, err := Build(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	ctx := context.Background()
	require.NoError(t, engine.Checkpoints.Save(ctx, "t1", &model.Snapshot{AttemptID: "a1"}))
	snap, err := engine.Checkpoints.Load(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "a1", snap.AttemptID)
}

func TestBuildRedisUnreachable(t *testing.T) {
	cfg := buildConfig()
	cfg.CheckpointBackend = "redis"
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := Build(context.Background(), cfg, nil, nil)
	require.Error(t, err)
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := buildConfig()
	cfg.CheckpointBackend = "vault"

	_, err := Build(context.Background(), cfg, nil, nil)
	require.ErrorContains(t, err, "unknown backend")
}

func TestBuildSealsCheckpointsWhenSecretSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	ctx := context.Background()

	cfg := buildConfig()
	cfg.CheckpointBackend = "sqlite"
	cfg.CheckpointPath = path
	cfg.CheckpointSecret = "secret-a"

	engine, err := Build(ctx, cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, engine.Checkpoints.Save(ctx, "t1", &model.Snapshot{AttemptID: "a1"}))
	require.NoError(t, engine.Close())

	// A different secret cannot open the same records.
	cfg.CheckpointSecret = "secret-b"
	engine, err = Build(ctx, cfg, nil, nil)
	require.NoError(t, err)
	_, err = engine.Checkpoints.Load(ctx, "t1")
	require.ErrorIs(t, err, checkpoint.ErrSealBroken)
	require.NoError(t, engine.Close())

	// The original secret still reads them.
	cfg.CheckpointSecret = "secret-a"
	engine, err = Build(ctx, cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	snap, err := engine.Checkpoints.Load(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "a1", snap.AttemptID)
}

func TestBuildWiresReporterWhenConfigured(t *testing.T) {
	cfg := buildConfig()
	cfg.ProctorWSURL = "ws://127.0.0.1:1/proctor"

	engine, err := Build(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	require.NotNil(t, engine.reporter)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/config"
	"github.com/wofa-ai/wofa/internal/log"
	"github.com/wofa-ai/wofa/internal/session"
	"github.com/wofa-ai/wofa/internal/store"
)

// app bundles the collaborators every command needs: configuration,
// logger, the persistence store and a session restored from it.
type app struct {
	cfg    *config.Config
	logger log.Logger
	store  *store.Store
	sess   *session.Session
	client *backend.Client
}

// newApp loads configuration, opens the store and restores the session
// exactly as the previous run left it.
func newApp(ctx context.Context) (*app, error) {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level := slog.LevelInfo
	if os.Getenv("WOFA_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})

	st, err := store.Open(cfg.DataDir, logger)
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return nil, fmt.Errorf("another wofa instance is already running (%s)", cfg.DataDir)
		}
		return nil, fmt.Errorf("opening data store: %w", err)
	}

	sess := session.New(
		st.GetDefault(ctx, store.KeyToken, ""),
		st.GetDefault(ctx, store.KeyActiveCourse, ""),
		st.GetDefault(ctx, store.KeyActiveLesson, ""),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		sess:   sess,
		client: backend.NewClient(cfg, logger),
	}, nil
}

// Close releases the store and its instance lock.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

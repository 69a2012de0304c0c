package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/berth-tui/berth/internal/cache"
	"github.com/berth-tui/berth/internal/config"
	"github.com/berth-tui/berth/internal/logging"
	"github.com/berth-tui/berth/internal/portainer"
	"github.com/berth-tui/berth/internal/prefs"
	"github.com/berth-tui/berth/internal/secrets"
	"github.com/berth-tui/berth/internal/store"
	"github.com/berth-tui/berth/internal/ui"
)

// Options configure the berth application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/berth/prefs.toml
	TokensPath string // empty uses default ~/.config/berth/tokens.toml
	Server     string // overrides the preferred server for this run
	PollEvery  int    // seconds; zero uses the configured value
}

// Run boots the berth TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	userPrefs := prefs.OpenFile(opts.PrefsPath, logger)

	tokens, err := secrets.Open(opts.TokensPath)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}

	cacheStore, err := cache.Open(cfg.CacheDir, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = cacheStore.Close() }()

	st, err := store.New(store.Options{
		NewClient: func(server, token string) (portainer.API, error) {
			return portainer.NewClient(server, token)
		},
		Cache:   cacheStore,
		Secrets: tokens,
		Prefs:   userPrefs,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("init data layer: %w", err)
	}

	// Show last-known data immediately; the network catches up behind it.
	st.Prime()

	server := opts.Server
	if server == "" {
		server = userPrefs.SelectedServer()
	}
	if server != "" {
		if err := st.Setup(server, "", false); err != nil {
			// Not fatal: the UI offers the connect flow for re-auth.
			logger.Warn("initial session setup failed",
				zap.String("server", server),
				zap.Error(err))
		}
	}

	interval := time.Duration(cfg.PollSeconds) * time.Second
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	StartPoller(ctx, st, interval, logger)

	return ui.Run(ctx, ui.Options{
		Store:     st,
		ThemeName: userPrefs.Theme(),
		PollTick:  interval,
	})
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"reelcache/internal/config"
	"reelcache/internal/index"
	"reelcache/internal/logging"
	"reelcache/internal/resolve"
	"reelcache/internal/services"
	"reelcache/internal/store"
	"reelcache/internal/tmdb"
)

type commandContext struct {
	configFlag   *string
	storeFlag    *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, storeFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		storeFlag:    storeFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if backend := flagValue(c.storeFlag); backend != "" {
			cfg.Store.Backend = strings.ToLower(backend)
		}
		if level := flagValue(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = services.Wrap(services.ErrValidation, "config", "flags", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

// runtime bundles the wired components a command works with.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend index.Backend
	store   *store.Store
	catalog *tmdb.Client
	engine  *resolve.Engine
}

func (r *runtime) Close() error {
	if r == nil || r.backend == nil {
		return nil
	}
	return r.backend.Close()
}

// openRuntime builds the logger, record store, catalog client, and engine
// from the loaded configuration.
func (c *commandContext) openRuntime(ctx context.Context, stderr io.Writer) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfigTo(cfg, stderr)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "logging", "init", "", err)
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "store", "open", cfg.Store.Backend, err)
	}
	st := store.New(backend, cfg.Store.IndexPrefix, store.WithLogger(logger))
	if err := st.Ensure(ctx); err != nil {
		backend.Close()
		return nil, services.Wrap(services.ErrStorage, "store", "ensure indexes", "", err)
	}

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second}),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond, cfg.TMDB.Burst),
		tmdb.WithRetry(cfg.TMDB.RetryAttempts, 500*time.Millisecond),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		backend.Close()
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "client", "", err)
	}

	engine := resolve.New(st, client, resolve.SettingsFromConfig(cfg), resolve.PolicyFromConfig(cfg),
		resolve.WithLogger(logger))

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		store:   st,
		catalog: client,
		engine:  engine,
	}, nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (index.Backend, error) {
	switch cfg.Store.Backend {
	case "memory":
		return index.OpenMemory(ctx, logger)
	case "sqlite":
		return index.OpenSQLite(ctx, cfg.Store.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// withRuntime opens the runtime for cmd, runs fn, and closes it.
func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(*runtime) error) error {
	rt, err := c.openRuntime(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func kindFromFlag(tv bool) resolve.Kind {
	if tv {
		return resolve.TV
	}
	return resolve.Movie
}

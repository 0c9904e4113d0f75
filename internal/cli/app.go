package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/file"
	loamAdapter "github.com/aretw0/canopy/pkg/adapters/loam"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/trees"
)

// ErrReadOnlySource is returned when tree editing is requested over a read-only backend.
var ErrReadOnlySource = errors.New("tree source is read-only")

// App bundles everything a command needs, built from one Config.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Engine   *canopy.Engine
	Source   ports.TreeSource
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	store  ports.TreeStore
	locker ports.DistributedLocker
	close  func() error
}

// Open wires the configured store, logger, metrics and engine.
func Open(cfg config.Config, debug bool) (*App, error) {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	logger := logging.NewFromConfig(level, cfg.Log.Format)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		close:    func() error { return nil },
	}
	app.Metrics = observability.NewMetrics(app.Registry)

	if err := app.openSource(); err != nil {
		return nil, err
	}

	hooks := app.Metrics.Hooks()
	if debug {
		hooks = observability.Chain(hooks, observability.LoggingHooks(logger))
	}

	eng, err := canopy.New("",
		canopy.WithSource(app.Source),
		canopy.WithLogger(logger),
		canopy.WithHooks(hooks),
		canopy.WithRootPolicy(cfg.RootPolicy()),
		canopy.WithMaxDepth(cfg.Engine.MaxDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = eng
	return app, nil
}

func (a *App) openSource() error {
	sc := a.Config.Store
	switch sc.Backend {
	case config.BackendFile:
		s := file.New(sc.Dir)
		a.Source, a.store = s, s
	case config.BackendMemory:
		s := memory.NewStore()
		a.Source, a.store = s, s
	case config.BackendRedis:
		s := redisAdapter.New(sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB,
			redisAdapter.WithPrefix(sc.Redis.Prefix),
			redisAdapter.WithTTL(sc.Redis.TTL),
		)
		a.Source, a.store = s, s
		a.locker = redisAdapter.NewLocker(s.Client(), strings.TrimSuffix(sc.Redis.Prefix, "tree:"))
		a.close = s.Close
	case config.BackendLoam:
		l, err := loamAdapter.Open(sc.Dir)
		if err != nil {
			return err
		}
		a.Source = l
	default:
		return fmt.Errorf("unknown store backend %q", sc.Backend)
	}
	if a.store != nil {
		mws, err := storeMiddleware(sc)
		if err != nil {
			return err
		}
		a.store = middleware.Wrap(a.store, mws...)
		a.Source = a.store
	}
	a.Logger.Debug("Tree source ready", "backend", sc.Backend)
	return nil
}

// storeMiddleware builds the at-rest protections. Redaction runs first so
// masked values never reach the encrypted payload.
func storeMiddleware(sc config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(sc.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(sc.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if sc.Encryption.Enabled() {
		active, fallback, err := sc.Encryption.Keys()
		if err != nil {
			return nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// Manager returns a tree manager over the configured store.
func (a *App) Manager() (*trees.Manager, error) {
	if a.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrReadOnlySource, a.Config.Store.Backend)
	}
	opts := []trees.Option{trees.WithLogger(a.Logger)}
	if a.locker != nil {
		opts = append(opts, trees.WithLocker(a.locker))
	}
	return trees.NewManager(a.store, opts...), nil
}

// LoadTree resolves a tree from a file path when given, else by ID from the source.
func (a *App) LoadTree(ctx context.Context, id, path string) (*domain.Tree, error) {
	if path != "" {
		fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return file.ReadFile(path, fallback)
	}
	if id == "" {
		return nil, errors.New("a tree id or --file is required")
	}
	return a.Engine.Tree(ctx, id)
}

// Close releases backend connections.
func (a *App) Close() error {
	return a.close()
}

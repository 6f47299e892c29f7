package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pluginbridge/core/config"
	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/core/outbox"
	"github.com/dmitrymomot/pluginbridge/core/response"
	"github.com/dmitrymomot/pluginbridge/core/router"
	"github.com/dmitrymomot/pluginbridge/core/server"
	"github.com/dmitrymomot/pluginbridge/integration/database/redis"
)

// App wires the correlator, the command outbox and the HTTP surface.
type App struct {
	config     Config
	configSet  bool
	router     router.Router[*Context]
	server     *server.Server
	correlator *correlation.Correlator
	outbox     *outbox.Outbox
	metrics    *Metrics
	redis      *goredis.Client
	publisher  *redis.ResultPublisher
	logger     *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

type AppOption func(*App) error

// NewApp builds an App. Without WithConfig, configuration is loaded from the
// environment.
func NewApp(opts ...AppOption) (*App, error) {
	app := &App{
		logger: logger.Nop(),
		stop:   make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if !app.configSet {
		if err := config.Load(&app.config); err != nil {
			return nil, err
		}
	}

	if app.correlator == nil {
		app.correlator = correlation.NewFromConfig(app.config.Correlation,
			correlation.WithLogger(app.logger))
	}

	if app.outbox == nil {
		app.outbox = outbox.NewFromConfig(app.config.Outbox,
			outbox.WithLogger(app.logger))
	}

	if app.config.RedisEnabled && app.redis == nil {
		client, err := redis.Connect(context.Background(), app.config.Redis)
		if err != nil {
			return nil, err
		}
		app.redis = client
	}
	if app.redis != nil {
		app.publisher = redis.NewResultPublisherFromConfig(app.redis, app.config.Redis,
			redis.WithPublisherLogger(app.logger))
	}

	if app.server == nil {
		s, err := server.NewFromConfig(app.config.Server, server.WithLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	app.metrics = NewMetrics(app.correlator, app.outbox)

	if app.router == nil {
		app.router = router.New(
			router.WithContextFactory(contextFactory(app.config.MaxBodySize)),
			router.WithErrorHandler(response.JSONErrorHandler[*Context]),
			router.WithLogger[*Context](app.logger),
		)
	}
	app.routes()

	return app, nil
}

func WithConfig(cfg Config) AppOption {
	return func(app *App) error {
		app.config = cfg
		app.configSet = true
		return nil
	}
}

func WithLogger(logger *slog.Logger) AppOption {
	return func(app *App) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

func WithRouter(router router.Router[*Context]) AppOption {
	return func(app *App) error {
		if router == nil {
			return errors.New("router cannot be nil")
		}
		app.router = router
		return nil
	}
}

func WithServer(server *server.Server) AppOption {
	return func(app *App) error {
		if server == nil {
			return errors.New("server cannot be nil")
		}
		app.server = server
		return nil
	}
}

func WithCorrelator(c *correlation.Correlator) AppOption {
	return func(app *App) error {
		if c == nil {
			return errors.New("correlator cannot be nil")
		}
		app.correlator = c
		return nil
	}
}

func WithOutbox(o *outbox.Outbox) AppOption {
	return func(app *App) error {
		if o == nil {
			return errors.New("outbox cannot be nil")
		}
		app.outbox = o
		return nil
	}
}

// WithRedisClient enables result relaying over an existing client.
func WithRedisClient(client *goredis.Client) AppOption {
	return func(app *App) error {
		if client == nil {
			return errors.New("redis client cannot be nil")
		}
		app.redis = client
		return nil
	}
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Correlator returns the correlator instance.
func (a *App) Correlator() *correlation.Correlator {
	return a.correlator
}

// Outbox returns the command outbox.
func (a *App) Outbox() *outbox.Outbox {
	return a.outbox
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. On return all waiters are released and live streams closed.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		a.closeStreams()
		return nil
	})
	g.Go(a.correlator.Run(ctx))
	if a.publisher != nil {
		unsubscribe := a.correlator.OnResult(a.publisher.Handle)
		defer unsubscribe()
		g.Go(a.publisher.Run(ctx))
	}
	g.Go(a.server.Run(ctx, a.router))

	a.logger.InfoContext(ctx, "bridge started",
		logger.Component("app"),
		slog.String("app", a.config.AppName),
		slog.String("env", a.config.Env),
		slog.Bool("redis", a.redis != nil))
	for _, rt := range a.router.Routes() {
		a.logger.DebugContext(ctx, "route registered",
			logger.Component("app"),
			slog.String("method", rt.Method),
			logger.Path(rt.Pattern))
	}

	err := g.Wait()

	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			a.logger.Error("failed to close redis client",
				logger.Component("app"),
				logger.Error(cerr))
		}
	}

	return err
}

// closeStreams ends live connections so server shutdown does not wait on them.
func (a *App) closeStreams() {
	a.stopOnce.Do(func() { close(a.stop) })
}

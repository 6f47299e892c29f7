package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/logger"
)

// Publisher is the subset of the go-redis client used for relaying results.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// PublisherOption configures a ResultPublisher.
type PublisherOption func(*ResultPublisher)

// WithChannel overrides DefaultResultsChannel.
func WithChannel(channel string) PublisherOption {
	return func(p *ResultPublisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithBufferSize sets how many results may wait for publishing.
func WithBufferSize(n int) PublisherOption {
	return func(p *ResultPublisher) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(l *slog.Logger) PublisherOption {
	return func(p *ResultPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// ResultPublisher relays completed results to a Redis pub/sub channel so
// observers outside the process see the same notifications as live clients.
//
// Handle is registered as a correlation subscriber and never blocks: results
// are buffered and published by Run. When the buffer is full the result is
// dropped and counted.
type ResultPublisher struct {
	client  Publisher
	channel string
	bufSize int
	queue   chan correlation.Result
	logger  *slog.Logger

	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// PublisherStats reports relay counters.
type PublisherStats struct {
	Published int64
	Dropped   int64
	Failed    int64
	Queued    int
}

// NewResultPublisher creates a publisher writing to client.
func NewResultPublisher(client Publisher, opts ...PublisherOption) *ResultPublisher {
	p := &ResultPublisher{
		client:  client,
		channel: DefaultResultsChannel,
		bufSize: 256,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.queue = make(chan correlation.Result, p.bufSize)
	return p
}

// NewResultPublisherFromConfig applies Config channel and buffer settings.
func NewResultPublisherFromConfig(client Publisher, cfg Config, opts ...PublisherOption) *ResultPublisher {
	configOpts := []PublisherOption{
		WithChannel(cfg.ResultsChannel),
		WithBufferSize(cfg.PublishBuffer),
	}
	return NewResultPublisher(client, append(configOpts, opts...)...)
}

// Channel returns the pub/sub channel name.
func (p *ResultPublisher) Channel() string {
	return p.channel
}

// Handle enqueues res for publishing. It satisfies correlation.Subscriber.
func (p *ResultPublisher) Handle(res correlation.Result) {
	select {
	case p.queue <- res:
	default:
		p.dropped.Add(1)
		p.logger.Warn("result publish buffer full, dropping",
			logger.Component("redis_publisher"),
			logger.CommandID(res.CommandID))
	}
}

// Run returns an errgroup-compatible loop that publishes queued results until
// ctx is cancelled. Results still buffered at cancellation are discarded.
func (p *ResultPublisher) Run(ctx context.Context) func() error {
	return func() error {
		p.logger.InfoContext(ctx, "result publisher started",
			logger.Component("redis_publisher"),
			slog.String("channel", p.channel))

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("result publisher stopped",
					logger.Component("redis_publisher"),
					logger.Count("published", int(p.published.Load())))
				return nil
			case res := <-p.queue:
				if err := p.publish(ctx, res); err != nil {
					p.failed.Add(1)
					p.logger.ErrorContext(ctx, "failed to publish result",
						logger.Component("redis_publisher"),
						logger.CommandID(res.CommandID),
						logger.Error(err))
				}
			}
		}
	}
}

func (p *ResultPublisher) publish(ctx context.Context, res correlation.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	p.published.Add(1)
	return nil
}

// Stats returns relay counters.
func (p *ResultPublisher) Stats() PublisherStats {
	return PublisherStats{
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
		Queued:    len(p.queue),
	}
}

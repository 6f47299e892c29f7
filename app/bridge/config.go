package bridge

import (
	"time"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/outbox"
	"github.com/dmitrymomot/pluginbridge/core/server"
	"github.com/dmitrymomot/pluginbridge/integration/database/redis"
)

// Config aggregates every component's configuration. Nested structs read
// their own environment variables.
type Config struct {
	Server      server.Config
	Correlation correlation.Config
	Outbox      outbox.Config
	Redis       redis.Config

	AppName  string `env:"APP_NAME" envDefault:"pluginbridge"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	LiveKeepAlive time.Duration `env:"LIVE_KEEPALIVE" envDefault:"15s"`
	LiveBuffer    int           `env:"LIVE_BUFFER" envDefault:"64"`
	MaxBodySize   int64         `env:"HTTP_MAX_BODY_SIZE" envDefault:"1048576"`
}

package redis

import "time"

// DefaultResultsChannel is the pub/sub channel completed results are relayed to.
const DefaultResultsChannel = "pluginbridge:results"

// Config holds Redis connection settings.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	ResultsChannel string `env:"REDIS_RESULTS_CHANNEL" envDefault:"pluginbridge:results"`
	PublishBuffer  int    `env:"REDIS_PUBLISH_BUFFER" envDefault:"256"`
}

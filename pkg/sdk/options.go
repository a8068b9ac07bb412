package autorovers

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis", "file" or "memory"
	addrs    []string
	password string
	fileDir  string
	prefix   string

	catalogURL   string
	catalogToken string
	fetcher      Fetcher
	cacheTTL     time.Duration

	validation   string
	fuel         string
	fetchTimeout time.Duration

	carCategories  []string
	bikeCategories []string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to persist to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to persist to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithFileStore persists state as files under dir. Several processes may
// share one directory; changes are picked up by Watch.
func WithFileStore(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "file"
		c.fileDir = dir
	})
}

// WithMemoryStore keeps state in process memory. Nothing survives Close.
func WithMemoryStore() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithKeyPrefix namespaces every stored key. Default: "autorovers:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefix = prefix
	})
}

// WithCatalog points comparisons at the catalog API at baseURL.
// token is sent as a bearer token when non-empty.
func WithCatalog(baseURL, token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogURL = baseURL
		c.catalogToken = token
	})
}

// WithCatalogCache keeps fetched catalog records in the store for ttl,
// shared by every client on the same store.
func WithCatalogCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithFetcher supplies vehicle records directly instead of a catalog API.
// Takes precedence over WithCatalog.
func WithFetcher(f Fetcher) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetcher = f
	})
}

// WithPolicy selects the normalization policy: validation is "strict" or
// "lenient", fuel is "default-petrol" or "reject". Defaults: strict, default-petrol.
func WithPolicy(validation, fuel string) Option {
	return optionFunc(func(c *clientConfig) {
		c.validation = validation
		c.fuel = fuel
	})
}

// WithFetchTimeout bounds each vehicle fetch during a comparison.
func WithFetchTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetchTimeout = d
	})
}

// WithCategories replaces the built-in category lists used to classify
// vehicles that carry no explicit vehicle type.
func WithCategories(car, bike []string) Option {
	return optionFunc(func(c *clientConfig) {
		c.carCategories = car
		c.bikeCategories = bike
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

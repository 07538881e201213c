package search

import (
	"log/slog"
	"time"
)

const (
	defaultQueryCacheSize = 256
	defaultEmbedTimeout   = 10 * time.Second
)

type options struct {
	fusion       FusionPolicy
	logger       *slog.Logger
	cacheSize    int
	embedTimeout time.Duration
	monitor      SearchMonitor
}

// Option configures an Engine or a Service.
type Option func(*options) error

// WithFusion sets the default hybrid fusion policy.
func WithFusion(policy FusionPolicy) Option {
	return func(o *options) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		o.fusion = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithQueryCacheSize sets how many query embeddings a Service keeps.
// Zero disables the cache.
func WithQueryCacheSize(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return ErrInvalidCacheSize
		}
		o.cacheSize = n
		return nil
	}
}

// WithEmbedTimeout bounds the time a Service spends embedding one query.
func WithEmbedTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d > 0 {
			o.embedTimeout = d
		}
		return nil
	}
}

// WithMonitor installs hooks that observe every Service query.
func WithMonitor(monitor SearchMonitor) Option {
	return func(o *options) error {
		if monitor != nil {
			o.monitor = monitor
		}
		return nil
	}
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		fusion:       DefaultFusion(),
		logger:       slog.Default(),
		cacheSize:    defaultQueryCacheSize,
		embedTimeout: defaultEmbedTimeout,
		monitor:      noopMonitor{},
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

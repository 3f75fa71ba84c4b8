package bindgraph

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/junioryono/bindgraph/internal/keys"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings of a Processor. The zero value is usable.
type Config struct {
	// StrictWildcardKeys keeps the variance of wildcard type arguments in
	// keys instead of collapsing them to their bound.
	StrictWildcardKeys bool `yaml:"strictWildcardKeys"`

	// FullBindingGraphValidation also validates every module reachable from
	// a processed component on its own.
	FullBindingGraphValidation bool `yaml:"fullBindingGraphValidation"`

	// LogLevel is used when no logger is supplied. Empty disables logging.
	LogLevel string `yaml:"logLevel"`
}

// LoadConfig decodes a YAML config from r and validates it. Unknown fields
// are rejected.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		return nil
	}
	if _, err := c.level(); err != nil {
		return fmt.Errorf("%w: log level %q: %v", ErrInvalidConfig, c.LogLevel, err)
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

// Option configures a Processor.
type Option interface {
	apply(*options)
}

// options holds processor configuration.
type options struct {
	config    Config
	logger    *slog.Logger
	secondary keys.SecondaryLookup
}

// optionFunc adapts a function to Option.
type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithConfig replaces the whole config. Options applied after it still
// override individual settings.
func WithConfig(cfg Config) Option {
	return optionFunc(func(o *options) {
		o.config = cfg
	})
}

// WithLogger sets the structured logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = logger
	})
}

// WithSecondaryLookup sets the fallback used to recover the qualifiers of
// fields whose markers were not visible to the introspection layer.
func WithSecondaryLookup(lookup SecondaryLookup) Option {
	return optionFunc(func(o *options) {
		o.secondary = lookup
	})
}

// WithStrictWildcardKeys keeps wildcard variance in keys.
func WithStrictWildcardKeys(strict bool) Option {
	return optionFunc(func(o *options) {
		o.config.StrictWildcardKeys = strict
	})
}

// WithFullBindingGraphValidation validates every module of a processed
// component on its own as well.
func WithFullBindingGraphValidation(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.config.FullBindingGraphValidation = enabled
	})
}

func newOptions(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = o.defaultLogger()
	}
	return o, nil
}

func (o *options) defaultLogger() *slog.Logger {
	if o.config.LogLevel == "" {
		return slog.New(slog.DiscardHandler)
	}
	level, _ := o.config.level()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// Pool configures the worker pool section.
type Pool struct {
	NumWorkers int `mapstructure:"num_workers" default:"4"`
	QueueHint  int `mapstructure:"queue_hint" default:"256"`
}

// Scheduler configures the deadline-loop section.
type Scheduler struct {
	// TickBudget bounds how long the scheduler's catch-up loop may run
	// (firing already-due items back to back) before re-checking whether
	// it has been asked to stop — a guard against a pathological backlog
	// of past-due tasks starving shutdown.
	TickBudget time.Duration `mapstructure:"tick_budget" default:"1s"`
}

// Server configures the HTTP surface.
type Server struct {
	Mode     string `mapstructure:"mode" default:"dev"`
	HTTPAddr string `mapstructure:"http_addr" default:":8080"`
}

// Store configures the execution ledger.
type Store struct {
	Path string `mapstructure:"path" default:"taskengine.db"`
}

// Notifier configures the optional webhook sink.
type Notifier struct {
	Enabled       bool          `mapstructure:"enabled" default:"false"`
	URL           string        `mapstructure:"url"`
	JWTSigningKey string        `mapstructure:"jwt_signing_key"`
	Timeout       time.Duration `mapstructure:"timeout" default:"5s"`
}

// Configuration is the top-level, sectioned process configuration.
type Configuration struct {
	Pool      Pool      `mapstructure:"pool"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	Server    Server    `mapstructure:"server"`
	Store     Store     `mapstructure:"store"`
	Notifier  Notifier  `mapstructure:"notifier"`

	LogLevel  string `mapstructure:"log_level" default:"info"`
	LogFormat string `mapstructure:"log_format" default:"console"`
}

// ConfigurationOption mutates a Configuration being built. Hand-written in
// the shape optgen-generated With* functions take elsewhere in this stack.
type ConfigurationOption func(*Configuration)

// WithPool overrides the Pool section.
func WithPool(p Pool) ConfigurationOption {
	return func(c *Configuration) { c.Pool = p }
}

// WithScheduler overrides the Scheduler section.
func WithScheduler(s Scheduler) ConfigurationOption {
	return func(c *Configuration) { c.Scheduler = s }
}

// WithServer overrides the Server section.
func WithServer(s Server) ConfigurationOption {
	return func(c *Configuration) { c.Server = s }
}

// WithStore overrides the Store section.
func WithStore(s Store) ConfigurationOption {
	return func(c *Configuration) { c.Store = s }
}

// WithNotifier overrides the Notifier section.
func WithNotifier(n Notifier) ConfigurationOption {
	return func(c *Configuration) { c.Notifier = n }
}

// WithLogLevel overrides LogLevel.
func WithLogLevel(level string) ConfigurationOption {
	return func(c *Configuration) { c.LogLevel = level }
}

// NewWithDefaults builds a Configuration with struct-tag defaults applied,
// then opts layered on top.
func NewWithDefaults(opts ...ConfigurationOption) (*Configuration, error) {
	c := &Configuration{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config: set defaults: %w", err)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Load builds a Configuration from struct-tag defaults, then overlays
// values bound into v (populated by cmd/taskengine from flags and
// TASKENGINE_* environment variables).
func Load(v *viper.Viper) (*Configuration, error) {
	c, err := NewWithDefaults()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return c, nil
	}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return c, nil
}

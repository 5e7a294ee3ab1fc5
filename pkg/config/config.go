package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the host-controlled tunables. Zero-value Config is
// not usable directly — build one with Load or New with explicit Options.
type Config struct {
	MaxRetries         int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	Multiplier         float64
	WebhookTimeout     time.Duration
	QueueCapacity      int
	WorkerCount        int
	SSEBufferEvents    int
	SSEKeepaliveInterval time.Duration
	CancelOnDisconnect bool
	AgentID            string
}

func Defaults() Config {
	return Config{
		MaxRetries:           5,
		BaseDelay:            time.Second,
		MaxDelay:             60 * time.Second,
		Multiplier:           2.0,
		WebhookTimeout:       30 * time.Second,
		QueueCapacity:        1000,
		WorkerCount:          4,
		SSEBufferEvents:      100,
		SSEKeepaliveInterval: 15 * time.Second,
		CancelOnDisconnect:   false,
	}
}

type Option func(*Config)

func WithMaxRetries(n int) Option           { return func(c *Config) { c.MaxRetries = n } }
func WithBaseDelay(d time.Duration) Option  { return func(c *Config) { c.BaseDelay = d } }
func WithMaxDelay(d time.Duration) Option   { return func(c *Config) { c.MaxDelay = d } }
func WithMultiplier(m float64) Option       { return func(c *Config) { c.Multiplier = m } }
func WithWebhookTimeout(d time.Duration) Option {
	return func(c *Config) { c.WebhookTimeout = d }
}
func WithQueueCapacity(n int) Option          { return func(c *Config) { c.QueueCapacity = n } }
func WithWorkerCount(n int) Option            { return func(c *Config) { c.WorkerCount = n } }
func WithSSEBufferEvents(n int) Option        { return func(c *Config) { c.SSEBufferEvents = n } }
func WithCancelOnDisconnect(b bool) Option    { return func(c *Config) { c.CancelOnDisconnect = b } }
func WithAgentID(id string) Option            { return func(c *Config) { c.AgentID = id } }

func New(opts ...Option) Config {
	c := Defaults()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Load reads the engine's tunables from viper under the "a2a.engine.*" key
// prefix, falling back to Defaults() for anything unset.
func Load(v *viper.Viper, agentKey string) Config {
	c := Defaults()

	key := func(suffix string) string {
		return fmt.Sprintf("a2a.engine.%s", suffix)
	}

	if v.IsSet(key("maxRetries")) {
		c.MaxRetries = v.GetInt(key("maxRetries"))
	}
	if v.IsSet(key("baseDelay")) {
		c.BaseDelay = v.GetDuration(key("baseDelay"))
	}
	if v.IsSet(key("maxDelay")) {
		c.MaxDelay = v.GetDuration(key("maxDelay"))
	}
	if v.IsSet(key("multiplier")) {
		c.Multiplier = v.GetFloat64(key("multiplier"))
	}
	if v.IsSet(key("webhookTimeout")) {
		c.WebhookTimeout = v.GetDuration(key("webhookTimeout"))
	}
	if v.IsSet(key("queueCapacity")) {
		c.QueueCapacity = v.GetInt(key("queueCapacity"))
	}
	if v.IsSet(key("workerCount")) {
		c.WorkerCount = v.GetInt(key("workerCount"))
	}
	if v.IsSet(key("sseBufferEvents")) {
		c.SSEBufferEvents = v.GetInt(key("sseBufferEvents"))
	}
	if v.IsSet(key("sseKeepaliveInterval")) {
		c.SSEKeepaliveInterval = v.GetDuration(key("sseKeepaliveInterval"))
	}
	if v.IsSet(key("cancelOnDisconnect")) {
		c.CancelOnDisconnect = v.GetBool(key("cancelOnDisconnect"))
	}

	c.AgentID = v.GetString(fmt.Sprintf("agent.%s.id", agentKey))

	return c
}

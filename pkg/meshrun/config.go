package meshrun

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPermitBatchSize is B from the flow-control scheme: permits
	// are granted 2*B at a time and replenished in batches of B.
	DefaultPermitBatchSize = 3

	// DefaultCommandLoadFactor is sent with every command subscription.
	DefaultCommandLoadFactor = 100

	// DefaultConnectPollInterval is how often the bootstrapper retries
	// a failed dial+identify attempt.
	DefaultConnectPollInterval = time.Second

	// DefaultResponseQueueCapacity bounds the internal channel each
	// provider worker uses to hand finished responses to its outbound
	// loop.
	DefaultResponseQueueCapacity = 10
)

// Config holds the settings a connection bootstrapper and its worker
// loops need. Zero-value fields are replaced by their default at
// NewConfig.
type Config struct {
	Host string
	Port int

	// ClientID identifies this process to the broker. One UUID per
	// process is adequate; leave empty to have NewConfig generate one.
	ClientID string

	// ComponentLabel names this client, e.g. "order-service". Rendered
	// to the broker as "<label> client <label>".
	ComponentLabel string

	PermitBatchSize       int64
	CommandLoadFactor     int32
	ConnectPollInterval   time.Duration
	ResponseQueueCapacity int
}

// NewConfig fills in every zero-valued field of cfg with its default
// and returns the result. It never mutates cfg.
func NewConfig(cfg Config) Config {
	out := cfg
	if out.ClientID == "" {
		out.ClientID = uuid.NewString()
	}
	if out.PermitBatchSize == 0 {
		out.PermitBatchSize = DefaultPermitBatchSize
	}
	if out.CommandLoadFactor == 0 {
		out.CommandLoadFactor = DefaultCommandLoadFactor
	}
	if out.ConnectPollInterval == 0 {
		out.ConnectPollInterval = DefaultConnectPollInterval
	}
	if out.ResponseQueueCapacity == 0 {
		out.ResponseQueueCapacity = DefaultResponseQueueCapacity
	}
	return out
}

// ComponentName renders the identity string carried on every
// identification and subscription call.
func (c Config) ComponentName() string {
	return c.ComponentLabel + " client " + c.ComponentLabel
}

package pollers

import (
	"context"
	"time"
)

// Poller is a background job that runs on a fixed interval
type Poller interface {
	// Name identifies the poller in logs and the manager
	Name() string

	// Start begins the polling loop in a goroutine
	Start(ctx context.Context) error

	// Stop cancels the loop and waits for the current run to finish
	Stop() error

	IsRunning() bool

	GetInterval() time.Duration
	SetInterval(interval time.Duration)
}

// PollerConfig holds configuration for a poller
type PollerConfig struct {
	Name       string
	Interval   time.Duration
	Enabled    bool
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DefaultConfig returns a default poller configuration
func DefaultConfig(name string, interval time.Duration) PollerConfig {
	return PollerConfig{
		Name:       name,
		Interval:   interval,
		Enabled:    interval > 0,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		Timeout:    5 * time.Minute,
	}
}

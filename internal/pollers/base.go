package pollers

import (
	"context"
	"sync"
	"time"

	"github.com/rmitchellscott/bayerlab/internal/logging"
)

// BasePoller runs pollFunc once at start and then on every tick
type BasePoller struct {
	config   PollerConfig
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	pollFunc func(ctx context.Context) error
}

// NewBasePoller creates a new base poller instance
func NewBasePoller(config PollerConfig, pollFunc func(ctx context.Context) error) *BasePoller {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &BasePoller{
		config:   config,
		pollFunc: pollFunc,
	}
}

// Name returns the name of the poller
func (p *BasePoller) Name() string {
	return p.config.Name
}

// Start begins the polling loop
func (p *BasePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	if !p.config.Enabled || p.config.Interval <= 0 {
		logging.InfoWithComponent(logging.ComponentPoller, "Poller disabled, skipping start", "poller", p.config.Name)
		return nil
	}

	logging.InfoWithComponent(logging.ComponentPoller, "Starting poller", "poller", p.config.Name, "interval", p.config.Interval)

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	p.wg.Add(1)
	go p.pollLoop(p.ctx, p.config.Interval)

	return nil
}

// Stop gracefully stops the poller
func (p *BasePoller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}

	p.cancel()
	p.wg.Wait()
	p.running = false

	logging.InfoWithComponent(logging.ComponentPoller, "Poller stopped", "poller", p.config.Name)
	return nil
}

// IsRunning returns true if the poller is currently running
func (p *BasePoller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// GetInterval returns the polling interval
func (p *BasePoller) GetInterval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Interval
}

// SetInterval updates the polling interval. It takes effect on the next Start.
func (p *BasePoller) SetInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config.Interval = interval
	logging.DebugWithComponent(logging.ComponentPoller, "Updated poller interval", "poller", p.config.Name, "interval", interval)
}

// RunOnce executes a single poll with retries, outside the loop
func (p *BasePoller) RunOnce(ctx context.Context) error {
	return p.executeWithRetry(ctx)
}

func (p *BasePoller) pollLoop(ctx context.Context, interval time.Duration) {
	defer p.wg.Done()

	p.executeWithRetry(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.executeWithRetry(ctx)
		}
	}
}

// executeWithRetry returns the last error once all attempts are spent
func (p *BasePoller) executeWithRetry(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		runCtx := ctx
		cancel := func() {}
		if p.config.Timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		}
		err = p.pollFunc(runCtx)
		cancel()

		if err == nil {
			return nil
		}

		logging.WarnWithComponent(logging.ComponentPoller, "Poll attempt failed",
			"poller", p.config.Name, "attempt", attempt+1, "max_attempts", p.config.MaxRetries, "error", err)

		if attempt < p.config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.config.RetryDelay):
			}
		}
	}

	logging.ErrorWithComponent(logging.ComponentPoller, "Poller gave up", "poller", p.config.Name, "attempts", p.config.MaxRetries, "error", err)
	return err
}

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/attachkit/component"
	"github.com/kbukum/attachkit/logger"
	"github.com/kbukum/attachkit/resilience"
)

// OpenFunc creates a backend.
type OpenFunc func(ctx context.Context) (Storage, error)

// healthCheckKey is checked with Exists to verify the backend answers.
const healthCheckKey = ".attachkit-health"

// Component opens a storage backend on Start and reports its health.
type Component struct {
	name    string
	details string
	open    OpenFunc
	retry   resilience.RetryConfig
	log     *logger.Logger

	mu      sync.RWMutex
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a storage component. name identifies the backend in
// logs and health output, e.g. "storage-s3"; details is shown at startup.
func NewComponent(name, details string, open OpenFunc, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	return &Component{
		name:    name,
		details: details,
		open:    open,
		retry:   resilience.DefaultRetryConfig(),
		log:     log.WithComponent(name),
	}
}

// WithRetry sets how often Start tries to open the backend.
func (c *Component) WithRetry(cfg resilience.RetryConfig) *Component {
	c.retry = cfg
	return c
}

// Storage returns the opened backend, or nil if not started.
func (c *Component) Storage() Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage
}

func (c *Component) Name() string { return c.name }

func (c *Component) Start(ctx context.Context) error {
	retry := c.retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.Warn("Storage open failed, retrying", logger.MergeWithError(map[string]interface{}{
			"attempt": attempt,
			"backoff": backoff.String(),
		}, err))
	}
	s, err := resilience.Retry(ctx, retry, func() (Storage, error) { return c.open(ctx) })
	if err != nil {
		return fmt.Errorf("%s start: %w", c.name, err)
	}
	c.mu.Lock()
	c.storage = s
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	c.storage = nil
	c.mu.Unlock()
	return nil
}

func (c *Component) Health(ctx context.Context) component.Health {
	s := c.Storage()
	if s == nil {
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if _, err := s.Exists(ctx, healthCheckKey); err != nil {
		c.log.Warn("Storage health check failed", logger.ErrorFields("health", err))
		return component.Health{Name: c.name, Status: component.StatusDegraded, Message: err.Error()}
	}
	return component.Health{Name: c.name, Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{Name: c.name, Type: "storage", Details: c.details}
}

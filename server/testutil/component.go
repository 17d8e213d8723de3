package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/attachkit/component"
	"github.com/kbukum/attachkit/logger"
	"github.com/kbukum/attachkit/server"
	"github.com/kbukum/attachkit/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Component is a test server backed by httptest.Server with the standard
// middleware stack applied.
type Component struct {
	srv     *server.Server
	ts      *httptest.Server
	log     *logger.Logger
	started bool
	mu      sync.RWMutex
}

var _ testutil.TestComponent = (*Component)(nil)

// NewComponent creates a new test server component that logs nowhere.
func NewComponent() *Component {
	return NewComponentWithLogger(logger.Nop())
}

// NewComponentWithLogger creates a new test server component logging to log.
func NewComponentWithLogger(log *logger.Logger) *Component {
	return &Component{srv: newServer(log), log: log}
}

func newServer(log *logger.Logger) *server.Server {
	cfg := server.Config{Host: "127.0.0.1", Enabled: true}
	cfg.ApplyDefaults()
	srv := server.New(cfg, log)
	srv.ApplyMiddleware()
	return srv
}

// GinEngine returns the Gin engine for registering routes.
func (c *Component) GinEngine() *gin.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.srv.GinEngine()
}

// Server returns the underlying *server.Server.
func (c *Component) Server() *server.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.srv
}

// BaseURL returns the test server's base URL, or "" if not started.
func (c *Component) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return ""
	}
	return c.ts.URL
}

// Client returns an HTTP client for the test server.
func (c *Component) Client() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return http.DefaultClient
	}
	return c.ts.Client()
}

// --- component.Component ---

func (c *Component) Name() string { return "server-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}
	c.ts = httptest.NewServer(c.srv.Handler())
	c.started = true
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.ts.Close()
	c.ts = nil
	c.started = false
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// --- testutil.TestComponent ---

// Reset replaces the server with a fresh engine without routes.
func (c *Component) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return fmt.Errorf("component not started")
	}
	c.ts.Close()
	c.srv = newServer(c.log)
	c.ts = httptest.NewServer(c.srv.Handler())
	return nil
}

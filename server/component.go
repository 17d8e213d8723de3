package server

import (
	"context"

	"github.com/kbukum/attachkit/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server to implement component.Component.
type Component struct {
	server *Server
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (c *Component) Server() *Server { return c.server }

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

func (c *Component) Health(_ context.Context) component.Health {
	c.server.mu.Lock()
	started := c.server.listener != nil
	c.server.mu.Unlock()
	if !started {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns the listen address for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr(),
		Port:    c.server.config.Port,
	}
}

package testutil

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/attachkit/component"
	"github.com/kbukum/attachkit/testutil"
)

// Component is a test database backed by a private in-memory SQLite
// database on a single connection.
type Component struct {
	db      *gorm.DB
	models  []interface{}
	started bool
	mu      sync.RWMutex
}

var _ testutil.TestComponent = (*Component)(nil)

// NewComponent creates a new test database component.
func NewComponent() *Component {
	return &Component{}
}

// WithModels registers models to auto-migrate on Start.
func (c *Component) WithModels(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB returns the underlying *gorm.DB, or nil if not started.
func (c *Component) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database-test" }

// Start opens the database and migrates the registered models.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)

	if len(c.models) > 0 {
		if err := db.WithContext(ctx).AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("auto-migrate failed: %w", err)
		}
	}
	c.db = db
	c.started = true
	return nil
}

// Stop closes the database.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.started = false
	return sqlDB.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started || c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "database not started"}
	}
	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset deletes every row from every table, keeping the schema.
func (c *Component) Reset(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started || c.db == nil {
		return fmt.Errorf("component not started")
	}
	tables, err := GetTableNames(c.db.WithContext(ctx))
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := TruncateTable(c.db.WithContext(ctx), table); err != nil {
			return err
		}
	}
	return nil
}

package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/attachkit/component"
	"github.com/kbukum/attachkit/database/migration"
	"github.com/kbukum/attachkit/logger"
)

// DriverFunc builds a dialector from a DSN.
type DriverFunc func(dsn string) gorm.Dialector

// Component wraps DB and implements component.Component. With a ReadDSN it
// holds a second pool for reads.
type Component struct {
	db     *DB
	read   *DB
	cfg    Config
	log    *logger.Logger
	driver DriverFunc
	models []interface{}

	migrations     fs.FS
	migrationsPath string
	migrateDriver  migration.DriverFunc
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a database component using the SQLite driver.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{
		cfg:           cfg,
		log:           log.WithComponent("database"),
		driver:        sqlite.Open,
		migrateDriver: migration.SQLite,
	}
}

// WithDriver replaces the SQLite driver. Migrations need a matching
// WithMigrationDriver.
func (c *Component) WithDriver(driver DriverFunc) *Component {
	c.driver = driver
	return c
}

// WithMigrationDriver replaces the golang-migrate SQLite driver.
func (c *Component) WithMigrationDriver(driver migration.DriverFunc) *Component {
	c.migrateDriver = driver
	return c
}

// WithAutoMigrate registers models for auto-migration on Start.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithMigrations registers versioned SQL migrations under path in fsys to
// apply on Start. Config.MigrationsDir overrides them.
func (c *Component) WithMigrations(fsys fs.FS, path string) *Component {
	c.migrations, c.migrationsPath = fsys, path
	return c
}

// DB returns the primary *DB, or nil if not started.
func (c *Component) DB() *DB {
	return c.db
}

// ReadDB returns the read pool, or the primary when no ReadDSN is set.
func (c *Component) ReadDB() *DB {
	if c.read != nil {
		return c.read
	}
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects, applies migrations and auto-migration, then opens the
// read pool.
func (c *Component) Start(ctx context.Context) error {
	db, err := NewWithContext(ctx, c.driver(c.cfg.DSN), c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if err := c.migrate(); err != nil {
		return err
	}
	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := c.db.AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}

	if c.cfg.HasReadReplica() {
		rcfg := c.cfg
		rcfg.DSN, rcfg.ReadDSN = c.cfg.ReadDSN, ""
		read, err := NewWithContext(ctx, c.driver(rcfg.DSN), rcfg, c.log.WithComponent("database-read"))
		if err != nil {
			return fmt.Errorf("database read pool: %w", err)
		}
		c.read = read
	}
	return nil
}

func (c *Component) migrate() error {
	fsys, path := c.migrations, c.migrationsPath
	if c.cfg.MigrationsDir != "" {
		fsys, path = os.DirFS(c.cfg.MigrationsDir), "."
	}
	if fsys == nil {
		return nil
	}
	if err := migration.MigrateUp(c.db.GormDB, fsys, path, c.migrateDriver); err != nil {
		return fmt.Errorf("database migrate: %w", err)
	}
	version, dirty, err := migration.MigrateVersion(c.db.GormDB, fsys, path, c.migrateDriver)
	if err != nil {
		return fmt.Errorf("database migration version: %w", err)
	}
	c.log.Info("Database schema migrated", logger.Fields("version", version, "dirty", dirty))
	return nil
}

// Stop closes both pools.
func (c *Component) Stop(_ context.Context) error {
	var err error
	if c.read != nil {
		err = c.read.Close()
	}
	if c.db != nil {
		if cerr := c.db.Close(); cerr != nil {
			err = cerr
		}
	}
	return err
}

// Health pings the database. A failing read pool degrades the component.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "database not initialized"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	if c.read != nil {
		if err := c.read.PingContext(ctx); err != nil {
			return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: fmt.Sprintf("read pool ping failed: %v", err)}
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("pool=%d/%d", c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.HasReadReplica() {
		details += " read-pool=on"
	}
	if c.cfg.MigrationsDir != "" || c.migrations != nil {
		details += " migrations=on"
	}
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{Name: "Database", Type: "database", Details: details}
}

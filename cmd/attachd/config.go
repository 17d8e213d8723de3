package main

import (
	"fmt"

	"github.com/kbukum/attachkit/config"
	"github.com/kbukum/attachkit/database"
	"github.com/kbukum/attachkit/filehandler"
	"github.com/kbukum/attachkit/observability"
	"github.com/kbukum/attachkit/server"
	"github.com/kbukum/attachkit/storage/local"
	"github.com/kbukum/attachkit/storage/s3"
)

// Config is the attachd configuration. Every key can be overridden from the
// environment, e.g. FILES_SAVE_FILE_MODE=s3 or STORAGE_S3_BUCKET=uploads.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Database database.Config    `yaml:"database" mapstructure:"database"`
	Server   server.Config      `yaml:"server" mapstructure:"server"`
	Files    filehandler.Config `yaml:"files" mapstructure:"files"`
	Storage  StorageConfig      `yaml:"storage" mapstructure:"storage"`

	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// StorageConfig configures the object storage backends. S3 is registered
// only when a bucket is set.
type StorageConfig struct {
	Local local.Config `yaml:"local" mapstructure:"local"`
	S3    s3.Config    `yaml:"s3" mapstructure:"s3"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	// Attachment metadata always lives in the database.
	c.Database.Enabled = true
	c.Database.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Files.ApplyDefaults()
	c.Storage.Local.ApplyDefaults()
	c.Storage.S3.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Files.Validate(); err != nil {
		return fmt.Errorf("files: %w", err)
	}
	if err := c.Storage.Local.Validate(); err != nil {
		return err
	}
	if c.Storage.S3.Enabled() {
		if err := c.Storage.S3.Validate(); err != nil {
			return err
		}
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

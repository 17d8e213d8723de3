package s3

import (
	"errors"
	"fmt"
)

// DefaultRegion is the default AWS region.
const DefaultRegion = "us-east-1"

// Config holds S3-specific storage configuration.
type Config struct {
	// Bucket is the S3 bucket name. An empty bucket disables the backend.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the AWS region.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// Prefix is prepended to every object key, e.g. "attachments/".
	Prefix string `mapstructure:"prefix" json:"prefix"`

	AccessKey string `mapstructure:"access_key" json:"-"`
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	// Custom endpoints always use path style.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// Enabled reports whether a bucket is configured.
func (c *Config) Enabled() bool { return c.Bucket != "" }

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks that the S3 configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("s3: bucket is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("s3: region is required"))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New("s3: access_key and secret_key must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("s3: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

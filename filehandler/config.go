package filehandler

import (
	"strings"

	"github.com/kbukum/attachkit/util"
	"github.com/kbukum/attachkit/validation"
)

// DefaultMaxFileSize applies when MaxFileSize is empty or unparseable.
const DefaultMaxFileSize = 10 << 20

// Config holds file handling configuration.
type Config struct {
	// SaveFileMode names the default handler. Matching is case-insensitive.
	SaveFileMode string `yaml:"save_file_mode" mapstructure:"save_file_mode" validate:"omitempty,max=64"`

	// MaxFileSize is the upload limit with units, e.g. "10MiB" or "500 kB".
	MaxFileSize string `yaml:"max_file_size" mapstructure:"max_file_size" validate:"omitempty,max=32"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	c.SaveFileMode = strings.TrimSpace(c.SaveFileMode)
	c.MaxFileSize = strings.TrimSpace(c.MaxFileSize)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// MaxBytes returns the upload limit in bytes.
func (c Config) MaxBytes() int64 {
	return util.ParseSize(c.MaxFileSize, DefaultMaxFileSize)
}

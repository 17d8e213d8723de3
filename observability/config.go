package observability

import (
	"fmt"
	"time"
)

// Config is the observability section of a service configuration.
type Config struct {
	// Enabled installs the OTLP exporters on startup.
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint string `mapstructure:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure"`

	// SampleRate is the trace sampling ratio between 0 and 1.
	SampleRate float64 `mapstructure:"sample_rate"`

	// MetricInterval is how often metrics are exported, e.g. "15s".
	MetricInterval string `mapstructure:"metric_interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == "" {
		c.MetricInterval = "15s"
	}
}

// Validate checks the sampling ratio and export interval.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	if d, err := time.ParseDuration(c.MetricInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid metric_interval %q", c.MetricInterval)
	}
	return nil
}

// TracerConfig derives the tracer settings for a service.
func (c *Config) TracerConfig(serviceName, serviceVersion, environment string) TracerConfig {
	return TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		SampleRate:     c.SampleRate,
	}
}

// MeterConfig derives the meter settings for a service.
func (c *Config) MeterConfig(serviceName, serviceVersion, environment string) MeterConfig {
	interval, _ := time.ParseDuration(c.MetricInterval)
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		Interval:       interval,
	}
}

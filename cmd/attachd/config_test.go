package main

import (
	"strings"
	"testing"

	"github.com/kbukum/attachkit/config"
	"github.com/kbukum/attachkit/storage/s3"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.Name != serviceName || cfg.Storage.Local.BasePath == "" || cfg.Server.Port != 8080 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Storage.S3.Enabled() {
		t.Error("s3 should be disabled without a bucket")
	}
}

func TestConfigValidateS3(t *testing.T) {
	cfg := Config{ServiceConfig: config.ServiceConfig{Name: "attachd"}}
	cfg.Storage.S3.Bucket = "uploads"
	cfg.Storage.S3.AccessKey = "only-half"
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for access key without secret")
	}
}

func TestConfigValidateObservability(t *testing.T) {
	cfg := Config{ServiceConfig: config.ServiceConfig{Name: "attachd"}}
	cfg.Observability.Enabled = true
	cfg.Observability.SampleRate = 2
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "observability") {
		t.Errorf("Validate() = %v, want observability error", err)
	}

	cfg.Observability.SampleRate = 0.5
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if cfg.Observability.Endpoint != "localhost:4318" {
		t.Errorf("endpoint default = %q", cfg.Observability.Endpoint)
	}
}

func TestSaveMode(t *testing.T) {
	tests := map[string]string{
		"storage-local": "local",
		"storage-s3":    "s3",
		"storage-":      "storage-",
		"archive":       "archive",
	}
	for in, want := range tests {
		if got := saveMode(in); got != want {
			t.Errorf("saveMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestS3DetailsMasksKey(t *testing.T) {
	got := s3Details(s3.Config{Bucket: "uploads", Endpoint: "http://minio:9000", AccessKey: "AKIAEXAMPLEKEY"})
	if strings.Contains(got, "AKIAEXAMPLEKEY") {
		t.Errorf("details leak the access key: %q", got)
	}
	if !strings.HasPrefix(got, "bucket=uploads endpoint=http://minio:9000 access_key=AKIA") {
		t.Errorf("details = %q", got)
	}
}

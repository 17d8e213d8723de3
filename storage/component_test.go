package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/attachkit/component"
	"github.com/kbukum/attachkit/resilience"
	"github.com/kbukum/attachkit/storage"
	"github.com/kbukum/attachkit/storage/testutil"
)

func TestComponentLifecycle(t *testing.T) {
	mem := testutil.NewComponent()
	if err := mem.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	c := storage.NewComponent("storage-mem", "in memory", func(context.Context) (storage.Storage, error) {
		return mem, nil
	}, nil)

	ctx := context.Background()
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Storage() == nil {
		t.Fatal("Storage() nil after start")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %s", h.Status)
	}
	if d := c.Describe(); d.Details != "in memory" || d.Type != "storage" {
		t.Errorf("Describe = %+v", d)
	}
	if err := c.Stop(ctx); err != nil || c.Storage() != nil {
		t.Errorf("Stop = %v, storage = %v", err, c.Storage())
	}
}

func TestComponentStartError(t *testing.T) {
	attempts := 0
	c := storage.NewComponent("storage-bad", "", func(context.Context) (storage.Storage, error) {
		attempts++
		return nil, errors.New("no credentials")
	}, nil).WithRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond})
	if err := c.Start(context.Background()); err == nil {
		t.Error("expected start error")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if c.Storage() != nil {
		t.Error("Storage() should stay nil after a failed start")
	}
}

func TestComponentStartRetriesOpen(t *testing.T) {
	mem := testutil.NewComponent()
	if err := mem.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	attempts := 0
	c := storage.NewComponent("storage-flaky", "", func(context.Context) (storage.Storage, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("endpoint not ready")
		}
		return mem, nil
	}, nil).WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if attempts != 2 || c.Storage() == nil {
		t.Errorf("attempts = %d, storage = %v", attempts, c.Storage())
	}
}

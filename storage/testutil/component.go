package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/kbukum/attachkit/component"
	"github.com/kbukum/attachkit/storage"
	"github.com/kbukum/attachkit/testutil"
)

// Component is a test storage backend kept in a map. It counts calls and
// can be told to fail uploads or deletes.
type Component struct {
	files   map[string][]byte
	started bool
	mu      sync.RWMutex

	uploadErr error
	deleteErr error

	uploads   int
	downloads int
	deletes   int
}

var (
	_ testutil.TestComponent = (*Component)(nil)
	_ storage.Storage        = (*Component)(nil)
)

// NewComponent creates a new in-memory storage test component.
func NewComponent() *Component {
	return &Component{}
}

// --- component.Component ---

func (c *Component) Name() string { return "storage-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("component already started")
	}
	c.files = make(map[string][]byte)
	c.started = true
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = nil
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

// Reset drops all objects, injected failures and counters.
func (c *Component) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[string][]byte)
	c.uploadErr, c.deleteErr = nil, nil
	c.uploads, c.downloads, c.deletes = 0, 0, 0
	return nil
}

// --- failure injection and inspection ---

// FailUploads makes every Upload return err until cleared with nil.
func (c *Component) FailUploads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadErr = err
}

// FailDeletes makes every Delete return err until cleared with nil.
func (c *Component) FailDeletes(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteErr = err
}

// Calls returns how often Upload, Download and Delete were called.
func (c *Component) Calls() (uploads, downloads, deletes int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uploads, c.downloads, c.deletes
}

// Keys returns the stored object paths, sorted.
func (c *Component) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.files))
	for k := range c.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- storage.Storage ---

func (c *Component) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploads++
	if c.uploadErr != nil {
		return c.uploadErr
	}
	if !c.started {
		return fmt.Errorf("storage-test: not started")
	}
	c.files[path] = data
	return nil
}

func (c *Component) Download(_ context.Context, path string) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloads++
	data, ok := c.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

func (c *Component) Delete(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.files, path)
	return nil
}

func (c *Component) Exists(_ context.Context, path string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[path]
	return ok, nil
}

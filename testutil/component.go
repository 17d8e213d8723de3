package testutil

import (
	"context"

	"github.com/kbukum/attachkit/component"
)

// TestComponent is a component with an in-memory backing store that can be
// emptied between test cases.
type TestComponent interface {
	component.Component

	// Reset clears all stored state but keeps the component running.
	Reset(ctx context.Context) error
}

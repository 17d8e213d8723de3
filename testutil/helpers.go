package testutil

import (
	"context"
	"testing"
)

// THelper ties test components to a testing.T.
type THelper struct {
	t   *testing.T
	ctx context.Context
}

// T wraps t. Components set up through it stop when the test ends.
//
//	db := dbtest.NewComponent().WithModels(attachment.Models()...)
//	testutil.T(t).Setup(db)
func T(t *testing.T) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// Setup starts c and registers its Stop with t.Cleanup. It fails the test
// if c does not start.
func (h *THelper) Setup(c TestComponent) {
	h.t.Helper()
	if err := c.Start(h.ctx); err != nil {
		h.t.Fatalf("testutil: start %s: %v", c.Name(), err)
	}
	h.t.Cleanup(func() {
		if err := c.Stop(h.ctx); err != nil {
			h.t.Errorf("testutil: stop %s: %v", c.Name(), err)
		}
	})
}

// Reset clears c and fails the test on error.
func (h *THelper) Reset(c TestComponent) {
	h.t.Helper()
	if err := c.Reset(h.ctx); err != nil {
		h.t.Fatalf("testutil: reset %s: %v", c.Name(), err)
	}
}

package datacontext

import (
	"fmt"

	"gorm.io/gorm"
)

// Mode selects the connection pool a DataContext runs on.
type Mode string

const (
	// ModeWrite uses the primary pool.
	ModeWrite Mode = "write"
	// ModeRead uses the read pool, which may be a replica or a read-only
	// connection.
	ModeRead Mode = "read"
)

// ModeFactory opens a DataContext on the pool for mode.
type ModeFactory func(mode Mode) (DataContext, error)

// NewModeFactory returns a ModeFactory over a primary and a read pool. A
// nil read pool sends reads to write.
func NewModeFactory(write, read *gorm.DB) ModeFactory {
	if read == nil {
		read = write
	}
	writes, reads := NewFactory(write), NewFactory(read)
	return func(mode Mode) (DataContext, error) {
		switch mode {
		case ModeWrite:
			return writes()
		case ModeRead:
			return reads()
		default:
			return nil, fmt.Errorf("datacontext: unknown mode %q", mode)
		}
	}
}

// For binds f to mode.
func (f ModeFactory) For(mode Mode) Factory {
	return func() (DataContext, error) { return f(mode) }
}

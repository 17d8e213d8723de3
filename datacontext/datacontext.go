package datacontext

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// ErrClosed is returned by operations on a closed DataContext.
var ErrClosed = errors.New("datacontext: closed")

// DataContext is a unit of work over the attachment database.
type DataContext interface {
	// Session returns a query handle bound to ctx.
	Session(ctx context.Context) *gorm.DB
	// Add queues an insert.
	Add(entity any)
	// Update queues a full-row save.
	Update(entity any)
	// Remove queues a delete by primary key.
	Remove(entity any)
	// SaveChanges writes queued changes in one transaction and returns the
	// number of rows affected. Nothing is written when the queue is empty.
	// The queue is cleared whether or not the transaction commits.
	SaveChanges(ctx context.Context) (int, error)
	// Close discards queued changes. Further use fails with ErrClosed.
	Close() error
}

// Factory opens a new DataContext.
type Factory func() (DataContext, error)

// NewFactory returns a Factory producing contexts over db.
func NewFactory(db *gorm.DB) Factory {
	return func() (DataContext, error) {
		if db == nil {
			return nil, errors.New("datacontext: nil database")
		}
		return New(db), nil
	}
}

type opKind int

const (
	opAdd opKind = iota
	opUpdate
	opRemove
)

func (k opKind) String() string {
	switch k {
	case opAdd:
		return "add"
	case opUpdate:
		return "update"
	default:
		return "remove"
	}
}

type pendingOp struct {
	kind   opKind
	entity any
}

// GormContext is the GORM-backed DataContext.
type GormContext struct {
	db      *gorm.DB
	pending []pendingOp
	closed  bool
	mu      sync.Mutex
}

var _ DataContext = (*GormContext)(nil)

// New creates a DataContext over db.
func New(db *gorm.DB) *GormContext {
	return &GormContext{db: db}
}

func (c *GormContext) Session(ctx context.Context) *gorm.DB {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	s := c.db.WithContext(ctx)
	if closed {
		_ = s.AddError(ErrClosed)
	}
	return s
}

func (c *GormContext) Add(entity any)    { c.queue(opAdd, entity) }
func (c *GormContext) Update(entity any) { c.queue(opUpdate, entity) }
func (c *GormContext) Remove(entity any) { c.queue(opRemove, entity) }

func (c *GormContext) queue(kind opKind, entity any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || entity == nil {
		return
	}
	c.pending = append(c.pending, pendingOp{kind: kind, entity: entity})
}

// Pending returns the number of queued changes.
func (c *GormContext) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *GormContext) SaveChanges(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	if len(c.pending) == 0 {
		return 0, nil
	}

	ops := c.pending
	c.pending = nil

	affected := 0
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			var res *gorm.DB
			switch op.kind {
			case opAdd:
				res = tx.Create(op.entity)
			case opUpdate:
				res = tx.Save(op.entity)
			case opRemove:
				res = tx.Delete(op.entity)
			}
			if res.Error != nil {
				return fmt.Errorf("%s %T: %w", op.kind, op.entity, res.Error)
			}
			affected += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (c *GormContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.closed = true
	return nil
}

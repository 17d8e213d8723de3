package filehandler

import (
	"context"
	"errors"
	"io"

	"github.com/kbukum/attachkit/attachment"
	"github.com/kbukum/attachkit/datacontext"
)

// ErrDataMissing is returned (wrapped) by GetFileData when the record
// exists but its bytes do not.
var ErrDataMissing = errors.New("filehandler: stored data missing")

// Handler saves, fetches and deletes the bytes belonging to an attachment.
// Handlers never write the attachment row itself.
type Handler interface {
	// Save stores data and fills Path, Length and SaveMode on file.
	Save(ctx context.Context, file *attachment.FileAttachment, data io.Reader) error
	// GetFileData returns the stored bytes of file.
	GetFileData(ctx context.Context, file *attachment.FileAttachment) ([]byte, error)
	// DeleteFile removes the stored bytes of file. Missing bytes are not an error.
	DeleteFile(ctx context.Context, file *attachment.FileAttachment) error
}

// Constructor creates a handler for a single call.
type Constructor func(cfg Config, dc datacontext.DataContext) Handler

// Registration binds a save-mode name to a constructor. An empty Name is
// replaced by FileHandlerN, N counting unnamed registrations from 1.
type Registration struct {
	Name string
	New  Constructor
}

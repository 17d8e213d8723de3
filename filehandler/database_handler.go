package filehandler

import (
	"context"
	"fmt"
	"io"

	"github.com/kbukum/attachkit/attachment"
	"github.com/kbukum/attachkit/datacontext"
)

// DatabaseSaveMode is the save mode of bytes held in the file_blobs table.
const DatabaseSaveMode = "database"

// DatabaseHandler keeps attachment bytes in the file_blobs table. Save
// queues the blob on the data-context so it commits together with the
// attachment row.
type DatabaseHandler struct {
	dc datacontext.DataContext
}

var _ Handler = (*DatabaseHandler)(nil)

// NewDatabaseHandler is the Constructor of the built-in handler.
func NewDatabaseHandler(_ Config, dc datacontext.DataContext) Handler {
	return &DatabaseHandler{dc: dc}
}

func (h *DatabaseHandler) Save(ctx context.Context, file *attachment.FileAttachment, data io.Reader) error {
	if h.dc == nil {
		return datacontext.ErrClosed
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.dc.Add(&attachment.FileBlob{ID: file.ID, Data: b})
	file.Length = int64(len(b))
	file.Path = ""
	file.SaveMode = DatabaseSaveMode
	return nil
}

func (h *DatabaseHandler) GetFileData(ctx context.Context, file *attachment.FileAttachment) ([]byte, error) {
	if h.dc == nil {
		return nil, datacontext.ErrClosed
	}
	blob, err := datacontext.Find[attachment.FileBlob](ctx, h.dc, file.ID)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, fmt.Errorf("%w: blob %s", ErrDataMissing, file.ID)
	}
	return blob.Data, nil
}

func (h *DatabaseHandler) DeleteFile(ctx context.Context, file *attachment.FileAttachment) error {
	if h.dc == nil {
		return datacontext.ErrClosed
	}
	h.dc.Remove(&attachment.FileBlob{ID: file.ID})
	_, err := h.dc.SaveChanges(ctx)
	return err
}

package filehandler

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/kbukum/attachkit/attachment"
	"github.com/kbukum/attachkit/datacontext"
	"github.com/kbukum/attachkit/storage"
)

// SubDirFunc returns the storage key for a new attachment.
type SubDirFunc func(file *attachment.FileAttachment) string

// DateSubDir lays keys out as yyyy/mm/dd/<id><ext> by upload date.
func DateSubDir(file *attachment.FileAttachment) string {
	t := file.UploadTime.UTC()
	return path.Join(
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
		file.ID.String()+file.FileExt,
	)
}

// ObjectHandler keeps attachment bytes in an object storage backend.
type ObjectHandler struct {
	mode    string
	store   storage.Storage
	subDirs SubDirFunc
}

var _ Handler = (*ObjectHandler)(nil)

// NewObjectHandler creates a handler over store for save mode mode. A nil
// subDirs selects DateSubDir.
func NewObjectHandler(mode string, store storage.Storage, subDirs SubDirFunc) *ObjectHandler {
	if subDirs == nil {
		subDirs = DateSubDir
	}
	return &ObjectHandler{mode: mode, store: store, subDirs: subDirs}
}

// NewObjectConstructor returns a Constructor producing ObjectHandlers over
// store. The data-context is not used.
func NewObjectConstructor(mode string, store storage.Storage, subDirs SubDirFunc) Constructor {
	return func(Config, datacontext.DataContext) Handler {
		return NewObjectHandler(mode, store, subDirs)
	}
}

func (h *ObjectHandler) Save(ctx context.Context, file *attachment.FileAttachment, data io.Reader) error {
	key := h.subDirs(file)
	counter := &countingReader{r: data}
	if err := h.store.Upload(ctx, key, counter); err != nil {
		return err
	}
	file.Path = key
	file.Length = counter.n
	file.SaveMode = h.mode
	return nil
}

func (h *ObjectHandler) GetFileData(ctx context.Context, file *attachment.FileAttachment) ([]byte, error) {
	if file.Path == "" {
		return nil, fmt.Errorf("%w: no path recorded for %s", ErrDataMissing, file.ID)
	}
	b, err := storage.ReadAll(ctx, h.store, file.Path)
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %v", ErrDataMissing, err)
	}
	return b, err
}

func (h *ObjectHandler) DeleteFile(ctx context.Context, file *attachment.FileAttachment) error {
	if file.Path == "" {
		return nil
	}
	return h.store.Delete(ctx, file.Path)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

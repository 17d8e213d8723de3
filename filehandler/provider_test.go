package filehandler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/attachkit/attachment"
	dbtest "github.com/kbukum/attachkit/database/testutil"
	"github.com/kbukum/attachkit/database/query"
	"github.com/kbukum/attachkit/datacontext"
	apperrors "github.com/kbukum/attachkit/errors"
	storetest "github.com/kbukum/attachkit/storage/testutil"
	"github.com/kbukum/attachkit/testutil"
)

// countingContext counts SaveChanges calls on the wrapped data-context.
type countingContext struct {
	datacontext.DataContext
	saves atomic.Int32
}

func (c *countingContext) SaveChanges(ctx context.Context) (int, error) {
	c.saves.Add(1)
	return c.DataContext.SaveChanges(ctx)
}

// countingHandler wraps a handler and counts fetches and deletes.
type countingHandler struct {
	Handler
	fetches *atomic.Int32
	deletes *atomic.Int32
}

func (h *countingHandler) GetFileData(ctx context.Context, f *attachment.FileAttachment) ([]byte, error) {
	h.fetches.Add(1)
	return h.Handler.GetFileData(ctx, f)
}

func (h *countingHandler) DeleteFile(ctx context.Context, f *attachment.FileAttachment) error {
	h.deletes.Add(1)
	return h.Handler.DeleteFile(ctx, f)
}

type fixture struct {
	db       *dbtest.Component
	store    *storetest.Component
	provider *Provider
	fetches  atomic.Int32
	deletes  atomic.Int32
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		db:    dbtest.NewComponent().WithModels(attachment.Models()...),
		store: storetest.NewComponent(),
	}
	testutil.T(t).Setup(f.db)
	testutil.T(t).Setup(f.store)

	count := func(ctor Constructor) Constructor {
		return func(cfg Config, dc datacontext.DataContext) Handler {
			return &countingHandler{Handler: ctor(cfg, dc), fetches: &f.fetches, deletes: &f.deletes}
		}
	}
	reg, err := NewRegistry(cfg,
		Registration{Name: DatabaseSaveMode, New: count(NewDatabaseHandler)},
		Registration{Name: "local", New: count(NewObjectConstructor("local", f.store, nil))},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	f.provider = NewProvider(reg, datacontext.NewFactory(f.db.DB()), nil)
	f.provider.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) upload(t *testing.T, name, mode, body string) *attachment.FileAttachment {
	t.Helper()
	file, err := f.provider.Upload(context.Background(), UploadRequest{
		FileName: name,
		Data:     strings.NewReader(body),
		SaveMode: mode,
	}, nil)
	if err != nil {
		t.Fatalf("Upload(%s): %v", name, err)
	}
	return file
}

func (f *fixture) countingContext(t *testing.T) *countingContext {
	t.Helper()
	dc := &countingContext{DataContext: datacontext.New(f.db.DB())}
	t.Cleanup(func() { _ = dc.Close() })
	return dc
}

func TestUploadAndGet(t *testing.T) {
	for _, mode := range []string{"database", "local"} {
		t.Run(mode, func(t *testing.T) {
			f := newFixture(t, Config{})
			ctx := context.Background()

			file := f.upload(t, "../Report Q1.PDF", mode, "hello")
			if file.SaveMode != mode {
				t.Errorf("SaveMode = %q, want %q", file.SaveMode, mode)
			}
			if file.FileName != "Report Q1.PDF" || file.FileExt != ".pdf" {
				t.Errorf("name/ext = %q/%q", file.FileName, file.FileExt)
			}
			if file.Length != 5 {
				t.Errorf("Length = %d, want 5", file.Length)
			}

			got, err := f.provider.GetFile(ctx, file.ID.String(), true, nil)
			if err != nil {
				t.Fatalf("GetFile: %v", err)
			}
			if got == nil || string(got.Data) != "hello" {
				t.Fatalf("GetFile data = %v", got)
			}
		})
	}
}

func TestUploadLocalKeyLayout(t *testing.T) {
	f := newFixture(t, Config{SaveFileMode: "local"})
	file := f.upload(t, "a.txt", "", "x")

	want := "2024/03/09/" + file.ID.String() + ".txt"
	if file.Path != want {
		t.Errorf("Path = %q, want %q", file.Path, want)
	}
	if keys := f.store.Keys(); len(keys) != 1 || keys[0] != want {
		t.Errorf("stored keys = %v", keys)
	}
}

func TestUploadUnknownModeUsesDatabase(t *testing.T) {
	f := newFixture(t, Config{SaveFileMode: "local"})
	file := f.upload(t, "a.txt", "ftp", "x")
	if file.SaveMode != DatabaseSaveMode {
		t.Errorf("SaveMode = %q, want database", file.SaveMode)
	}
	dbtest.AssertRowCount(t, f.db.DB(), "file_blobs", 1)
}

func TestUploadTooLarge(t *testing.T) {
	tests := []struct {
		name string
		req  UploadRequest
	}{
		{"declared size", UploadRequest{FileName: "a.bin", Data: strings.NewReader("0123456789"), Size: 10}},
		{"streamed size", UploadRequest{FileName: "a.bin", Data: strings.NewReader("0123456789"), SaveMode: "local"}},
		{"streamed into database", UploadRequest{FileName: "a.bin", Data: strings.NewReader("0123456789"), SaveMode: "database"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, Config{MaxFileSize: "8B"})
			_, err := f.provider.Upload(context.Background(), tc.req, nil)
			if !apperrors.HasCode(err, apperrors.ErrCodeFileTooLarge) {
				t.Fatalf("error = %v, want FILE_TOO_LARGE", err)
			}
			dbtest.AssertRowCount(t, f.db.DB(), "file_attachments", 0)
			dbtest.AssertRowCount(t, f.db.DB(), "file_blobs", 0)
			if keys := f.store.Keys(); len(keys) != 0 {
				t.Errorf("stored keys = %v, want none", keys)
			}
		})
	}
}

func TestUploadMissingData(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.provider.Upload(context.Background(), UploadRequest{FileName: "a"}, nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeMissingField) {
		t.Errorf("error = %v, want MISSING_FIELD", err)
	}
}

func TestUploadStorageFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.store.FailUploads(errors.New("disk full"))

	_, err := f.provider.Upload(context.Background(), UploadRequest{
		FileName: "a.txt", Data: strings.NewReader("x"), SaveMode: "local",
	}, nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeStorageError) {
		t.Fatalf("error = %v, want STORAGE_ERROR", err)
	}
	dbtest.AssertRowCount(t, f.db.DB(), "file_attachments", 0)
}

func TestUploadCommitFailureRemovesBytes(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.db.DB().Migrator().DropTable(&attachment.FileAttachment{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := f.provider.Upload(context.Background(), UploadRequest{
		FileName: "a.txt", Data: strings.NewReader("x"), SaveMode: "local",
	}, nil)
	if err == nil {
		t.Fatal("expected commit error")
	}
	if keys := f.store.Keys(); len(keys) != 0 {
		t.Errorf("stored keys = %v, want none after failed commit", keys)
	}
	if f.deletes.Load() != 1 {
		t.Errorf("handler deletes = %d, want 1", f.deletes.Load())
	}
}

func TestGetFileAbsent(t *testing.T) {
	f := newFixture(t, Config{})
	for _, id := range []string{uuid.NewString(), "not-a-uuid", "", uuid.Nil.String()} {
		got, err := f.provider.GetFile(context.Background(), id, true, nil)
		if err != nil || got != nil {
			t.Errorf("GetFile(%q) = (%v, %v), want (nil, nil)", id, got, err)
		}
	}
	if f.fetches.Load() != 0 {
		t.Errorf("fetches = %d, want 0 for absent records", f.fetches.Load())
	}
}

func TestGetFileWithDataFlag(t *testing.T) {
	f := newFixture(t, Config{})
	file := f.upload(t, "a.txt", "local", "payload")
	ctx := context.Background()

	got, err := f.provider.GetFile(ctx, file.ID.String(), false, nil)
	if err != nil || got == nil {
		t.Fatalf("GetFile(false) = (%v, %v)", got, err)
	}
	if got.Data != nil || f.fetches.Load() != 0 {
		t.Errorf("withData=false fetched bytes: data=%q fetches=%d", got.Data, f.fetches.Load())
	}

	for i := 1; i <= 3; i++ {
		if _, err := f.provider.GetFile(ctx, file.ID.String(), true, nil); err != nil {
			t.Fatalf("GetFile(true): %v", err)
		}
		if f.fetches.Load() != int32(i) {
			t.Errorf("fetches = %d, want %d", f.fetches.Load(), i)
		}
	}
}

func TestGetFileMissingBytes(t *testing.T) {
	f := newFixture(t, Config{})
	file := f.upload(t, "a.txt", "local", "payload")
	testutil.T(t).Reset(f.store)

	_, err := f.provider.GetFile(context.Background(), file.ID.String(), true, nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestGetFileNameAndModel(t *testing.T) {
	f := newFixture(t, Config{})
	file := f.upload(t, "notes.md", "database", "# hi")
	ctx := context.Background()

	name, ok, err := f.provider.GetFileName(ctx, file.ID.String(), nil)
	if err != nil || !ok || name != "notes.md" {
		t.Errorf("GetFileName = (%q, %v, %v)", name, ok, err)
	}
	if _, ok, err := f.provider.GetFileName(ctx, uuid.NewString(), nil); ok || err != nil {
		t.Errorf("GetFileName(absent) = (%v, %v), want (false, nil)", ok, err)
	}

	model, err := f.provider.GetFileModel(ctx, file.ID.String(), nil)
	if err != nil || model == nil {
		t.Fatalf("GetFileModel = (%v, %v)", model, err)
	}
	if model.Length != 4 || model.SaveMode != DatabaseSaveMode || model.Data != nil {
		t.Errorf("GetFileModel = %+v", model)
	}
	if f.fetches.Load() != 0 {
		t.Errorf("GetFileModel fetched bytes")
	}
	if m, err := f.provider.GetFileModel(ctx, "bogus", nil); m != nil || err != nil {
		t.Errorf("GetFileModel(bogus) = (%v, %v)", m, err)
	}
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	f := newFixture(t, Config{})
	f.upload(t, "keep.txt", "local", "x")
	dc := f.countingContext(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		if err := f.provider.DeleteFile(context.Background(), id, dc); err != nil {
			t.Errorf("DeleteFile(%q): %v", id, err)
		}
	}
	if dc.saves.Load() != 0 {
		t.Errorf("SaveChanges calls = %d, want 0", dc.saves.Load())
	}
	if f.deletes.Load() != 0 {
		t.Errorf("handler deletes = %d, want 0", f.deletes.Load())
	}
	dbtest.AssertRowCount(t, f.db.DB(), "file_attachments", 1)
}

func TestDeleteExisting(t *testing.T) {
	for _, mode := range []string{"database", "local"} {
		t.Run(mode, func(t *testing.T) {
			f := newFixture(t, Config{})
			file := f.upload(t, "a.txt", mode, "bytes")
			ctx := context.Background()
			dc := f.countingContext(t)

			if err := f.provider.DeleteFile(ctx, file.ID.String(), dc); err != nil {
				t.Fatalf("DeleteFile: %v", err)
			}
			if f.deletes.Load() != 1 {
				t.Errorf("handler deletes = %d, want 1", f.deletes.Load())
			}
			if dc.saves.Load() == 0 {
				t.Error("expected the removal to be committed")
			}

			got, err := f.provider.GetFile(ctx, file.ID.String(), false, nil)
			if err != nil || got != nil {
				t.Errorf("GetFile after delete = (%v, %v), want absent", got, err)
			}
			dbtest.AssertRowCount(t, f.db.DB(), "file_blobs", 0)
			if keys := f.store.Keys(); len(keys) != 0 {
				t.Errorf("stored keys = %v", keys)
			}
		})
	}
}

func TestDeleteOrphanedBlob(t *testing.T) {
	f := newFixture(t, Config{})
	file := f.upload(t, "a.txt", "local", "bytes")
	f.store.FailDeletes(errors.New("permission denied"))

	err := f.provider.DeleteFile(context.Background(), file.ID.String(), nil)
	if !IsOrphanedBlob(err) {
		t.Fatalf("error = %v, want orphaned blob", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if appErr.Details["path"] != file.Path || appErr.Details["save_mode"] != "local" {
		t.Errorf("details = %v", appErr.Details)
	}

	dbtest.AssertRowCount(t, f.db.DB(), "file_attachments", 0)
	if keys := f.store.Keys(); len(keys) != 1 {
		t.Errorf("stored keys = %v, want the orphan to remain", keys)
	}
}

func TestListFiles(t *testing.T) {
	f := newFixture(t, Config{})
	f.upload(t, "alpha.txt", "local", "1")
	f.upload(t, "beta.pdf", "database", "22")
	f.upload(t, "gamma.txt", "database", "333")

	params := query.DefaultParams()
	params.AddCondition("save_mode", query.OpEq, "database")
	res, err := f.provider.ListFiles(context.Background(), params, nil)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if res.Pagination.Total != 2 || len(res.Data) != 2 {
		t.Errorf("total = %d, rows = %d, want 2", res.Pagination.Total, len(res.Data))
	}
	for _, row := range res.Data {
		if row.Data != nil {
			t.Error("listing must not load payloads")
		}
	}
	if res.Facets["save_mode"]["local"] != 1 {
		t.Errorf("facets = %v", res.Facets)
	}
}

func TestProviderOwnsContextOnlyWhenNil(t *testing.T) {
	f := newFixture(t, Config{})
	file := f.upload(t, "a.txt", "database", "x")

	dc := datacontext.New(f.db.DB())
	if _, err := f.provider.GetFile(context.Background(), file.ID.String(), true, dc); err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if _, err := datacontext.Find[attachment.FileAttachment](context.Background(), dc, file.ID); err != nil {
		t.Errorf("caller's data-context was closed by the provider: %v", err)
	}
	_ = dc.Close()
}

func TestProviderFactoryFailure(t *testing.T) {
	reg, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	p := NewProvider(reg, func() (datacontext.DataContext, error) { return nil, errors.New("no db") }, nil)

	_, err = p.GetFile(context.Background(), uuid.NewString(), false, nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeServiceUnavailable) {
		t.Errorf("error = %v, want SERVICE_UNAVAILABLE", err)
	}
}

func TestDatabaseHandlerMissingBlob(t *testing.T) {
	db := dbtest.NewComponent().WithModels(attachment.Models()...)
	testutil.T(t).Setup(db)
	dc := datacontext.New(db.DB())
	defer dc.Close()

	h := NewDatabaseHandler(Config{}, dc)
	_, err := h.GetFileData(context.Background(), attachment.New("x", time.Now()))
	if !errors.Is(err, ErrDataMissing) {
		t.Errorf("error = %v, want ErrDataMissing", err)
	}
}

func TestObjectHandlerSave(t *testing.T) {
	store := storetest.NewComponent()
	testutil.T(t).Setup(store)
	h := NewObjectHandler("local", store, func(f *attachment.FileAttachment) string { return "fixed/" + f.FileName })

	file := attachment.New("doc.txt", time.Now())
	if err := h.Save(context.Background(), file, bytes.NewReader([]byte("abc"))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if file.Path != "fixed/doc.txt" || file.Length != 3 || file.SaveMode != "local" {
		t.Errorf("file = %+v", file)
	}

	empty := attachment.New("none", time.Now())
	if err := h.DeleteFile(context.Background(), empty); err != nil {
		t.Errorf("DeleteFile without path: %v", err)
	}
	if _, _, deletes := store.Calls(); deletes != 0 {
		t.Errorf("deletes = %d, want 0 for empty path", deletes)
	}
}

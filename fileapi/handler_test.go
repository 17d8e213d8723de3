package fileapi_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/attachkit/attachment"
	dbtest "github.com/kbukum/attachkit/database/testutil"
	"github.com/kbukum/attachkit/datacontext"
	apperrors "github.com/kbukum/attachkit/errors"
	"github.com/kbukum/attachkit/fileapi"
	"github.com/kbukum/attachkit/filehandler"
	srvtest "github.com/kbukum/attachkit/server/testutil"
	storetest "github.com/kbukum/attachkit/storage/testutil"
	"github.com/kbukum/attachkit/testutil"
)

type api struct {
	srv   *srvtest.Component
	db    *dbtest.Component
	store *storetest.Component
}

func newAPI(t *testing.T, cfg filehandler.Config) *api {
	t.Helper()
	return newAPIWith(t, cfg, nil, nil)
}

// newAPIWith lets a test wrap the request factory and adjust the handler
// before its routes are registered.
func newAPIWith(t *testing.T, cfg filehandler.Config, wrap func(datacontext.ModeFactory) datacontext.ModeFactory, adjust func(*fileapi.Handler)) *api {
	t.Helper()
	a := &api{
		srv:   srvtest.NewComponent(),
		db:    dbtest.NewComponent().WithModels(attachment.Models()...),
		store: storetest.NewComponent(),
	}
	testutil.T(t).Setup(a.db)
	testutil.T(t).Setup(a.store)

	reg, err := filehandler.NewRegistry(cfg,
		filehandler.Registration{Name: filehandler.DatabaseSaveMode, New: filehandler.NewDatabaseHandler},
		filehandler.Registration{Name: "local", New: filehandler.NewObjectConstructor("local", a.store, nil)},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	factory := datacontext.NewModeFactory(a.db.DB(), nil)
	if wrap != nil {
		factory = wrap(factory)
	}
	h := fileapi.NewHandler(filehandler.NewProvider(reg, factory.For(datacontext.ModeWrite), nil), nil)
	if adjust != nil {
		adjust(h)
	}
	h.RegisterRoutes(a.srv.GinEngine(), factory)

	testutil.T(t).Setup(a.srv)
	return a
}

func (a *api) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.BaseURL()+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *api) upload(t *testing.T, name, mode, content string) attachment.FileAttachment {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write([]byte(content))
	if mode != "" {
		_ = w.WriteField("mode", mode)
	}
	_ = w.WriteField("extra", "ticket-42")
	_ = w.Close()

	resp := a.do(t, http.MethodPost, "/files", &buf, w.FormDataContentType())
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d: %s", resp.StatusCode, b)
	}
	var env struct {
		Data attachment.FileAttachment `json:"data"`
	}
	decode(t, resp, &env)
	return env.Data
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	a := newAPI(t, filehandler.Config{SaveFileMode: "local"})

	file := a.upload(t, "hello.txt", "", "hello world")
	if file.SaveMode != "local" || file.Length != 11 || file.ExtraInfo != "ticket-42" {
		t.Errorf("uploaded record = %+v", file)
	}

	resp := a.do(t, http.MethodGet, "/files/"+file.ID.String(), nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hello world" {
		t.Errorf("body = %q", body)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename=hello.txt`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestUploadModeFromQuery(t *testing.T) {
	a := newAPI(t, filehandler.Config{SaveFileMode: "local"})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "notes.md")
	_, _ = part.Write([]byte("# notes"))
	_ = w.Close()

	resp := a.do(t, http.MethodPost, "/files?mode=database", &buf, w.FormDataContentType())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var env struct {
		Data attachment.FileAttachment `json:"data"`
	}
	decode(t, resp, &env)
	if env.Data.SaveMode != filehandler.DatabaseSaveMode {
		t.Errorf("save mode = %q, want database", env.Data.SaveMode)
	}
}

func TestUploadSanitizesExtraInfo(t *testing.T) {
	a := newAPI(t, filehandler.Config{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "a.txt")
	_, _ = part.Write([]byte("x"))
	_ = w.WriteField("extra", " <script>alert(1)</script>\x00 ")
	_ = w.Close()

	resp := a.do(t, http.MethodPost, "/files", &buf, w.FormDataContentType())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var env struct {
		Data attachment.FileAttachment `json:"data"`
	}
	decode(t, resp, &env)
	if env.Data.ExtraInfo != "scriptalert(1)/script" {
		t.Errorf("extra = %q", env.Data.ExtraInfo)
	}
}

func TestInfoAndName(t *testing.T) {
	a := newAPI(t, filehandler.Config{})
	file := a.upload(t, "report.pdf", "database", "%PDF")

	var info struct {
		Data attachment.FileAttachment `json:"data"`
	}
	resp := a.do(t, http.MethodGet, "/files/"+file.ID.String()+"/info", nil, "")
	decode(t, resp, &info)
	if info.Data.ID != file.ID || info.Data.SaveMode != filehandler.DatabaseSaveMode {
		t.Errorf("info = %+v", info.Data)
	}

	var name struct {
		Data struct {
			FileName string `json:"file_name"`
		} `json:"data"`
	}
	resp = a.do(t, http.MethodGet, "/files/"+file.ID.String()+"/name", nil, "")
	decode(t, resp, &name)
	if name.Data.FileName != "report.pdf" {
		t.Errorf("name = %q", name.Data.FileName)
	}
}

func TestAbsentIDsAnswerNotFound(t *testing.T) {
	a := newAPI(t, filehandler.Config{})
	for _, suffix := range []string{"", "/info", "/name"} {
		for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
			resp := a.do(t, http.MethodGet, "/files/"+id+suffix, nil, "")
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("GET /files/%s%s = %d, want 404", id, suffix, resp.StatusCode)
			}
			var env map[string]any
			decode(t, resp, &env)
			if v, ok := env["data"]; !ok || v != nil {
				t.Errorf("body = %v, want empty data envelope", env)
			}
		}
	}
}

func TestDelete(t *testing.T) {
	a := newAPI(t, filehandler.Config{})
	file := a.upload(t, "a.txt", "local", "abc")

	resp := a.do(t, http.MethodDelete, "/files/"+file.ID.String(), nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if keys := a.store.Keys(); len(keys) != 0 {
		t.Errorf("stored keys = %v", keys)
	}

	resp = a.do(t, http.MethodDelete, "/files/"+file.ID.String(), nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", resp.StatusCode)
	}
}

func TestDeleteOrphanedBlob(t *testing.T) {
	a := newAPI(t, filehandler.Config{})
	file := a.upload(t, "a.txt", "local", "abc")
	a.store.FailDeletes(errors.New("read-only filesystem"))

	resp := a.do(t, http.MethodDelete, "/files/"+file.ID.String(), nil, "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body apperrors.ErrorResponse
	decode(t, resp, &body)
	if body.Error.Code != apperrors.ErrCodeStorageCleanup {
		t.Errorf("code = %s", body.Error.Code)
	}
	dbtest.AssertRowCount(t, a.db.DB(), "file_attachments", 0)
}

func TestUploadErrors(t *testing.T) {
	a := newAPI(t, filehandler.Config{MaxFileSize: "4B"})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("mode", "local")
	_ = w.Close()
	resp := a.do(t, http.MethodPost, "/files", &buf, w.FormDataContentType())
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", resp.StatusCode)
	}

	buf.Reset()
	w = multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "big.bin")
	_, _ = part.Write([]byte("0123456789"))
	_ = w.Close()
	resp = a.do(t, http.MethodPost, "/files", &buf, w.FormDataContentType())
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized status = %d, want 413", resp.StatusCode)
	}
}

func TestList(t *testing.T) {
	a := newAPI(t, filehandler.Config{})
	a.upload(t, "a.txt", "local", "1")
	a.upload(t, "b.txt", "database", "2")
	a.upload(t, "c.pdf", "database", "3")

	resp := a.do(t, http.MethodGet, "/files?save_mode=eq.database&pageSize=1", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var env struct {
		Data []attachment.FileAttachment `json:"data"`
		Meta struct {
			Total      int                       `json:"total"`
			TotalPages int                       `json:"totalPages"`
			Facets     map[string]map[string]int `json:"facets"`
		} `json:"meta"`
	}
	decode(t, resp, &env)
	if len(env.Data) != 1 || env.Meta.Total != 2 || env.Meta.TotalPages != 2 {
		t.Errorf("rows = %d, meta = %+v", len(env.Data), env.Meta)
	}
	if env.Meta.Facets["save_mode"]["local"] != 1 {
		t.Errorf("facets = %v", env.Meta.Facets)
	}
}

func TestFactoryFailure(t *testing.T) {
	srv := srvtest.NewComponent()
	reg, _ := filehandler.NewRegistry(filehandler.Config{})
	failing := func(datacontext.Mode) (datacontext.DataContext, error) { return nil, errors.New("pool exhausted") }
	fileapi.NewHandler(filehandler.NewProvider(reg, datacontext.ModeFactory(failing).For(datacontext.ModeWrite), nil), nil).
		RegisterRoutes(srv.GinEngine(), failing)
	testutil.T(t).Setup(srv)

	resp, err := srv.Client().Get(srv.BaseURL() + "/files/" + uuid.NewString())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

package fileapi_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/kbukum/attachkit/datacontext"
	"github.com/kbukum/attachkit/fileapi"
	"github.com/kbukum/attachkit/filehandler"
)

// modeLog records the pool every request context was opened on.
type modeLog struct {
	mu    sync.Mutex
	modes []datacontext.Mode
}

func (l *modeLog) wrap(next datacontext.ModeFactory) datacontext.ModeFactory {
	return func(mode datacontext.Mode) (datacontext.DataContext, error) {
		l.mu.Lock()
		l.modes = append(l.modes, mode)
		l.mu.Unlock()
		return next(mode)
	}
}

func (l *modeLog) last(t *testing.T) datacontext.Mode {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.modes) == 0 {
		t.Fatal("no data context was opened")
	}
	return l.modes[len(l.modes)-1]
}

func TestRequestsPickPoolByMethod(t *testing.T) {
	var log modeLog
	a := newAPIWith(t, filehandler.Config{}, log.wrap, nil)

	file := a.upload(t, "a.txt", "database", "x")
	if got := log.last(t); got != datacontext.ModeWrite {
		t.Errorf("POST /files mode = %s, want write", got)
	}

	id := file.ID.String()
	tests := []struct {
		method, path string
		status       int
		want         datacontext.Mode
	}{
		{http.MethodGet, "/files", http.StatusOK, datacontext.ModeRead},
		{http.MethodGet, "/files/" + id, http.StatusOK, datacontext.ModeRead},
		{http.MethodGet, "/files/" + id + "/info", http.StatusOK, datacontext.ModeRead},
		{http.MethodGet, "/files/" + id + "/name", http.StatusOK, datacontext.ModeRead},
		{http.MethodDelete, "/files/" + id, http.StatusNoContent, datacontext.ModeWrite},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := a.do(t, tc.method, tc.path, nil, "")
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			if got := log.last(t); got != tc.want {
				t.Errorf("mode = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFixConnectionOverridesMethod(t *testing.T) {
	var log modeLog
	a := newAPIWith(t, filehandler.Config{}, log.wrap, func(h *fileapi.Handler) {
		h.FixConnection(http.MethodGet, "/:id/info", datacontext.ModeWrite)
	})
	file := a.upload(t, "a.txt", "database", "x")

	a.do(t, http.MethodGet, "/files/"+file.ID.String()+"/info", nil, "")
	if got := log.last(t); got != datacontext.ModeWrite {
		t.Errorf("fixed route mode = %s, want write", got)
	}
	a.do(t, http.MethodGet, "/files/"+file.ID.String()+"/name", nil, "")
	if got := log.last(t); got != datacontext.ModeRead {
		t.Errorf("unfixed route mode = %s, want read", got)
	}
}

func TestModeForMethod(t *testing.T) {
	tests := map[string]datacontext.Mode{
		http.MethodGet:     datacontext.ModeRead,
		http.MethodHead:    datacontext.ModeRead,
		http.MethodOptions: datacontext.ModeRead,
		http.MethodPost:    datacontext.ModeWrite,
		http.MethodPut:     datacontext.ModeWrite,
		http.MethodPatch:   datacontext.ModeWrite,
		http.MethodDelete:  datacontext.ModeWrite,
	}
	for method, want := range tests {
		if got := fileapi.ModeForMethod(method); got != want {
			t.Errorf("ModeForMethod(%s) = %s, want %s", method, got, want)
		}
	}
}

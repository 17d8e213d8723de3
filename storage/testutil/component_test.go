package testutil

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/attachkit/storage"
	tu "github.com/kbukum/attachkit/testutil"
)

func TestMemoryStorage(t *testing.T) {
	s := NewComponent()
	tu.T(t).Setup(s)
	ctx := context.Background()

	if err := s.Upload(ctx, "a", strings.NewReader("1")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if data, err := storage.ReadAll(ctx, s, "a"); err != nil || string(data) != "1" {
		t.Fatalf("ReadAll = %q, %v", data, err)
	}
	if _, err := s.Download(ctx, "missing"); !storage.IsNotFound(err) {
		t.Errorf("Download missing = %v", err)
	}

	boom := errors.New("boom")
	s.FailDeletes(boom)
	if err := s.Delete(ctx, "a"); !errors.Is(err, boom) {
		t.Errorf("Delete = %v, want boom", err)
	}
	if keys := s.Keys(); len(keys) != 1 {
		t.Errorf("keys = %v", keys)
	}

	up, down, del := s.Calls()
	if up != 1 || down != 2 || del != 1 {
		t.Errorf("calls = %d/%d/%d", up, down, del)
	}

	tu.T(t).Reset(s)
	if len(s.Keys()) != 0 {
		t.Error("reset should drop objects")
	}
}

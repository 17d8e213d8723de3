package datacontext

import (
	"context"
	"testing"

	"github.com/kbukum/attachkit/database/testutil"
	tu "github.com/kbukum/attachkit/testutil"
)

func TestModeFactorySelectsPool(t *testing.T) {
	write := testutil.NewComponent().WithModels(&doc{})
	read := testutil.NewComponent().WithModels(&doc{})
	tu.T(t).Setup(write)
	tu.T(t).Setup(read)
	ctx := context.Background()

	if err := read.DB().Create(&doc{ID: "r", Title: "replica"}).Error; err != nil {
		t.Fatalf("seed read pool: %v", err)
	}
	factory := NewModeFactory(write.DB(), read.DB())

	tests := []struct {
		mode  Mode
		found bool
	}{
		{ModeRead, true},
		{ModeWrite, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			dc, err := factory.For(tc.mode)()
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer dc.Close()
			ok, err := Exists[doc](ctx, dc, "r")
			if err != nil || ok != tc.found {
				t.Errorf("Exists on %s pool = %v, %v, want %v", tc.mode, ok, err, tc.found)
			}
		})
	}

	if _, err := factory("sideways"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestModeFactoryNilReadUsesWrite(t *testing.T) {
	db, _ := setup(t)
	if err := db.DB().Create(&doc{ID: "w"}).Error; err != nil {
		t.Fatal(err)
	}
	dc, err := NewModeFactory(db.DB(), nil)(ModeRead)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dc.Close()
	if ok, _ := Exists[doc](context.Background(), dc, "w"); !ok {
		t.Error("read mode without a read pool should see the primary")
	}
}

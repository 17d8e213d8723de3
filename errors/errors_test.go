package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeStorageError, "backend down", http.StatusBadGateway)
	if !err.Retryable {
		t.Error("STORAGE_ERROR should be retryable")
	}
}

func TestAppError_NotFound_Details(t *testing.T) {
	err := NotFound("attachment", "123")
	if err.Details["resource"] != "attachment" {
		t.Errorf("expected resource=attachment, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "123" {
		t.Errorf("expected id=123, got %v", err.Details["id"])
	}

	empty := NotFound("attachment", "")
	if _, ok := empty.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	root := stderrors.New("disk full")
	err := StorageError("local", root)
	if !stderrors.Is(err, root) {
		t.Error("errors.Is should find the cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() should include cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := Conflict("duplicate").WithDetail("a", 1).WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestHasCode(t *testing.T) {
	cleanup := StorageCleanupFailed("id-1", "s3", stderrors.New("timeout"))
	wrapped := fmt.Errorf("delete file: %w", cleanup)

	if !HasCode(wrapped, ErrCodeStorageCleanup) {
		t.Error("HasCode should see through wrapping")
	}
	if HasCode(wrapped, ErrCodeNotFound) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(stderrors.New("plain"), ErrCodeStorageCleanup) {
		t.Error("HasCode matched a plain error")
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"service unavailable", ServiceUnavailable("database"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"already exists", AlreadyExists("handler"), ErrCodeAlreadyExists, http.StatusConflict},
		{"invalid input", InvalidInput("file_name", "too long"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"validation", Validation("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"missing field", MissingField("file"), ErrCodeMissingField, http.StatusBadRequest},
		{"file too large", FileTooLarge(20, 10), ErrCodeFileTooLarge, http.StatusRequestEntityTooLarge},
		{"internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError},
		{"database", DatabaseError(nil), ErrCodeDatabaseError, http.StatusInternalServerError},
		{"storage cleanup", StorageCleanupFailed("1", "local", nil), ErrCodeStorageCleanup, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("code = %s, want %s", tc.err.Code, tc.code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("status = %d, want %d", tc.err.HTTPStatus, tc.status)
			}
		})
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := InvalidInput("mode", "unknown")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeInvalidInput {
		t.Errorf("code = %s", resp.Error.Code)
	}
	if resp.Error.Details["field"] != "mode" {
		t.Errorf("details = %v", resp.Error.Details)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("attachment", "x"))
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeNotFound {
		t.Fatalf("AsAppError = %v, %v", appErr, ok)
	}
	if IsAppError(stderrors.New("plain")) {
		t.Error("plain error is not an AppError")
	}
}

func TestStatusOfAndFrom(t *testing.T) {
	if got := StatusOf(FileTooLarge(2, 1)); got != http.StatusRequestEntityTooLarge {
		t.Errorf("StatusOf = %d", got)
	}
	if got := StatusOf(stderrors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d", got)
	}
	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
	if From(stderrors.New("x")).Code != ErrCodeInternal {
		t.Error("foreign errors become INTERNAL_ERROR")
	}
}

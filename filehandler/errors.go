package filehandler

import (
	"errors"
	"io"

	apperrors "github.com/kbukum/attachkit/errors"
)

// IsOrphanedBlob reports whether err means an attachment row was deleted
// but its stored bytes could not be removed.
func IsOrphanedBlob(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeStorageCleanup)
}

var errTooLarge = errors.New("filehandler: upload exceeds size limit")

// limitReader fails with errTooLarge once more than limit bytes were read.
type limitReader struct {
	r        io.Reader
	n, limit int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.limit {
		return n, errTooLarge
	}
	return n, err
}

func (l *limitReader) exceeded() bool { return l.n > l.limit }

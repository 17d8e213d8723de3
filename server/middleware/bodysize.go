package middleware

import (
	"net/http"

	"github.com/kbukum/attachkit/util"
)

const defaultMaxBodySize = 16 << 20

// BodySizeLimit returns middleware that restricts the request body to the
// given size string (e.g. "10MB", "512KiB").
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

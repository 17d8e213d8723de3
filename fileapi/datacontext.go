package fileapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/attachkit/datacontext"
	apperrors "github.com/kbukum/attachkit/errors"
	"github.com/kbukum/attachkit/logger"
	"github.com/kbukum/attachkit/server"
)

const dataContextKey = "attachkit.datacontext"

// ModeForMethod returns the pool a request method runs on: safe methods
// read, everything else writes.
func ModeForMethod(method string) datacontext.Mode {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return datacontext.ModeRead
	default:
		return datacontext.ModeWrite
	}
}

// DataContextMiddleware opens one DataContext per request, stores it in the
// Gin context and closes it after the handler chain returns. The pool is
// chosen by ModeForMethod unless fixed maps "METHOD /full/route" to a mode.
func DataContextMiddleware(factory datacontext.ModeFactory, log *logger.Logger, fixed map[string]datacontext.Mode) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		mode := ModeForMethod(c.Request.Method)
		if m, ok := fixed[c.Request.Method+" "+c.FullPath()]; ok {
			mode = m
		}

		dc, err := factory(mode)
		if err != nil {
			server.RespondWithError(c, apperrors.ServiceUnavailable("database").WithCause(err))
			return
		}
		c.Set(dataContextKey, dc)
		defer func() {
			if err := dc.Close(); err != nil {
				log.WithContext(c.Request.Context()).Warn("Failed to close data context", logger.ErrorFields("close", err))
			}
		}()
		c.Next()
	}
}

// DataContext returns the request's DataContext, or nil when the
// middleware is not installed.
func DataContext(c *gin.Context) datacontext.DataContext {
	if v, ok := c.Get(dataContextKey); ok {
		if dc, ok := v.(datacontext.DataContext); ok {
			return dc
		}
	}
	return nil
}

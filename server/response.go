package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/attachkit/errors"
	"github.com/kbukum/attachkit/logger"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries pagination metadata.
type Meta struct {
	Page       int            `json:"page,omitempty"`
	PageSize   int            `json:"pageSize,omitempty"`
	Total      int            `json:"total,omitempty"`
	TotalPages int            `json:"totalPages,omitempty"`
	Facets     map[string]any `json:"facets,omitempty"`
}

// RespondWithError writes err as a JSON error body. AppErrors keep their
// status and code; anything else becomes a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	status := apperrors.StatusOf(appErr)
	if status >= http.StatusInternalServerError {
		logger.WithComponent("server").WithContext(c.Request.Context()).Error("Request failed",
			logger.MergeWithError(logger.Fields("code", string(appErr.Code), "path", c.Request.URL.Path), err))
	}
	c.AbortWithStatusJSON(status, appErr.ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondOKWithMeta sends a 200 response with data and metadata.
func RespondOKWithMeta(c *gin.Context, data any, meta *Meta) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: meta})
}

// RespondCreated sends a 201 response wrapping data.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

// RespondNotFound sends a 404 with an empty data envelope.
func RespondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, DataResponse{Data: nil})
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

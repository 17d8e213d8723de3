package fileapi

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/attachkit/attachment"
	"github.com/kbukum/attachkit/database/query"
	"github.com/kbukum/attachkit/datacontext"
	apperrors "github.com/kbukum/attachkit/errors"
	"github.com/kbukum/attachkit/filehandler"
	"github.com/kbukum/attachkit/logger"
	"github.com/kbukum/attachkit/server"
	"github.com/kbukum/attachkit/util"
)

// Handler serves the attachment routes.
type Handler struct {
	provider *filehandler.Provider
	log      *logger.Logger
	fixed    map[string]datacontext.Mode
}

// NewHandler creates a Handler over provider.
func NewHandler(provider *filehandler.Provider, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		provider: provider,
		log:      log.WithComponent("fileapi"),
		fixed:    make(map[string]datacontext.Mode),
	}
}

// FixConnection pins one route to a pool regardless of its method. route
// is relative to /files, e.g. "/:id". Call before RegisterRoutes.
func (h *Handler) FixConnection(method, route string, mode datacontext.Mode) *Handler {
	h.fixed[method+" "+route] = mode
	return h
}

// RegisterRoutes mounts the routes under r/files. Every request gets its
// own DataContext from factory on the pool picked by its method.
func (h *Handler) RegisterRoutes(r gin.IRouter, factory datacontext.ModeFactory) {
	g := r.Group("/files")
	fixed := make(map[string]datacontext.Mode, len(h.fixed))
	for key, mode := range h.fixed {
		method, route, _ := strings.Cut(key, " ")
		fixed[method+" "+g.BasePath()+route] = mode
	}
	g.Use(DataContextMiddleware(factory, h.log, fixed))

	g.POST("", h.upload)
	g.GET("", h.list)
	g.GET("/:id", h.download)
	g.GET("/:id/info", h.info)
	g.GET("/:id/name", h.name)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.RespondWithError(c, apperrors.FileTooLarge(c.Request.ContentLength, tooLarge.Limit))
			return
		}
		server.RespondWithError(c, apperrors.MissingField("file").WithCause(err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer f.Close()

	file, err := h.provider.Upload(c.Request.Context(), filehandler.UploadRequest{
		FileName:  fh.Filename,
		Data:      f,
		Size:      fh.Size,
		SaveMode:  util.Coalesce(c.PostForm("mode"), c.Query("mode")),
		ExtraInfo: util.SanitizeText(c.PostForm("extra")),
	}, DataContext(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.Header("Location", "/files/"+file.ID.String())
	server.RespondCreated(c, file)
}

func (h *Handler) list(c *gin.Context) {
	params := query.Parse(c.Request.URL.Query(), filehandler.ListConfig)
	res, err := h.provider.ListFiles(c.Request.Context(), params, DataContext(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	meta := &server.Meta{
		Page:       res.Pagination.Page,
		PageSize:   res.Pagination.PageSize,
		Total:      res.Pagination.Total,
		TotalPages: res.Pagination.TotalPages,
	}
	if len(res.Facets) > 0 {
		meta.Facets = make(map[string]any, len(res.Facets))
		for k, v := range res.Facets {
			meta.Facets[k] = v
		}
	}
	server.RespondOKWithMeta(c, res.Data, meta)
}

func (h *Handler) download(c *gin.Context) {
	file, err := h.provider.GetFile(c.Request.Context(), c.Param("id"), true, DataContext(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if file == nil {
		server.RespondNotFound(c)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
	c.Data(http.StatusOK, contentType(file), file.Data)
}

func (h *Handler) info(c *gin.Context) {
	file, err := h.provider.GetFileModel(c.Request.Context(), c.Param("id"), DataContext(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if file == nil {
		server.RespondNotFound(c)
		return
	}
	server.RespondOK(c, file)
}

type nameResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
}

func (h *Handler) name(c *gin.Context) {
	id := c.Param("id")
	name, ok, err := h.provider.GetFileName(c.Request.Context(), id, DataContext(c))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if !ok {
		server.RespondNotFound(c)
		return
	}
	server.RespondOK(c, nameResponse{ID: id, FileName: name})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.provider.DeleteFile(c.Request.Context(), c.Param("id"), DataContext(c)); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func contentType(file *attachment.FileAttachment) string {
	if ct := mime.TypeByExtension(filepath.Ext(file.FileName)); ct != "" {
		return ct
	}
	return http.DetectContentType(file.Data)
}

package filehandler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/attachkit/attachment"
	"github.com/kbukum/attachkit/database"
	"github.com/kbukum/attachkit/database/query"
	"github.com/kbukum/attachkit/datacontext"
	apperrors "github.com/kbukum/attachkit/errors"
	"github.com/kbukum/attachkit/logger"
	"github.com/kbukum/attachkit/observability"
	"github.com/kbukum/attachkit/storage"
	"github.com/kbukum/attachkit/util"
)

const resourceFile = "file"

// ListConfig drives ListFiles filtering, sorting and facets.
var ListConfig = query.Config{
	SearchFields:      []string{"file_name"},
	AllowedSortFields: []string{"file_name", "length", "upload_time"},
	AllowedFilters:    []string{"save_mode", "file_ext"},
	DefaultSort:       "upload_time DESC",
	FacetFields:       []string{"save_mode"},
}

// UploadRequest describes a file to store.
type UploadRequest struct {
	FileName string
	Data     io.Reader
	// Size is the declared length, or <= 0 when unknown.
	Size int64
	// SaveMode selects the handler; empty uses the default.
	SaveMode  string
	ExtraInfo string
}

// Provider implements the attachment operations. Every method takes an
// optional data-context; with nil the provider opens one from its factory
// and closes it before returning.
type Provider struct {
	reg     *Registry
	factory datacontext.Factory
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewProvider creates a provider resolving handlers from reg. A nil reg
// has no handlers, so every save mode resolves to the database handler.
// Metrics go to the global meter provider until WithMetrics replaces them.
func NewProvider(reg *Registry, factory datacontext.Factory, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("filehandler")
	if reg == nil {
		reg, _ = NewRegistry(Config{})
	}
	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		log.Warn("Attachment metrics disabled", logger.ErrorFields("metrics", err))
	}
	return &Provider{
		reg:     reg.WithLogger(log),
		factory: factory,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithMetrics records to m instead of the global meter provider.
func (p *Provider) WithMetrics(m *observability.Metrics) *Provider {
	p.metrics = m
	return p
}

// Registry returns the handler registry.
func (p *Provider) Registry() *Registry { return p.reg }

// handler resolves saveMode and wraps the handler in tracing.
func (p *Provider) handler(ctx context.Context, saveMode string, dc datacontext.DataContext) (string, Handler) {
	mode, h := p.reg.resolve(saveMode, dc)
	observability.SetSpanAttribute(ctx, observability.AttrSaveMode, mode)
	return mode, traced(h, mode)
}

// GetFile loads the attachment with the given id. A missing record returns
// (nil, nil). With withData the payload is fetched from the handler named
// by the stored save mode.
func (p *Provider) GetFile(ctx context.Context, id string, withData bool, dc datacontext.DataContext) (file *attachment.FileAttachment, err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanGetFile, p.metrics,
		observability.AttachmentAttrs(id, "")...)
	defer func() { op.End(err) }()

	err = p.withContext(dc, func(dc datacontext.DataContext) error {
		var err error
		if file, err = p.find(ctx, dc, id); err != nil || file == nil || !withData {
			return err
		}

		mode, h := p.handler(ctx, file.SaveMode, dc)
		data, err := h.GetFileData(ctx, file)
		if err != nil {
			return fetchError(file, mode, err)
		}
		file.Data = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// GetFileModel returns the full attachment record without its payload, or
// nil when it does not exist.
func (p *Provider) GetFileModel(ctx context.Context, id string, dc datacontext.DataContext) (*attachment.FileAttachment, error) {
	return p.GetFile(ctx, id, false, dc)
}

// GetFileName returns the file name of the attachment. ok is false when it
// does not exist.
func (p *Provider) GetFileName(ctx context.Context, id string, dc datacontext.DataContext) (name string, ok bool, err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanGetFileName, p.metrics,
		observability.AttachmentAttrs(id, "")...)
	defer func() { op.End(err) }()

	uid, valid := parseID(id)
	if !valid {
		return "", false, nil
	}
	err = p.withContext(dc, func(dc datacontext.DataContext) error {
		var err error
		name, ok, err = datacontext.Pluck[attachment.FileAttachment, string](ctx, dc, uid, "file_name")
		return dbError(err)
	})
	return name, ok, err
}

// DeleteFile removes the attachment record and then its stored bytes. A
// missing record is a no-op. When the record is gone but the bytes could
// not be removed the returned error satisfies IsOrphanedBlob.
func (p *Provider) DeleteFile(ctx context.Context, id string, dc datacontext.DataContext) (err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanDeleteFile, p.metrics,
		observability.AttachmentAttrs(id, "")...)
	defer func() { op.End(err) }()

	return p.withContext(dc, func(dc datacontext.DataContext) error {
		file, err := p.find(ctx, dc, id)
		if err != nil || file == nil {
			return err
		}

		dc.Remove(file)
		if _, err := dc.SaveChanges(ctx); err != nil {
			return dbError(err)
		}

		mode, h := p.handler(ctx, file.SaveMode, dc)
		if err := h.DeleteFile(ctx, file); err != nil {
			p.metrics.RecordOrphan(ctx, mode, "delete")
			fields := logger.AttachmentFields(file.ID.String(), mode)
			fields[logger.FieldPath] = file.Path
			p.log.WithContext(ctx).Warn("Attachment deleted but stored content was not removed",
				logger.MergeWithError(fields, err))
			return apperrors.StorageCleanupFailed(file.ID.String(), mode, err).
				WithDetail("path", file.Path)
		}

		p.log.WithContext(ctx).Debug("Attachment deleted", logger.AttachmentFields(file.ID.String(), mode))
		return nil
	})
}

// Upload stores req.Data through the handler for req.SaveMode and commits
// the new attachment record. If the commit fails the stored bytes are
// removed again.
func (p *Provider) Upload(ctx context.Context, req UploadRequest, dc datacontext.DataContext) (file *attachment.FileAttachment, err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanUpload, p.metrics)
	defer func() { op.End(err) }()

	if req.Data == nil {
		return nil, apperrors.MissingField("file")
	}
	limit := p.reg.Config().MaxBytes()
	if req.Size > limit {
		return nil, apperrors.FileTooLarge(req.Size, limit)
	}

	err = p.withContext(dc, func(dc datacontext.DataContext) error {
		start := p.now()
		file = attachment.New(util.SanitizeFileName(req.FileName, "file"), start)
		file.ExtraInfo = req.ExtraInfo
		observability.SetSpanAttribute(ctx, observability.AttrAttachmentID, file.ID.String())

		mode, h := p.handler(ctx, req.SaveMode, dc)
		lr := &limitReader{r: req.Data, limit: limit}
		err := h.Save(ctx, file, lr)
		if lr.exceeded() {
			if err == nil {
				p.cleanup(ctx, h, file, mode)
			}
			return apperrors.FileTooLarge(lr.n, limit)
		}
		if err != nil {
			if mode == DatabaseSaveMode {
				return apperrors.Internal(err)
			}
			return apperrors.StorageError(mode, err)
		}
		file.SaveMode = mode

		dc.Add(file)
		if _, err := dc.SaveChanges(ctx); err != nil {
			p.cleanup(ctx, h, file, mode)
			return dbError(err)
		}

		p.metrics.RecordUpload(ctx, mode, file.Length)
		fields := logger.AttachmentFields(file.ID.String(), mode)
		fields[logger.FieldSize] = file.HumanLength()
		p.log.WithContext(ctx).Info("Attachment stored",
			logger.MergeWithDuration(fields, p.now().Sub(start)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ListFiles returns one page of attachment records without payloads.
func (p *Provider) ListFiles(ctx context.Context, params query.Params, dc datacontext.DataContext) (res *query.Result[attachment.FileAttachment], err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanListFiles, p.metrics)
	defer func() { op.End(err) }()

	err = p.withContext(dc, func(dc datacontext.DataContext) error {
		var err error
		res, err = datacontext.List[attachment.FileAttachment](ctx, dc, params, ListConfig)
		return dbError(err)
	})
	return res, err
}

func (p *Provider) find(ctx context.Context, dc datacontext.DataContext, id string) (*attachment.FileAttachment, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	file, err := datacontext.Find[attachment.FileAttachment](ctx, dc, uid)
	if err != nil {
		return nil, dbError(err)
	}
	return file, nil
}

func (p *Provider) cleanup(ctx context.Context, h Handler, file *attachment.FileAttachment, mode string) {
	if err := h.DeleteFile(ctx, file); err != nil {
		p.metrics.RecordOrphan(ctx, mode, "upload")
		fields := logger.AttachmentFields(file.ID.String(), mode)
		fields[logger.FieldPath] = file.Path
		p.log.WithContext(ctx).Warn("Failed to remove stored content of rejected upload",
			logger.MergeWithError(fields, err))
	}
}

func fetchError(file *attachment.FileAttachment, mode string, err error) error {
	if errors.Is(err, ErrDataMissing) || storage.IsNotFound(err) {
		return apperrors.NotFound("file data", file.ID.String()).WithCause(err)
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if mode == DatabaseSaveMode {
		return dbError(err)
	}
	return apperrors.StorageError(mode, err)
}

func (p *Provider) withContext(dc datacontext.DataContext, fn func(datacontext.DataContext) error) error {
	if dc != nil {
		return fn(dc)
	}
	if p.factory == nil {
		return apperrors.ServiceUnavailable("database")
	}
	owned, err := p.factory()
	if err != nil {
		return apperrors.ServiceUnavailable("database").WithCause(err)
	}
	defer owned.Close()
	return fn(owned)
}

func parseID(id string) (uuid.UUID, bool) {
	uid, err := uuid.Parse(id)
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, false
	}
	return uid, true
}

func dbError(err error) error {
	if err == nil {
		return nil
	}
	return database.FromDatabase(err, resourceFile)
}

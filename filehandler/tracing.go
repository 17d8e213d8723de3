package filehandler

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/attachkit/attachment"
	"github.com/kbukum/attachkit/observability"
)

// Handler span names.
const (
	SpanHandlerSave   = "filehandler.save"
	SpanHandlerFetch  = "filehandler.get_data"
	SpanHandlerDelete = "filehandler.delete"
)

// traced wraps h so every call runs in a child span tagged with the
// attachment id and the resolved save mode.
func traced(h Handler, mode string) Handler {
	return &tracedHandler{inner: h, mode: mode}
}

type tracedHandler struct {
	inner Handler
	mode  string
}

func (t *tracedHandler) start(ctx context.Context, name string, file *attachment.FileAttachment) (context.Context, trace.Span) {
	return observability.StartSpan(ctx, name,
		trace.WithAttributes(observability.AttachmentAttrs(file.ID.String(), t.mode)...))
}

func (t *tracedHandler) Save(ctx context.Context, file *attachment.FileAttachment, data io.Reader) error {
	ctx, span := t.start(ctx, SpanHandlerSave, file)
	defer span.End()
	err := t.inner.Save(ctx, file, data)
	observability.SetSpanError(span, err)
	return err
}

func (t *tracedHandler) GetFileData(ctx context.Context, file *attachment.FileAttachment) ([]byte, error) {
	ctx, span := t.start(ctx, SpanHandlerFetch, file)
	defer span.End()
	data, err := t.inner.GetFileData(ctx, file)
	observability.SetSpanError(span, err)
	return data, err
}

func (t *tracedHandler) DeleteFile(ctx context.Context, file *attachment.FileAttachment) error {
	ctx, span := t.start(ctx, SpanHandlerDelete, file)
	defer span.End()
	err := t.inner.DeleteFile(ctx, file)
	observability.SetSpanError(span, err)
	return err
}

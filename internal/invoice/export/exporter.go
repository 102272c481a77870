package export

import (
	"context"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/delivery"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Fetcher domain.DocumentFetcher
	Sink    delivery.Sink
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// Exporter fetches rendered invoices from the store and hands them to the
// delivery sink.
type Exporter struct {
	fetcher domain.DocumentFetcher
	sink    delivery.Sink
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) *Exporter {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		fetcher: p.Fetcher,
		sink:    p.Sink,
		log:     log.Named("invoice.export"),
		metrics: p.Metrics,
	}
}

// Result describes a delivered export.
type Result struct {
	delivery.Artifact
	Location string
}

// RequestExport exports the referenced invoice. A nil ref means nothing has
// been saved yet; it returns a zero Result without contacting the store.
func (e *Exporter) RequestExport(ctx context.Context, ref *domain.SavedInvoiceRef, format domain.Format) (Result, error) {
	if ref == nil || ref.ID == "" {
		return Result{}, nil
	}
	if _, err := domain.ParseFormat(string(format)); err != nil {
		return Result{}, &domain.OpError{Kind: domain.KindExportFailed, Err: err}
	}

	body, err := e.fetcher.Export(ctx, ref.ID, format)
	if err != nil {
		e.metrics.RecordExport(ctx, string(format), "failed")
		e.log.Warn("export fetch failed", zap.String("invoice_id", ref.ID.String()), zap.Error(err))
		return Result{}, &domain.OpError{Kind: domain.KindExportFailed, Err: err}
	}

	artifact := delivery.Artifact{
		Filename:    Filename(ref.InvoiceNo, format),
		ContentType: format.ContentType(),
		Body:        body,
	}
	location, err := e.sink.Deliver(ctx, artifact)
	if err != nil {
		e.metrics.RecordExport(ctx, string(format), "failed")
		e.log.Warn("export delivery failed", zap.String("filename", artifact.Filename), zap.Error(err))
		return Result{}, &domain.OpError{Kind: domain.KindExportFailed, Err: err}
	}

	e.metrics.RecordExport(ctx, string(format), "ok")
	e.log.Info("invoice exported",
		zap.String("invoice_id", ref.ID.String()),
		zap.String("format", string(format)),
		zap.String("location", location),
	)
	return Result{Artifact: artifact, Location: location}, nil
}

// ExportSummary exports a listing row.
func (e *Exporter) ExportSummary(ctx context.Context, s domain.InvoiceSummary, format domain.Format) (Result, error) {
	ref := s.Ref()
	return e.RequestExport(ctx, &ref, format)
}

// Filename is "<invoice_no>.<format>", with path separators replaced. An
// invoice without a number falls back to "invoice.<format>".
func Filename(invoiceNo string, format domain.Format) string {
	name := strings.TrimSpace(invoiceNo)
	if name == "" {
		name = "invoice"
	}
	name = strings.NewReplacer("/", "-", `\`, "-").Replace(name)
	return name + "." + string(format)
}

// Package render turns stored invoices into pdf and docx documents.
package render

import (
	"context"
	"fmt"

	"github.com/smallbiznis/invoicedesk/internal/cache"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/smallbiznis/invoicedesk/internal/providers/document"
	"github.com/smallbiznis/invoicedesk/internal/providers/docx"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("recordstore.render",
	fx.Provide(New),
)

type Params struct {
	fx.In

	PDF   pdf.Provider
	DOCX  docx.Provider
	Cache cache.ArtifactCache `optional:"true"`
	Log   *zap.Logger
}

type Renderer struct {
	pdf   pdf.Provider
	docx  docx.Provider
	cache cache.ArtifactCache
	log   *zap.Logger
}

func New(p Params) *Renderer {
	return &Renderer{
		pdf:   p.PDF,
		docx:  p.DOCX,
		cache: p.Cache,
		log:   p.Log.Named("recordstore.render"),
	}
}

// Render returns the document bytes, served from cache when the invoice has
// not changed since it was last rendered.
func (r *Renderer) Render(ctx context.Context, inv *domain.Invoice, f invoicedomain.Format) ([]byte, error) {
	key := cacheKey(inv, f)
	if r.cache != nil {
		body, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn("artifact cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return body, nil
		}
	}

	doc := Document(inv)
	var (
		body []byte
		err  error
	)
	switch f {
	case invoicedomain.FormatPDF:
		body, err = r.pdf.GenerateInvoice(ctx, doc)
	case invoicedomain.FormatDOCX:
		body, err = r.docx.GenerateInvoice(ctx, doc)
	default:
		return nil, domain.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, body); err != nil {
			r.log.Warn("artifact cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return body, nil
}

// Document lays out an invoice for the providers.
func Document(inv *domain.Invoice) document.Invoice {
	lines := make([]document.Line, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, document.Line{
			Description: it.Description,
			Unit:        it.Unit,
			Qty:         format.Quantity(it.Qty),
			UnitRate:    format.Plain(it.UnitRate),
			Amount:      format.Plain(it.Amount()),
		})
	}
	return document.Invoice{
		Title:           "Invoice",
		InvoiceNo:       inv.InvoiceNo,
		CustomerName:    inv.CustomerName,
		CustomerAddress: inv.CustomerAddress,
		ContractNo:      inv.ContractNo,
		PONo:            inv.PONo,
		InvoiceDate:     inv.InvoiceDate,
		VATDate:         inv.VATDate,
		Lines:           lines,
		Subtotal:        format.Money(inv.Subtotal),
		VAT:             format.Money(inv.VAT),
		WHT:             format.Money(inv.WHT),
		Total:           format.Money(inv.Total),
	}
}

func cacheKey(inv *domain.Invoice, f invoicedomain.Format) string {
	return fmt.Sprintf("%s:%d:%s", inv.ID, inv.UpdatedAt.UnixNano(), f)
}

package pdf

import (
	"context"

	"github.com/smallbiznis/invoicedesk/internal/providers/document"
	"go.uber.org/fx"
)

// Provider renders invoices as PDF.
type Provider interface {
	GenerateInvoice(ctx context.Context, inv document.Invoice) ([]byte, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

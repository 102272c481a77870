package providers

import (
	"github.com/smallbiznis/invoicedesk/internal/providers/docx"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	docx.Module,
)

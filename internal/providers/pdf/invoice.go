package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicedesk/internal/providers/document"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, inv document.Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	title := inv.Title
	if title == "" {
		title = "Invoice"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Left}),
	)

	meta := col.New(6)
	for i, kv := range inv.Meta() {
		meta.Add(text.New(kv[0]+": "+kv[1], props.Text{Top: float64(i * 4), Size: 9}))
	}
	m.AddRow(24,
		meta,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(inv.CustomerName, props.Text{Top: 5, Size: 9}),
			text.New(inv.CustomerAddress, props.Text{Top: 9, Size: 9}),
		),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(8,
		text.NewCol(5, "Description", header),
		text.NewCol(1, "Unit", header),
		text.NewCol(2, "Qty", headerRight),
		text.NewCol(2, "Unit rate", headerRight),
		text.NewCol(2, "Amount", headerRight),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, l := range inv.Lines {
		m.AddRow(8,
			text.NewCol(5, l.Description, cell),
			text.NewCol(1, l.Unit, cell),
			text.NewCol(2, l.Qty, cellRight),
			text.NewCol(2, l.UnitRate, cellRight),
			text.NewCol(2, l.Amount, cellRight),
		)
	}
	m.AddRow(2, line.NewCol(12))

	totals := [][2]string{
		{"Subtotal", inv.Subtotal},
		{"VAT", inv.VAT},
		{"WHT", inv.WHT},
	}
	for _, kv := range totals {
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, kv[0], cell),
			text.NewCol(2, kv[1], cellRight),
		)
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total", header),
		text.NewCol(2, inv.Total, headerRight),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/providers/document"
	"go.uber.org/fx"
)

// Provider renders invoices as Word documents.
type Provider interface {
	GenerateInvoice(ctx context.Context, inv document.Invoice) ([]byte, error)
}

var Module = fx.Module("providers.docx",
	fx.Provide(New),
)

type DOCXProvider struct{}

func New() Provider {
	return &DOCXProvider{}
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// GenerateInvoice writes the smallest package Word opens: content types,
// the root relationship and a single document part.
func (p *DOCXProvider) GenerateInvoice(ctx context.Context, inv document.Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{"word/document.xml", documentXML(inv)},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func documentXML(inv document.Invoice) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	title := inv.Title
	if title == "" {
		title = "Invoice"
	}
	paragraph(&b, title, true)
	for _, kv := range inv.Meta() {
		paragraph(&b, kv[0]+": "+kv[1], false)
	}
	paragraph(&b, "Bill to: "+inv.CustomerName, true)
	if inv.CustomerAddress != "" {
		paragraph(&b, inv.CustomerAddress, false)
	}

	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)
	row(&b, true, "Description", "Unit", "Qty", "Unit rate", "Amount")
	for _, l := range inv.Lines {
		row(&b, false, l.Description, l.Unit, l.Qty, l.UnitRate, l.Amount)
	}
	b.WriteString(`</w:tbl>`)

	paragraph(&b, "Subtotal: "+inv.Subtotal, false)
	paragraph(&b, "VAT: "+inv.VAT, false)
	paragraph(&b, "WHT: "+inv.WHT, false)
	paragraph(&b, "Total: "+inv.Total, true)

	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

func paragraph(b *strings.Builder, s string, bold bool) {
	b.WriteString(`<w:p>`)
	run(b, s, bold)
	b.WriteString(`</w:p>`)
}

func row(b *strings.Builder, bold bool, cells ...string) {
	b.WriteString(`<w:tr>`)
	for _, c := range cells {
		b.WriteString(`<w:tc><w:p>`)
		run(b, c, bold)
		b.WriteString(`</w:p></w:tc>`)
	}
	b.WriteString(`</w:tr>`)
}

func run(b *strings.Builder, s string, bold bool) {
	b.WriteString(`<w:r>`)
	if bold {
		b.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(s))
	b.WriteString(`</w:t></w:r>`)
}

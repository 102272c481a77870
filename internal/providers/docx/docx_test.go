package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/smallbiznis/invoicedesk/internal/providers/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInvoicePackage(t *testing.T) {
	inv := document.Invoice{
		InvoiceNo:    "INV-1",
		CustomerName: "Acme & Sons",
		Lines:        []document.Line{{Description: "Consulting <hours>", Qty: "2", UnitRate: "500.00", Amount: "1,000.00"}},
		Total:        "₦1,000.00",
	}

	out, err := New().GenerateInvoice(context.Background(), inv)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	names := map[string]*zip.File{}
	for _, f := range zr.File {
		names[f.Name] = f
	}
	require.Contains(t, names, "[Content_Types].xml")
	require.Contains(t, names, "_rels/.rels")
	require.Contains(t, names, "word/document.xml")

	rc, err := names["word/document.xml"].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Contains(t, string(body), "Acme &amp; Sons")
	assert.Contains(t, string(body), "Consulting &lt;hours&gt;")
	assert.Contains(t, string(body), "₦1,000.00")
}

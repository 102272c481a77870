package render

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/cache"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/providers/document"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type providerMock struct {
	mock.Mock
}

func (m *providerMock) GenerateInvoice(ctx context.Context, inv document.Invoice) ([]byte, error) {
	args := m.Called(ctx, inv)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

func sampleInvoice() *domain.Invoice {
	inv := &domain.Invoice{
		ID:           7,
		InvoiceNo:    "INV-7",
		CustomerName: "Acme",
		VAT:          150,
		WHT:          50,
		Items: []domain.Item{
			{Description: "A", Qty: 2, UnitRate: 500},
			{Description: "B", Qty: 1, UnitRate: 1000},
		},
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	inv.Recompute()
	return inv
}

func TestDocumentFormatsAmounts(t *testing.T) {
	doc := Document(sampleInvoice())
	assert.Equal(t, "₦2,000.00", doc.Subtotal)
	assert.Equal(t, "₦2,100.00", doc.Total)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "2", doc.Lines[0].Qty)
	assert.Equal(t, "1,000.00", doc.Lines[0].Amount)
}

func TestRenderUsesCacheUntilInvoiceChanges(t *testing.T) {
	pdfMock := &providerMock{}
	pdfMock.On("GenerateInvoice", mock.Anything, mock.Anything).Return([]byte("%PDF-1"), nil).Twice()

	r := New(Params{PDF: pdfMock, DOCX: &providerMock{}, Cache: cache.NewMemoryArtifactCache(time.Hour), Log: zap.NewNop()})
	inv := sampleInvoice()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		body, err := r.Render(ctx, inv, invoicedomain.FormatPDF)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1"), body)
	}
	pdfMock.AssertNumberOfCalls(t, "GenerateInvoice", 1)

	inv.UpdatedAt = inv.UpdatedAt.Add(time.Second)
	_, err := r.Render(ctx, inv, invoicedomain.FormatPDF)
	require.NoError(t, err)
	pdfMock.AssertNumberOfCalls(t, "GenerateInvoice", 2)
}

func TestRenderDispatchesByFormat(t *testing.T) {
	pdfMock := &providerMock{}
	docxMock := &providerMock{}
	docxMock.On("GenerateInvoice", mock.Anything, mock.Anything).Return([]byte("PK"), nil).Once()

	r := New(Params{PDF: pdfMock, DOCX: docxMock, Log: zap.NewNop()})
	body, err := r.Render(context.Background(), sampleInvoice(), invoicedomain.FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), body)
	pdfMock.AssertNotCalled(t, "GenerateInvoice", mock.Anything, mock.Anything)

	_, err = r.Render(context.Background(), sampleInvoice(), invoicedomain.Format("odt"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
)

type itemView struct {
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Qty         float64 `json:"qty"`
	UnitRate    float64 `json:"unit_rate"`
	Amount      string  `json:"amount"`
}

// invoiceView is the wire form of an invoice. Subtotal and total are decimal
// strings; ids are strings so they survive JavaScript clients.
type invoiceView struct {
	ID              string     `json:"id"`
	InvoiceNo       string     `json:"invoice_no"`
	CustomerName    string     `json:"customer_name"`
	CustomerAddress string     `json:"customer_address"`
	ContractNo      string     `json:"contract_no"`
	PONo            string     `json:"po_no"`
	InvoiceDate     string     `json:"invoice_date"`
	VATDate         string     `json:"vat_date"`
	VAT             float64    `json:"vat"`
	WHT             float64    `json:"wht"`
	Items           []itemView `json:"items"`
	Subtotal        string     `json:"subtotal"`
	Total           string     `json:"total"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// saveResponse is the invoice plus the invoice_id key save callers read.
type saveResponse struct {
	InvoiceID string `json:"invoice_id"`
	invoiceView
}

func newInvoiceView(inv *domain.Invoice) invoiceView {
	items := make([]itemView, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, itemView{
			Description: it.Description,
			Unit:        it.Unit,
			Qty:         it.Qty,
			UnitRate:    it.UnitRate,
			Amount:      format.Decimal(it.Amount()),
		})
	}
	return invoiceView{
		ID:              inv.ID.String(),
		InvoiceNo:       inv.InvoiceNo,
		CustomerName:    inv.CustomerName,
		CustomerAddress: inv.CustomerAddress,
		ContractNo:      inv.ContractNo,
		PONo:            inv.PONo,
		InvoiceDate:     inv.InvoiceDate,
		VATDate:         inv.VATDate,
		VAT:             inv.VAT,
		WHT:             inv.WHT,
		Items:           items,
		Subtotal:        format.Decimal(inv.Subtotal),
		Total:           format.Decimal(inv.Total),
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func newSaveResponse(inv *domain.Invoice) saveResponse {
	view := newInvoiceView(inv)
	return saveResponse{InvoiceID: view.ID, invoiceView: view}
}

func (s *Server) ListInvoices(c *gin.Context) {
	filter := domain.ListFilter{
		CustomerName: c.Query("customer_name"),
		PONo:         c.Query("po_no"),
		StartDate:    c.Query("start_date"),
		EndDate:      c.Query("end_date"),
	}
	invoices, err := s.invoices.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]invoiceView, 0, len(invoices))
	for i := range invoices {
		out = append(out, newInvoiceView(&invoices[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req domain.InvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoices.Create(c.Request.Context(), req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSaveResponse(inv))
}

func (s *Server) GetInvoice(c *gin.Context) {
	inv, err := s.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newInvoiceView(inv))
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req domain.InvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoices.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSaveResponse(inv))
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoices.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ExportInvoice(c *gin.Context) {
	art, err := s.invoices.Export(c.Request.Context(), c.Param("id"), c.Param("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ReplaceAll(art.Filename, `"`, "")))
	c.Data(http.StatusOK, art.ContentType, art.Body)
}

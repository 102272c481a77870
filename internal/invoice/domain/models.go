package domain

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// ID identifies a persisted invoice. The store may send it as a JSON number
// or string; it is always carried as text.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Mode says whether a draft becomes a new invoice or updates an existing one.
type Mode struct {
	id ID
}

func CreateMode() Mode { return Mode{} }

// EditingMode targets the persisted invoice id. An empty id yields Create.
func EditingMode(id ID) Mode { return Mode{id: ID(strings.TrimSpace(string(id)))} }

func (m Mode) Editing() (ID, bool) { return m.id, m.id != "" }

func (m Mode) IsCreate() bool { return m.id == "" }

func (m Mode) String() string {
	if m.id == "" {
		return "create"
	}
	return "editing(" + string(m.id) + ")"
}

type LineItem struct {
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Qty         Amount `json:"qty"`
	UnitRate    Amount `json:"unit_rate"`
}

// BlankItem is the item a fresh draft starts with.
func BlankItem() LineItem {
	return LineItem{Qty: 1}
}

// Header carries the invoice fields that are not line items.
type Header struct {
	CustomerName    string `json:"customer_name"`
	CustomerAddress string `json:"customer_address"`
	ContractNo      string `json:"contract_no"`
	PONo            string `json:"po_no"`
	InvoiceDate     string `json:"invoice_date"`
	VATDate         string `json:"vat_date"`
	VAT             Amount `json:"vat"`
	WHT             Amount `json:"wht"`
}

type Draft struct {
	Mode Mode
	Header
	Items []LineItem
}

func NewDraft() Draft {
	return Draft{
		Mode:  CreateMode(),
		Items: []LineItem{BlankItem()},
	}
}

// Clone returns a draft that shares no item storage with d.
func (d Draft) Clone() Draft {
	d.Items = slices.Clone(d.Items)
	return d
}

func (d Draft) Subtotal() float64 { return Subtotal(d.Items) }

func (d Draft) GrandTotal() float64 { return GrandTotal(d.Items, d.VAT, d.WHT) }

// Payload is the body sent to the store on create and update.
func (d Draft) Payload() Payload {
	return Payload{
		Header:   d.Header,
		Items:    slices.Clone(d.Items),
		Subtotal: Amount(d.Subtotal()),
		Total:    Amount(d.GrandTotal()),
	}
}

type Payload struct {
	Header
	Items    []LineItem `json:"items"`
	Subtotal Amount     `json:"subtotal"`
	Total    Amount     `json:"total"`
}

// SaveResult is what the store answers to create and update.
type SaveResult struct {
	InvoiceID ID     `json:"invoice_id"`
	InvoiceNo string `json:"invoice_no"`
}

// SavedInvoiceRef points at the invoice most recently persisted by a session.
type SavedInvoiceRef struct {
	ID        ID
	InvoiceNo string
}

// Record is a full invoice as returned by the store.
type Record struct {
	ID        ID     `json:"id"`
	InvoiceNo string `json:"invoice_no"`
	Header
	Items []LineItem `json:"items"`
	Total Amount     `json:"total"`
}

// InvoiceSummary is one row of the listing.
type InvoiceSummary struct {
	ID           ID         `json:"id"`
	InvoiceNo    string     `json:"invoice_no"`
	CustomerName string     `json:"customer_name"`
	PONo         string     `json:"po_no"`
	InvoiceDate  string     `json:"invoice_date"`
	Total        Amount     `json:"total"`
	Items        []LineItem `json:"items"`
}

func (s InvoiceSummary) Ref() SavedInvoiceRef {
	return SavedInvoiceRef{ID: s.ID, InvoiceNo: s.InvoiceNo}
}

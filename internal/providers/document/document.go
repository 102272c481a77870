package document

// Invoice is an invoice laid out for rendering; amounts are preformatted.
type Invoice struct {
	Title           string
	InvoiceNo       string
	CustomerName    string
	CustomerAddress string
	ContractNo      string
	PONo            string
	InvoiceDate     string
	VATDate         string

	Lines []Line

	Subtotal string
	VAT      string
	WHT      string
	Total    string
}

type Line struct {
	Description string
	Unit        string
	Qty         string
	UnitRate    string
	Amount      string
}

// Meta lists the labelled header fields that have a value, in print order.
func (inv Invoice) Meta() [][2]string {
	all := [][2]string{
		{"Invoice number", inv.InvoiceNo},
		{"Invoice date", inv.InvoiceDate},
		{"VAT date", inv.VATDate},
		{"Contract no.", inv.ContractNo},
		{"PO no.", inv.PONo},
	}
	out := make([][2]string, 0, len(all))
	for _, kv := range all {
		if kv[1] != "" {
			out = append(out, kv)
		}
	}
	return out
}

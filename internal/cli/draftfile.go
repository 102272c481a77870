package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/invoice/draft"
	"gopkg.in/yaml.v3"
)

var (
	ErrItemIndex    = errors.New("item_index_out_of_range")
	ErrMalformedOp  = errors.New("malformed_edit")
	ErrEmptyDraftIn = errors.New("empty_draft_file")
)

// draftFile is the yaml document accepted by `new --file`:
//
//	customer_name: Acme
//	invoice_date: 2024-05-01
//	vat: 150
//	wht: 50
//	items:
//	  - description: Widget
//	    qty: 2
//	    unit_rate: 500
//
// Numbers are read as text and coerced by the editor like typed input.
type draftFile struct {
	CustomerName    string      `yaml:"customer_name"`
	CustomerAddress string      `yaml:"customer_address"`
	ContractNo      string      `yaml:"contract_no"`
	PONo            string      `yaml:"po_no"`
	InvoiceDate     string      `yaml:"invoice_date"`
	VATDate         string      `yaml:"vat_date"`
	VAT             string      `yaml:"vat"`
	WHT             string      `yaml:"wht"`
	Items           []draftItem `yaml:"items"`
}

type draftItem struct {
	Description string `yaml:"description"`
	Unit        string `yaml:"unit"`
	Qty         string `yaml:"qty"`
	UnitRate    string `yaml:"unit_rate"`
}

func readDraftFile(r io.Reader) (draftFile, error) {
	var df draftFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&df); err != nil {
		if errors.Is(err, io.EOF) {
			return draftFile{}, ErrEmptyDraftIn
		}
		return draftFile{}, fmt.Errorf("read draft file: %w", err)
	}
	return df, nil
}

// apply replays the file onto a fresh editor through the same operations
// the edit screen uses. Empty values leave the editor's defaults alone.
func (df draftFile) apply(ed *draft.Editor) error {
	header := []fieldValue{
		{draft.FieldCustomerName, df.CustomerName},
		{draft.FieldCustomerAddress, df.CustomerAddress},
		{draft.FieldContractNo, df.ContractNo},
		{draft.FieldPONo, df.PONo},
		{draft.FieldInvoiceDate, df.InvoiceDate},
		{draft.FieldVATDate, df.VATDate},
		{draft.FieldVAT, df.VAT},
		{draft.FieldWHT, df.WHT},
	}
	for _, fv := range header {
		if fv.value == "" {
			continue
		}
		if err := ed.SetField(fv.field, fv.value); err != nil {
			return err
		}
	}

	for i, item := range df.Items {
		if i > 0 {
			ed.AddItem()
		}
		fields := []fieldValue{
			{draft.ItemDescription, item.Description},
			{draft.ItemUnit, item.Unit},
			{draft.ItemQty, item.Qty},
			{draft.ItemUnitRate, item.UnitRate},
		}
		for _, fv := range fields {
			if fv.value == "" {
				continue
			}
			if err := ed.SetItemField(i, fv.field, fv.value); err != nil {
				return err
			}
		}
	}
	return nil
}

type fieldValue struct {
	field string
	value string
}

type itemValue struct {
	index int
	fieldValue
}

// editOps are the `edit` flags. Items are numbered from 1 as printed by
// printDraft. They run in a fixed order: add, header sets, item sets, then
// removals from the highest number down.
type editOps struct {
	add      int
	sets     []fieldValue
	itemSets []itemValue
	remove   []int
}

func parseEditOps(sets, itemSets []string, add int, remove []int) (editOps, error) {
	ops := editOps{add: add}
	if add < 0 {
		return editOps{}, fmt.Errorf("%w: --item-add %d", ErrMalformedOp, add)
	}
	for _, raw := range sets {
		field, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return editOps{}, fmt.Errorf("%w: --set %q, want field=value", ErrMalformedOp, raw)
		}
		ops.sets = append(ops.sets, fieldValue{strings.TrimSpace(field), value})
	}
	for _, raw := range itemSets {
		target, value, ok := strings.Cut(raw, "=")
		if !ok {
			return editOps{}, fmt.Errorf("%w: --item-set %q, want n.field=value", ErrMalformedOp, raw)
		}
		num, field, ok := strings.Cut(strings.TrimSpace(target), ".")
		n, err := strconv.Atoi(num)
		if !ok || err != nil || field == "" {
			return editOps{}, fmt.Errorf("%w: --item-set %q, want n.field=value", ErrMalformedOp, raw)
		}
		ops.itemSets = append(ops.itemSets, itemValue{index: n, fieldValue: fieldValue{field, value}})
	}
	ops.remove = slices.Clone(remove)
	slices.Sort(ops.remove)
	ops.remove = slices.Compact(ops.remove)
	slices.Reverse(ops.remove)
	return ops, nil
}

func (o editOps) apply(ed *draft.Editor) error {
	for range o.add {
		ed.AddItem()
	}
	for _, fv := range o.sets {
		if err := ed.SetField(fv.field, fv.value); err != nil {
			return err
		}
	}
	for _, iv := range o.itemSets {
		idx, err := itemIndex(ed, iv.index)
		if err != nil {
			return err
		}
		if err := ed.SetItemField(idx, iv.field, iv.value); err != nil {
			return err
		}
	}
	for _, n := range o.remove {
		idx, err := itemIndex(ed, n)
		if err != nil {
			return err
		}
		ed.RemoveItem(idx)
	}
	return nil
}

func itemIndex(ed *draft.Editor, n int) (int, error) {
	count := len(ed.Draft().Items)
	if n < 1 || n > count {
		return 0, fmt.Errorf("%w: item %d, draft has %d", ErrItemIndex, n, count)
	}
	return n - 1, nil
}

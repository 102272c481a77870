package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/xuri/excelize/v2"
)

const (
	headerRow   = 0
	totalColumn = 5
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
)

var listHeaders = []string{"ID", "Invoice No", "Customer", "PO No", "Date", "Total"}

// renderList lays out the listing as a bordered table.
func renderList(rows []domain.InvoiceSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(listHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return headerStyle
			case col == totalColumn:
				return amountStyle
			default:
				return cellStyle
			}
		})
	for _, inv := range rows {
		t.Row(
			inv.ID.String(),
			inv.InvoiceNo,
			inv.CustomerName,
			inv.PONo,
			inv.InvoiceDate,
			format.Money(inv.Total.Float64()),
		)
	}
	return t.String()
}

// writeWorkbook writes the listing as a single-sheet xlsx workbook. Totals
// are numeric cells with two decimals.
func writeWorkbook(w io.Writer, rows []domain.InvoiceSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Invoices"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	for col, width := range []float64{20, 24, 32, 16, 14, 16} {
		if err := sw.SetColWidth(col+1, col+1, width); err != nil {
			return err
		}
	}

	header := make([]any, len(listHeaders))
	for i, h := range listHeaders {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, inv := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			inv.ID.String(),
			inv.InvoiceNo,
			inv.CustomerName,
			inv.PONo,
			inv.InvoiceDate,
			excelize.Cell{StyleID: moneyStyle, Value: inv.Total.Float64()},
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

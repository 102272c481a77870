package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/export"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/smallbiznis/invoicedesk/internal/invoice/listing"
)

type Params struct {
	Listing  *listing.Synchronizer
	Exporter *export.Exporter
}

var filterInputs = []struct {
	field       string
	label       string
	placeholder string
}{
	{domain.FilterCustomerName, "Customer", "name contains"},
	{domain.FilterPONo, "PO No", "contains"},
	{domain.FilterStartDate, "From", "YYYY-MM-DD"},
	{domain.FilterEndDate, "To", "YYYY-MM-DD"},
}

// Model is the browse screen: four filter inputs over a live invoice list.
//
// Every edit to a filter issues a listing ticket and fetches in a tea.Cmd.
// Answers come back as listedMsg and go through the synchronizer, which
// drops any answer overtaken by a newer keystroke.
type Model struct {
	ctx      context.Context
	listing  *listing.Synchronizer
	exporter *export.Exporter

	inputs []textinput.Model
	focus  int
	cursor int
	rows   []domain.InvoiceSummary

	pending *domain.InvoiceSummary
	status  string
	err     error
}

type listedMsg struct {
	ticket listing.Ticket
	rows   []domain.InvoiceSummary
	err    error
}

type exportedMsg struct {
	result export.Result
	err    error
}

type deletedMsg struct {
	inv     domain.InvoiceSummary
	deleted bool
	err     error
}

func New(ctx context.Context, p Params) *Model {
	inputs := make([]textinput.Model, len(filterInputs))
	for i, f := range filterInputs {
		ti := textinput.New()
		ti.Placeholder = f.placeholder
		ti.Prompt = ""
		ti.CharLimit = 64
		ti.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = ti
	}
	inputs[0].Focus()

	return &Model{
		ctx:      ctx,
		listing:  p.Listing,
		exporter: p.Exporter,
		inputs:   inputs,
	}
}

// Run shows the browse screen until the operator quits.
func Run(ctx context.Context, p Params) error {
	_, err := tea.NewProgram(New(ctx, p), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.query(m.listing.BeginRefresh())
}

func (m *Model) query(t listing.Ticket) tea.Cmd {
	return func() tea.Msg {
		rows, err := m.listing.Fetch(m.ctx, t)
		return listedMsg{ticket: t, rows: rows, err: err}
	}
}

func (m *Model) exportSelected(f domain.Format) tea.Cmd {
	inv, ok := m.selected()
	if !ok {
		return nil
	}
	m.status = fmt.Sprintf("Exporting %s as %s...", inv.InvoiceNo, f)
	return func() tea.Msg {
		res, err := m.exporter.ExportSummary(m.ctx, inv, f)
		return exportedMsg{result: res, err: err}
	}
}

func (m *Model) remove(inv domain.InvoiceSummary) tea.Cmd {
	return func() tea.Msg {
		deleted, err := m.listing.DeleteRecord(m.ctx, inv.ID, listing.Confirmed)
		return deletedMsg{inv: inv, deleted: deleted, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listedMsg:
		err := m.listing.Complete(m.ctx, msg.ticket, msg.rows, msg.err)
		switch {
		case errors.Is(err, domain.ErrStale):
			return m, nil
		case err != nil:
			m.err = err
			return m, nil
		}
		m.err = nil
		m.rows = m.listing.Invoices()
		m.clampCursor()
		return m, nil

	case exportedMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err
			m.status = ""
		default:
			m.err = nil
			m.status = fmt.Sprintf("Exported %s to %s", msg.result.Filename, msg.result.Location)
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if msg.deleted {
			m.status = fmt.Sprintf("Deleted %s", msg.inv.InvoiceNo)
			m.rows = m.listing.Invoices()
			m.clampCursor()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != nil {
		inv := *m.pending
		m.pending = nil
		switch msg.String() {
		case "y", "Y":
			return m, m.remove(inv)
		default:
			m.status = "Delete cancelled"
			return m, nil
		}
	}

	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.moveFocus(1)
		return m, nil
	case "shift+tab":
		m.moveFocus(-1)
		return m, nil
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil
	case "ctrl+p":
		return m, m.exportSelected(domain.FormatPDF)
	case "ctrl+o":
		return m, m.exportSelected(domain.FormatDOCX)
	case "ctrl+d":
		if inv, ok := m.selected(); ok {
			m.pending = &inv
			m.status = ""
		}
		return m, nil
	}

	input := &m.inputs[m.focus]
	before := input.Value()
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	after := input.Value()
	if after == before {
		return m, cmd
	}

	t, err := m.listing.Begin(filterInputs[m.focus].field, after)
	if err != nil {
		m.err = err
		return m, cmd
	}
	return m, tea.Batch(cmd, m.query(t))
}

func (m *Model) moveFocus(delta int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m *Model) selected() (domain.InvoiceSummary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return domain.InvoiceSummary{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Invoices"))
	b.WriteString("\n")

	for i, f := range filterInputs {
		label := labelStyle.Render(f.label)
		if i == m.focus {
			label = selectedStyle.Width(10).Render(f.label)
		}
		b.WriteString(label + " " + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		if m.listing.Loaded() {
			b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render("  No invoices match the filters.") + "\n")
		} else {
			b.WriteString("  Loading...\n")
		}
	} else {
		b.WriteString(headerStyle.Render(rowLine("", "Invoice No", "Customer", "PO No", "Date", "Total")) + "\n")
		for i, inv := range m.rows {
			total := format.Money(inv.Total.Float64())
			if i == m.cursor {
				b.WriteString(selectedStyle.Render(rowLine(">", inv.InvoiceNo, inv.CustomerName, inv.PONo, inv.InvoiceDate, total)) + "\n")
				continue
			}
			b.WriteString(rowLine("", inv.InvoiceNo, inv.CustomerName, inv.PONo, inv.InvoiceDate, total) + "\n")
		}
	}

	switch {
	case m.pending != nil:
		b.WriteString("\n" + confirmStyle.Render(fmt.Sprintf("Delete invoice %s (%s)? y/n", m.pending.InvoiceNo, m.pending.CustomerName)) + "\n")
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	b.WriteString(helpStyle.Render("tab filter • ↑/↓ select • ctrl+p pdf • ctrl+o docx • ctrl+d delete • esc quit"))
	return b.String()
}

func rowLine(marker, no, customer, po, date, total string) string {
	return fmt.Sprintf("%1s %-20s %-28s %-14s %-10s %16s", marker, truncate(no, 20), truncate(customer, 28), truncate(po, 14), date, total)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

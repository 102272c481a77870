package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/smallbiznis/invoicedesk/internal/delivery"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/export"
	"github.com/smallbiznis/invoicedesk/internal/invoice/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu       sync.Mutex
	invoices []domain.InvoiceSummary
	deleted  []domain.ID
	exported []domain.ID
}

func (f *fakeStore) List(_ context.Context, c domain.FilterCriteria) ([]domain.InvoiceSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.InvoiceSummary
	for _, inv := range f.invoices {
		if c.CustomerName != "" && !strings.Contains(strings.ToLower(inv.CustomerName), strings.ToLower(c.CustomerName)) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id domain.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	var kept []domain.InvoiceSummary
	for _, inv := range f.invoices {
		if inv.ID != id {
			kept = append(kept, inv)
		}
	}
	f.invoices = kept
	return nil
}

func (f *fakeStore) Export(_ context.Context, id domain.ID, _ domain.Format) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exported = append(f.exported, id)
	return []byte("%PDF-1.4"), nil
}

func newModel(t *testing.T) (*Model, *fakeStore, string) {
	t.Helper()
	store := &fakeStore{invoices: []domain.InvoiceSummary{
		{ID: "1", InvoiceNo: "INV-1", CustomerName: "Acme Ltd", Total: 2100},
		{ID: "2", InvoiceNo: "INV-2", CustomerName: "Apex", Total: 500},
		{ID: "3", InvoiceNo: "INV-3", CustomerName: "Beta", Total: 300},
	}}
	dir := t.TempDir()
	log := zap.NewNop()
	m := New(context.Background(), Params{
		Listing:  listing.New(listing.Params{Querier: store, Remover: store, Log: log}),
		Exporter: export.New(export.Params{Fetcher: store, Sink: delivery.NewDirSink(dir, log), Log: log}),
	})
	return m, store, dir
}

// drain runs cmd and feeds every resulting message back into the model.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, m, c)
		}
	case tea.QuitMsg:
	default:
		_, next := m.Update(msg)
		drain(t, m, next)
	}
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitLoadsEverything(t *testing.T) {
	m, _, _ := newModel(t)

	drain(t, m, m.Init())

	assert.Len(t, m.rows, 3)
	assert.Contains(t, m.View(), "₦2,100.00")
}

func TestTypingFiltersTheList(t *testing.T) {
	m, _, _ := newModel(t)
	drain(t, m, m.Init())

	drain(t, m, press(m, runes("acme")))

	require.Len(t, m.rows, 1)
	assert.Equal(t, "INV-1", m.rows[0].InvoiceNo)
	assert.Equal(t, "acme", m.listing.Criteria().CustomerName)
}

func TestOlderAnswerDoesNotOverwriteNewer(t *testing.T) {
	m, _, _ := newModel(t)
	drain(t, m, m.Init())

	first := press(m, runes("A"))
	second := press(m, runes("c"))

	// The answer to "Ac" lands before the answer to "A".
	drain(t, m, second)
	drain(t, m, first)

	require.Len(t, m.rows, 1)
	assert.Equal(t, "Acme Ltd", m.rows[0].CustomerName)
	assert.NoError(t, m.err)
}

func TestTabMovesFocusToNextFilter(t *testing.T) {
	m, _, _ := newModel(t)
	drain(t, m, m.Init())

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	drain(t, m, press(m, runes("PO")))

	assert.Equal(t, 1, m.focus)
	assert.Equal(t, "PO", m.listing.Criteria().PONo)
	assert.Empty(t, m.listing.Criteria().CustomerName)

	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 3, m.focus)
}

func TestDeleteAsksFirst(t *testing.T) {
	m, store, _ := newModel(t)
	drain(t, m, m.Init())
	press(m, tea.KeyMsg{Type: tea.KeyDown})

	press(m, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.NotNil(t, m.pending)
	assert.Contains(t, m.View(), "Delete invoice INV-2 (Apex)? y/n")

	drain(t, m, press(m, runes("n")))
	assert.Empty(t, store.deleted)
	assert.Len(t, m.rows, 3)
	assert.Empty(t, m.inputs[0].Value())

	press(m, tea.KeyMsg{Type: tea.KeyCtrlD})
	drain(t, m, press(m, runes("y")))

	assert.Equal(t, []domain.ID{"2"}, store.deleted)
	assert.Len(t, m.rows, 2)
	assert.Equal(t, "Deleted INV-2", m.status)
}

func TestExportSelectedRow(t *testing.T) {
	m, store, dir := newModel(t)
	drain(t, m, m.Init())

	drain(t, m, press(m, tea.KeyMsg{Type: tea.KeyCtrlP}))

	assert.Equal(t, []domain.ID{"1"}, store.exported)
	body, err := os.ReadFile(filepath.Join(dir, "INV-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Contains(t, m.status, "Exported INV-1.pdf")
}

func TestEscQuits(t *testing.T) {
	m, _, _ := newModel(t)

	cmd := press(m, tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

package draft

import (
	"fmt"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"go.uber.org/zap"
)

// Header and item field names accepted by SetField and SetItemField.
const (
	FieldCustomerName    = "customer_name"
	FieldCustomerAddress = "customer_address"
	FieldContractNo      = "contract_no"
	FieldPONo            = "po_no"
	FieldInvoiceDate     = "invoice_date"
	FieldVATDate         = "vat_date"
	FieldVAT             = "vat"
	FieldWHT             = "wht"

	ItemDescription = "description"
	ItemUnit        = "unit"
	ItemQty         = "qty"
	ItemUnitRate    = "unit_rate"
)

// Editor owns the single active draft of an operator session together with
// the reference to the invoice it last saved.
//
// Items are copy-on-write: a slice handed out by Draft is never mutated by
// later edits.
type Editor struct {
	mu       sync.Mutex
	log      *zap.Logger
	policies PolicySource

	draft     domain.Draft
	saved     *domain.SavedInvoiceRef
	revision  uint64
	createKey string
}

type Option func(*Editor)

func WithLogger(log *zap.Logger) Option {
	return func(e *Editor) {
		if log != nil {
			e.log = log.Named("invoice.draft")
		}
	}
}

func WithPolicies(src PolicySource) Option {
	return func(e *Editor) {
		if src != nil {
			e.policies = src
		}
	}
}

func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		log:       zap.NewNop(),
		policies:  StaticPolicies(DefaultPolicies()),
		draft:     domain.NewDraft(),
		createKey: ulid.Make().String(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Draft returns a deep snapshot of the active draft.
func (e *Editor) Draft() domain.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

func (e *Editor) Mode() domain.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Mode
}

func (e *Editor) Saved() (domain.SavedInvoiceRef, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saved == nil {
		return domain.SavedInvoiceRef{}, false
	}
	return *e.saved, true
}

// SavedRef is Saved as a pointer, nil when nothing has been saved.
func (e *Editor) SavedRef() *domain.SavedInvoiceRef {
	ref, ok := e.Saved()
	if !ok {
		return nil
	}
	return &ref
}

func (e *Editor) Subtotal() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Subtotal()
}

func (e *Editor) GrandTotal() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.GrandTotal()
}

// SetField assigns a header field. vat and wht are coerced to numbers.
func (e *Editor) SetField(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := &e.draft.Header
	switch name {
	case FieldCustomerName:
		h.CustomerName = value
	case FieldCustomerAddress:
		h.CustomerAddress = value
	case FieldContractNo:
		h.ContractNo = value
	case FieldPONo:
		h.PONo = value
	case FieldInvoiceDate:
		h.InvoiceDate = value
	case FieldVATDate:
		h.VATDate = value
	case FieldVAT:
		h.VAT = domain.Amount(domain.ParseAmount(value))
	case FieldWHT:
		h.WHT = domain.Amount(domain.ParseAmount(value))
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, name)
	}
	e.revision++
	return nil
}

// SetItemField assigns one field of the item at index. qty and unit_rate
// are coerced to numbers. An out-of-range index panics.
func (e *Editor) SetItemField(index int, field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.checkIndex(index)
	items := slices.Clone(e.draft.Items)
	item := &items[index]
	switch field {
	case ItemDescription:
		item.Description = value
	case ItemUnit:
		item.Unit = value
	case ItemQty:
		item.Qty = domain.Amount(domain.ParseAmount(value))
	case ItemUnitRate:
		item.UnitRate = domain.Amount(domain.ParseAmount(value))
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	e.draft.Items = items
	e.revision++
	return nil
}

// AddItem appends a blank item.
func (e *Editor) AddItem() {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]domain.LineItem, 0, len(e.draft.Items)+1)
	items = append(items, e.draft.Items...)
	e.draft.Items = append(items, domain.BlankItem())
	e.revision++
}

// RemoveItem deletes the item at index. Removing the only item follows the
// configured RemoveLastPolicy; the draft never ends up with zero items.
func (e *Editor) RemoveItem(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.checkIndex(index)
	if len(e.draft.Items) == 1 {
		switch e.policies().RemoveLast {
		case RemoveLastNoop:
			e.log.Debug("remove of last item ignored")
			return
		default:
			e.draft.Items = []domain.LineItem{domain.BlankItem()}
			e.revision++
			return
		}
	}

	items := make([]domain.LineItem, 0, len(e.draft.Items)-1)
	items = append(items, e.draft.Items[:index]...)
	e.draft.Items = append(items, e.draft.Items[index+1:]...)
	e.revision++
}

// Reset discards the draft and the saved ref.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	e.saved = nil
}

func (e *Editor) resetLocked() {
	e.draft = domain.NewDraft()
	e.createKey = ulid.Make().String()
	e.revision++
}

// LoadForEdit replaces the draft with a persisted record and targets it for
// update. It is the only way into editing mode.
func (e *Editor) LoadForEdit(rec domain.Record) error {
	if rec.ID == "" {
		return domain.ErrMissingRecordID
	}

	items := slices.Clone(rec.Items)
	if len(items) == 0 {
		items = []domain.LineItem{domain.BlankItem()}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = domain.Draft{
		Mode:   domain.EditingMode(rec.ID),
		Header: rec.Header,
		Items:  items,
	}
	e.saved = &domain.SavedInvoiceRef{ID: rec.ID, InvoiceNo: rec.InvoiceNo}
	e.revision++
	e.log.Debug("draft loaded for edit", zap.String("invoice_id", rec.ID.String()))
	return nil
}

// Snapshot captures what a save sends, plus the state needed to reconcile
// its answer against later edits.
type Snapshot struct {
	Draft          domain.Draft
	Revision       uint64
	IdempotencyKey string
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Draft:          e.draft.Clone(),
		Revision:       e.revision,
		IdempotencyKey: e.createKey,
	}
}

// ApplySaved reconciles a successful save of snap into the editor.
//
// An update keeps the draft in editing mode. A create follows policy: with
// AfterCreateReset the draft is replaced by a blank one, unless it was
// edited while the save was in flight, in which case it switches to editing
// the new invoice so those edits are not lost. If the editor has since moved
// on to a different draft, only the returned ref reflects the save.
func (e *Editor) ApplySaved(snap Snapshot, ref domain.SavedInvoiceRef, policy AfterCreatePolicy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id, ok := snap.Draft.Mode.Editing(); ok {
		if cur, editing := e.draft.Mode.Editing(); editing && cur == id {
			if ref.ID == "" {
				ref.ID = id
			}
			e.saved = &ref
		}
		return
	}

	if !e.draft.Mode.IsCreate() || e.createKey != snap.IdempotencyKey {
		e.log.Debug("editor moved on before create completed", zap.String("invoice_id", ref.ID.String()))
		return
	}

	if policy == AfterCreateReset && e.revision == snap.Revision {
		e.resetLocked()
		e.saved = &ref
		return
	}

	e.draft.Mode = domain.EditingMode(ref.ID)
	e.saved = &ref
	e.revision++
}

// Revision increases on every change to the draft.
func (e *Editor) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

func (e *Editor) checkIndex(index int) {
	if index < 0 || index >= len(e.draft.Items) {
		panic(fmt.Sprintf("draft: item index %d out of range [0,%d)", index, len(e.draft.Items)))
	}
}

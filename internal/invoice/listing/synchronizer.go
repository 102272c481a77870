package listing

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Querier domain.InvoiceQuerier
	Remover domain.InvoiceRemover
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// Synchronizer keeps the invoice listing in step with the filter criteria.
//
// Every query is issued with a token from a monotonically increasing
// sequence. An answer is applied only when its token is still the newest
// issued, so a slow response to an old filter never overwrites a newer one.
type Synchronizer struct {
	querier domain.InvoiceQuerier
	remover domain.InvoiceRemover
	log     *zap.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	criteria domain.FilterCriteria
	invoices []domain.InvoiceSummary
	issued   uint64
	applied  uint64

	// deleted maps an id removed here to the newest token issued at the
	// time, so answers to queries already in flight cannot bring it back.
	deleted map[domain.ID]uint64
}

func New(p Params) *Synchronizer {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		querier: p.Querier,
		remover: p.Remover,
		log:     log.Named("invoice.listing"),
		metrics: p.Metrics,
		deleted: map[domain.ID]uint64{},
	}
}

// Ticket is one issued query.
type Ticket struct {
	Token    uint64
	Criteria domain.FilterCriteria
}

// Begin updates one criterion and issues a query ticket for the new
// criteria. The caller runs Fetch and hands the answer to Complete.
func (s *Synchronizer) Begin(field, value string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.criteria.Set(field, value); err != nil {
		return Ticket{}, fmt.Errorf("%w: %q", err, field)
	}
	return s.issueLocked(), nil
}

// BeginAll replaces all criteria and issues a query ticket.
func (s *Synchronizer) BeginAll(criteria domain.FilterCriteria) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = criteria
	return s.issueLocked()
}

// BeginRefresh issues a ticket for the current criteria.
func (s *Synchronizer) BeginRefresh() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked()
}

func (s *Synchronizer) issueLocked() Ticket {
	s.issued++
	return Ticket{Token: s.issued, Criteria: s.criteria}
}

// Fetch runs the ticket's query without touching local state.
func (s *Synchronizer) Fetch(ctx context.Context, t Ticket) ([]domain.InvoiceSummary, error) {
	return s.querier.List(ctx, t.Criteria)
}

// Complete applies the answer to t. A superseded ticket yields ErrStale and
// changes nothing, whatever the answer was. A failed query yields a
// KindQueryFailed OpError and keeps the last good listing.
func (s *Synchronizer) Complete(ctx context.Context, t Ticket, result []domain.InvoiceSummary, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Token != s.issued {
		s.metrics.RecordStaleResponse(ctx)
		s.log.Debug("stale listing response dropped",
			zap.Uint64("token", t.Token),
			zap.Uint64("latest", s.issued),
		)
		return domain.ErrStale
	}
	if err != nil {
		s.log.Warn("listing query failed", zap.Error(err))
		return &domain.OpError{Kind: domain.KindQueryFailed, Err: err}
	}
	s.invoices = slices.DeleteFunc(slices.Clone(result), func(inv domain.InvoiceSummary) bool {
		at, ok := s.deleted[inv.ID]
		return ok && t.Token <= at
	})
	s.applied = t.Token
	for id, at := range s.deleted {
		if t.Token > at {
			delete(s.deleted, id)
		}
	}
	return nil
}

// SetFilter updates one criterion and re-queries once.
func (s *Synchronizer) SetFilter(ctx context.Context, field, value string) error {
	t, err := s.Begin(field, value)
	if err != nil {
		return err
	}
	return s.run(ctx, t)
}

// ApplyFilters replaces the criteria and re-queries once.
func (s *Synchronizer) ApplyFilters(ctx context.Context, criteria domain.FilterCriteria) error {
	return s.run(ctx, s.BeginAll(criteria))
}

// Refresh re-queries with the current criteria.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	return s.run(ctx, s.BeginRefresh())
}

func (s *Synchronizer) run(ctx context.Context, t Ticket) error {
	result, err := s.Fetch(ctx, t)
	return s.Complete(ctx, t, result, err)
}

// Invoices returns a snapshot of the current listing.
func (s *Synchronizer) Invoices() []domain.InvoiceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.invoices)
}

func (s *Synchronizer) Criteria() domain.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Loaded reports whether any query has been applied yet.
func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied > 0
}

func (s *Synchronizer) Find(id domain.ID) (domain.InvoiceSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return domain.InvoiceSummary{}, false
}

// DeleteRecord removes an invoice after the operator confirms. It reports
// whether a delete happened. An empty id, a nil confirm or a declined
// confirmation is a no-op; a failed delete leaves the listing unchanged.
func (s *Synchronizer) DeleteRecord(ctx context.Context, id domain.ID, confirm Confirmer) (bool, error) {
	if id == "" {
		return false, nil
	}
	if confirm == nil {
		s.metrics.RecordDelete(ctx, "declined")
		return false, nil
	}

	prompt := fmt.Sprintf("Delete invoice %s?", id)
	if inv, ok := s.Find(id); ok && inv.InvoiceNo != "" {
		prompt = fmt.Sprintf("Delete invoice %s (%s)?", inv.InvoiceNo, inv.CustomerName)
	}
	ok, err := confirm.Confirm(ctx, prompt)
	if err != nil {
		return false, &domain.OpError{Kind: domain.KindDeleteFailed, Err: err}
	}
	if !ok {
		s.metrics.RecordDelete(ctx, "declined")
		return false, nil
	}

	if err := s.remover.Delete(ctx, id); err != nil {
		s.metrics.RecordDelete(ctx, "failed")
		s.log.Warn("delete failed", zap.String("invoice_id", id.String()), zap.Error(err))
		return false, &domain.OpError{Kind: domain.KindDeleteFailed, Err: err}
	}

	s.mu.Lock()
	s.deleted[id] = s.issued
	s.invoices = slices.DeleteFunc(slices.Clone(s.invoices), func(inv domain.InvoiceSummary) bool {
		return inv.ID == id
	})
	s.mu.Unlock()

	s.metrics.RecordDelete(ctx, "ok")
	s.log.Info("invoice deleted", zap.String("invoice_id", id.String()))
	return true, nil
}

package reconcile

import (
	"context"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/draft"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Writer   domain.InvoiceWriter
	Log      *zap.Logger
	Metrics  *metrics.Metrics   `optional:"true"`
	Policies draft.PolicySource `optional:"true"`
}

// Service persists the editor's draft and folds the store's answer back
// into the editor.
type Service struct {
	writer   domain.InvoiceWriter
	log      *zap.Logger
	metrics  *metrics.Metrics
	policies draft.PolicySource
}

func New(p Params) *Service {
	policies := p.Policies
	if policies == nil {
		policies = draft.StaticPolicies(draft.DefaultPolicies())
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		writer:   p.Writer,
		log:      log.Named("invoice.reconcile"),
		metrics:  p.Metrics,
		policies: policies,
	}
}

// Save sends the draft as an update when editing and as a create otherwise.
// On failure the editor is left untouched and the error is a KindSaveFailed
// OpError.
func (s *Service) Save(ctx context.Context, ed *draft.Editor) (domain.SavedInvoiceRef, error) {
	snap := ed.Snapshot()
	id, editing := snap.Draft.Mode.Editing()
	mode := "create"
	if editing {
		mode = "update"
	}

	if strings.TrimSpace(snap.Draft.CustomerName) == "" {
		s.metrics.RecordSave(ctx, mode, "rejected")
		return domain.SavedInvoiceRef{}, &domain.OpError{Kind: domain.KindSaveFailed, Err: domain.ErrMissingCustomerName}
	}

	payload := snap.Draft.Payload()
	var (
		res domain.SaveResult
		err error
	)
	if editing {
		res, err = s.writer.Update(ctx, id, payload)
	} else {
		res, err = s.writer.Create(ctx, payload, snap.IdempotencyKey)
	}
	if err != nil {
		s.metrics.RecordSave(ctx, mode, "failed")
		s.log.Warn("save failed", zap.String("mode", mode), zap.Error(err))
		return domain.SavedInvoiceRef{}, &domain.OpError{Kind: domain.KindSaveFailed, Err: err}
	}

	ref := domain.SavedInvoiceRef{ID: res.InvoiceID, InvoiceNo: res.InvoiceNo}
	if editing && ref.ID == "" {
		ref.ID = id
	}
	ed.ApplySaved(snap, ref, s.policies().AfterCreate)

	s.metrics.RecordSave(ctx, mode, "ok")
	s.log.Info("invoice saved",
		zap.String("mode", mode),
		zap.String("invoice_id", ref.ID.String()),
		zap.String("invoice_no", ref.InvoiceNo),
	)
	return ref, nil
}

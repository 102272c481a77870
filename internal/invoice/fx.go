package invoice

import (
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice/draft"
	"github.com/smallbiznis/invoicedesk/internal/invoice/export"
	"github.com/smallbiznis/invoicedesk/internal/invoice/listing"
	"github.com/smallbiznis/invoicedesk/internal/invoice/reconcile"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("invoice",
	fx.Provide(
		NewPolicySource,
		NewEditorFactory,
		reconcile.New,
		listing.New,
		export.New,
	),
)

// EditorFactory starts a fresh editing session.
type EditorFactory func() *draft.Editor

// NewPolicySource reads the hot-reloaded policy file on every call.
func NewPolicySource(holder *config.PolicyHolder) draft.PolicySource {
	return func() draft.Policies {
		p := holder.Get()
		return draft.PoliciesFromConfig(p.RemoveLast, p.AfterCreate)
	}
}

func NewEditorFactory(log *zap.Logger, policies draft.PolicySource) EditorFactory {
	return func() *draft.Editor {
		return draft.NewEditor(draft.WithLogger(log), draft.WithPolicies(policies))
	}
}

package cli

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

// Describe turns a command error into the line shown to the operator.
func Describe(err error) string {
	var op *domain.OpError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrUnauthorized):
		return "not logged in or the session expired; run `invoicedesk login`"
	case errors.Is(err, session.ErrMissingCredentials):
		return "username and password are required"
	case errors.Is(err, domain.ErrNotFound):
		return "invoice not found"
	case errors.As(err, &op):
		if op.Status() != 0 {
			return fmt.Sprintf("%s (HTTP %d): %s", op.Kind, op.Status(), op.Diagnostic())
		}
		return err.Error()
	default:
		return err.Error()
	}
}

package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrNotSuperuser       = errors.New("not_superuser")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrRateLimited        = errors.New("rate_limited")

	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrInvalidInvoiceID    = errors.New("invalid_invoice_id")
	ErrMissingCustomerName = errors.New("missing_customer_name")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrUnsupportedFormat   = errors.New("unsupported_format")
)

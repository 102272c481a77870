package client

import (
	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("recordstore.client",
	fx.Provide(New),
	fx.Provide(
		func(c *Client) domain.InvoiceWriter { return c },
		func(c *Client) domain.InvoiceReader { return c },
		func(c *Client) domain.InvoiceQuerier { return c },
		func(c *Client) domain.InvoiceRemover { return c },
		func(c *Client) domain.DocumentFetcher { return c },
		func(c *Client) session.TokenIssuer { return c },
	),
)

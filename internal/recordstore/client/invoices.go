package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

var _ domain.RecordStore = (*Client)(nil)

// Create posts a new invoice. The idempotency key lets the store answer a
// retried create with the invoice it already made.
func (c *Client) Create(ctx context.Context, payload domain.Payload, idempotencyKey string) (domain.SaveResult, error) {
	resp, err := c.do(ctx, request{
		op:             "create",
		method:         http.MethodPost,
		path:           "/invoices",
		body:           payload,
		idempotencyKey: idempotencyKey,
	})
	if err != nil {
		return domain.SaveResult{}, err
	}
	var out domain.SaveResult
	if err := decode(resp, &out); err != nil {
		return domain.SaveResult{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id domain.ID, payload domain.Payload) (domain.SaveResult, error) {
	resp, err := c.do(ctx, request{
		op:     "update",
		method: http.MethodPut,
		path:   "/invoices/" + url.PathEscape(id.String()),
		body:   payload,
	})
	if err != nil {
		return domain.SaveResult{}, err
	}
	var out domain.SaveResult
	if err := decode(resp, &out); err != nil {
		return domain.SaveResult{}, err
	}
	if out.InvoiceID == "" {
		out.InvoiceID = id
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id domain.ID) (domain.Record, error) {
	resp, err := c.do(ctx, request{
		op:     "get",
		method: http.MethodGet,
		path:   "/invoices/" + url.PathEscape(id.String()),
	})
	if err != nil {
		return domain.Record{}, err
	}
	var out domain.Record
	if err := decode(resp, &out); err != nil {
		return domain.Record{}, err
	}
	return out, nil
}

// List accepts either a bare array or a {"data": [...]} envelope.
func (c *Client) List(ctx context.Context, criteria domain.FilterCriteria) ([]domain.InvoiceSummary, error) {
	resp, err := c.do(ctx, request{
		op:     "list",
		method: http.MethodGet,
		path:   "/invoices",
		query:  criteria.Query(),
	})
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.body)
	if len(body) > 0 && body[0] == '{' {
		var env struct {
			Data []domain.InvoiceSummary `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode record store response: %w", err)
		}
		return env.Data, nil
	}
	var out []domain.InvoiceSummary
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id domain.ID) error {
	_, err := c.do(ctx, request{
		op:     "delete",
		method: http.MethodDelete,
		path:   "/invoices/" + url.PathEscape(id.String()),
	})
	return err
}

// Export downloads the rendered document bytes.
func (c *Client) Export(ctx context.Context, id domain.ID, format domain.Format) ([]byte, error) {
	resp, err := c.do(ctx, request{
		op:     "export",
		method: http.MethodGet,
		path:   "/invoices/" + url.PathEscape(id.String()) + "/export/" + string(format),
	})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

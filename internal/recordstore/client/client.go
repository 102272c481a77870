package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

type Params struct {
	fx.In

	Config      config.Config
	Credentials session.Source
	Log         *zap.Logger
	Metrics     *metrics.Metrics `optional:"true"`
	HTTPClient  *http.Client     `optional:"true"`
}

// Client talks to the invoice record store over HTTP. Every request except
// the token exchange carries the bearer credential from the session source.
type Client struct {
	base    *url.URL
	http    *http.Client
	creds   session.Source
	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(p Params) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(p.Config.RecordStoreURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid record store url %q", p.Config.RecordStoreURL)
	}
	httpClient := p.HTTPClient
	if httpClient == nil {
		timeout := p.Config.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:    base,
		http:    httpClient,
		creds:   p.Credentials,
		log:     log.Named("recordstore.client"),
		metrics: p.Metrics,
		tracer:  otel.Tracer("invoicedesk/recordstore/client"),
	}, nil
}

type request struct {
	op             string
	method         string
	path           string
	query          url.Values
	body           any
	idempotencyKey string
	anonymous      bool
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends req, refreshing the credential once on 401 when a refresh
// token is available.
func (c *Client) do(ctx context.Context, req request) (response, error) {
	if req.anonymous {
		return c.send(ctx, req, "")
	}

	cred, err := c.creds.Credential(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoCredential) {
			return response{}, fmt.Errorf("%w: not logged in", domain.ErrUnauthorized)
		}
		return response{}, err
	}

	resp, err := c.send(ctx, req, cred.Access)
	if !errors.Is(err, domain.ErrUnauthorized) || cred.Refresh == "" {
		return resp, err
	}

	access, refreshErr := c.RefreshToken(ctx, cred.Refresh)
	if refreshErr != nil {
		c.log.Debug("token refresh failed", zap.Error(refreshErr))
		return resp, err
	}
	cred.Access = access
	cred.ObtainedAt = time.Now().UTC()
	if saveErr := c.creds.Save(ctx, cred); saveErr != nil {
		c.log.Warn("refreshed credential not saved", zap.Error(saveErr))
	}
	return c.send(ctx, req, access)
}

func (c *Client) send(ctx context.Context, req request, bearer string) (response, error) {
	ctx, span := c.tracer.Start(ctx, "recordstore."+req.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	target := c.base.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}
	// JoinPath drops a trailing slash the store routes rely on.
	if strings.HasSuffix(req.path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return response{}, err
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return response{}, err
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(logger.RequestIDHeader, requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.idempotencyKey)
	}
	tracing.InjectContext(ctx, propagation.HeaderCarrier(httpReq.Header))

	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("http.method", req.method),
		attribute.String("request_id", requestID),
		attribute.String("operation", req.op),
	)...)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordStoreRequest(ctx, req.op, 0, time.Since(start))
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "transport error")
		c.log.Debug("record store request failed",
			zap.String("op", req.op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.RecordStoreRequest(ctx, req.op, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.log.Debug("record store request",
		zap.String("op", req.op),
		zap.String("method", req.method),
		zap.String("path", target.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return response{status: resp.StatusCode}, domain.NewStatusError(resp.StatusCode, data)
	}
	return response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func decode(resp response, out any) error {
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode record store response: %w", err)
	}
	return nil
}

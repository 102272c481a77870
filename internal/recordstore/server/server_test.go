package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/providers/document"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/auth"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/render"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/repository"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/service"
	"github.com/smallbiznis/invoicedesk/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticProvider []byte

func (p staticProvider) GenerateInvoice(context.Context, document.Invoice) ([]byte, error) {
	return p, nil
}

type harness struct {
	engine *gin.Engine
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t, domain.Models()...)
	repo := repository.Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, repo.InsertUser(context.Background(), db, &domain.User{
		ID: node.Generate(), Username: "admin", PasswordHash: hash, IsSuperuser: true, CreatedAt: now, UpdatedAt: now,
	}))

	issuer, err := auth.NewIssuer("secret", time.Minute, time.Hour)
	require.NoError(t, err)
	cfg := config.Config{InvoiceNumberTemplate: "INV-{SEQ3}"}

	engine := NewEngine(zap.NewNop(), observability.Config{}, obsmetrics.NewHTTPMetrics(prometheus.NewRegistry()))
	NewServer(Params{
		Engine: engine,
		Config: cfg,
		Log:    zap.NewNop(),
		Auth:   auth.NewService(auth.Params{DB: db, Log: zap.NewNop(), Repo: repo, Issuer: issuer}),
		Invoices: service.NewService(service.Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: node,
			Repo:  repo,
			Renderer: render.New(render.Params{
				PDF:  staticProvider("%PDF-1.4"),
				DOCX: staticProvider("PK"),
				Log:  zap.NewNop(),
			}),
			Config: cfg,
		}),
	})

	h := &harness{engine: engine}
	rec := h.do(t, http.MethodPost, "/api/token/", map[string]string{"username": "admin", "password": "pw"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	h.token = tok.Access
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func invoiceBody(customer string) map[string]any {
	return map[string]any{
		"customer_name": customer,
		"invoice_date":  "2024-05-01",
		"vat":           "150",
		"wht":           50,
		"items": []map[string]any{
			{"description": "A", "qty": 2, "unit_rate": "500"},
			{"description": "B", "qty": "1", "unit_rate": 1000},
		},
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/invoices", invoiceBody("Acme"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved struct {
		InvoiceID string `json:"invoice_id"`
		InvoiceNo string `json:"invoice_no"`
		Total     string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotEmpty(t, saved.InvoiceID)
	assert.Equal(t, "INV-001", saved.InvoiceNo)
	assert.Equal(t, "2100.00", saved.Total)

	rec = h.do(t, http.MethodGet, "/api/invoices/"+saved.InvoiceID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got invoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Acme", got.CustomerName)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "2000.00", got.Subtotal)

	update := invoiceBody("Acme Ltd")
	rec = h.do(t, http.MethodPut, "/api/invoices/"+saved.InvoiceID, update, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/invoices/"+saved.InvoiceID+"/export/pdf", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "INV-001.pdf")
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = h.do(t, http.MethodDelete, "/api/invoices/"+saved.InvoiceID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/invoices/"+saved.InvoiceID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"not_found"`)
}

func TestListFiltersByCustomer(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"Acme", "Globex", "acme east"} {
		rec := h.do(t, http.MethodPost, "/api/invoices", invoiceBody(name), nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := h.do(t, http.MethodGet, "/api/invoices?customer_name=Acme", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []invoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)

	rec = h.do(t, http.MethodGet, "/api/invoices", nil, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "acme east", rows[0].CustomerName)
}

func TestCreateIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	header := http.Header{"Idempotency-Key": []string{"k-1"}}

	first := h.do(t, http.MethodPost, "/api/invoices", invoiceBody("Acme"), header)
	second := h.do(t, http.MethodPost, "/api/invoices", invoiceBody("Acme"), header)
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)

	var a, b saveResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.InvoiceID, b.InvoiceID)
}

func TestValidationAndAuthErrors(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/invoices", invoiceBody(""), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer_name")

	rec = h.do(t, http.MethodGet, "/api/invoices/1/export/odt", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.token = ""
	rec = h.do(t, http.MethodGet, "/api/invoices", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/token/", map[string]string{"username": "admin", "password": "bad"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h.token = "not-a-jwt"
	rec = h.do(t, http.MethodGet, "/api/invoices", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	h := newHarness(t)
	h.token = ""
	rec := h.do(t, http.MethodPost, "/api/token/", map[string]string{"username": "admin", "password": "pw"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pair tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))

	rec = h.do(t, http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": pair.Refresh}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.Access)

	rec = h.do(t, http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": pair.Access}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

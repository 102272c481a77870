package e2e

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"github.com/smallbiznis/invoicedesk/internal/cache"
	"github.com/smallbiznis/invoicedesk/internal/cli"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/delivery"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	"github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/draft"
	"github.com/smallbiznis/invoicedesk/internal/invoice/export"
	"github.com/smallbiznis/invoicedesk/internal/invoice/listing"
	"github.com/smallbiznis/invoicedesk/internal/invoice/reconcile"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	"github.com/smallbiznis/invoicedesk/internal/ratelimit"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/auth"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/client"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/render"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/repository"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/server"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/service"
	"github.com/smallbiznis/invoicedesk/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	adminUser     = "admin"
	adminPassword = "e2e-password"
)

type testEnv struct {
	baseURL   string
	exportDir string

	session   *session.Store
	client    *client.Client
	newEditor invoice.EditorFactory
	reconcile *reconcile.Service
	listing   *listing.Synchronizer
	exporter  *export.Exporter
}

// startEnv runs a record store on a private in-memory database behind
// httptest and builds the operator client graph against it.
func startEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AUTH_JWT_SECRET", "e2e-secret")
	t.Setenv("BOOTSTRAP_SUPERUSER", adminUser)
	t.Setenv("BOOTSTRAP_PASSWORD", adminPassword)
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOGIN_BURST", "100")
	t.Setenv("SESSION_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("DELIVERY_TARGET", "dir:"+filepath.Join(dir, "exports"))

	var engine *gin.Engine
	store := fx.New(
		fx.NopLogger,
		fx.Supply(dbtest.New(t)),
		config.Module,
		observability.Module,
		clock.Module,
		cache.Module,
		ratelimit.Module,
		providers.Module,
		fx.Provide(repository.Provide),
		service.Module,
		migration.Module,
		auth.Module,
		render.Module,
		fx.Provide(func() (*snowflake.Node, error) { return snowflake.NewNode(1) }),
		fx.Provide(func(log *zap.Logger, obsCfg observability.Config) *gin.Engine {
			return server.NewEngine(log, obsCfg, obsmetrics.NewHTTPMetrics(prometheus.NewRegistry()))
		}),
		fx.Invoke(server.NewServer),
		fx.Populate(&engine),
	)
	startApp(t, store)

	httpSrv := httptest.NewServer(engine)
	t.Cleanup(httpSrv.Close)

	env := &testEnv{
		baseURL:   httpSrv.URL,
		exportDir: filepath.Join(dir, "exports"),
	}
	clientApp := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		observability.TerminalDefaults,
		session.Module,
		client.Module,
		delivery.Module,
		invoice.Module,
		fx.Decorate(func(cfg config.Config) config.Config {
			cfg.RecordStoreURL = env.storeURL()
			return cfg
		}),
		fx.Populate(&env.session, &env.client, &env.newEditor, &env.reconcile, &env.listing, &env.exporter),
	)
	startApp(t, clientApp)
	return env
}

func startApp(t *testing.T, app *fx.App) {
	t.Helper()
	require.NoError(t, app.Err())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})
}

func (e *testEnv) storeURL() string { return e.baseURL + "/api" }

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	_, err := session.Login(context.Background(), e.client, e.session, adminUser, adminPassword)
	require.NoError(t, err)
}

// scenarioEditor holds the worked example: 2 x 500 and 1 x 1000 with VAT
// 150 and WHT 50.
func (e *testEnv) scenarioEditor(t *testing.T, customer string) *draft.Editor {
	t.Helper()
	ed := e.newEditor()
	require.NoError(t, ed.SetField(draft.FieldCustomerName, customer))
	require.NoError(t, ed.SetField(draft.FieldInvoiceDate, "2024-05-01"))
	require.NoError(t, ed.SetField(draft.FieldVAT, "150"))
	require.NoError(t, ed.SetField(draft.FieldWHT, "50"))
	require.NoError(t, ed.SetItemField(0, draft.ItemDescription, "Widget"))
	require.NoError(t, ed.SetItemField(0, draft.ItemQty, "2"))
	require.NoError(t, ed.SetItemField(0, draft.ItemUnitRate, "500"))
	ed.AddItem()
	require.NoError(t, ed.SetItemField(1, draft.ItemDescription, "Service"))
	require.NoError(t, ed.SetItemField(1, draft.ItemUnitRate, "1000"))
	return ed
}

func TestE2E_HealthCheck(t *testing.T) {
	env := startEnv(t)

	resp, err := http.Get(env.baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_RequestsWithoutLoginAreUnauthorized(t *testing.T) {
	env := startEnv(t)

	err := env.listing.Refresh(context.Background())

	assert.True(t, domain.IsKind(err, domain.KindQueryFailed))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestE2E_SaveRoundTrip(t *testing.T) {
	env := startEnv(t)
	env.login(t)
	ctx := context.Background()

	ed := env.scenarioEditor(t, "Acme")
	assert.Equal(t, 2000.0, ed.Subtotal())
	assert.Equal(t, 2100.0, ed.GrandTotal())

	ref, err := env.reconcile.Save(ctx, ed)
	require.NoError(t, err)
	require.NotEmpty(t, ref.ID)
	assert.True(t, strings.HasPrefix(ref.InvoiceNo, "INV-"), ref.InvoiceNo)

	rec, err := env.client.Get(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, 2100.0, rec.Total.Float64())
	require.Len(t, rec.Items, 2)

	edit := env.newEditor()
	require.NoError(t, edit.LoadForEdit(rec))
	assert.Equal(t, 2000.0, edit.Subtotal())
	assert.Equal(t, 2100.0, edit.GrandTotal())

	require.NoError(t, edit.SetField(draft.FieldCustomerName, "Acme Ltd"))
	updated, err := env.reconcile.Save(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, ref.ID, updated.ID)
	assert.Equal(t, ref.InvoiceNo, updated.InvoiceNo)

	rec, err = env.client.Get(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", rec.CustomerName)
}

func TestE2E_MissingCustomerNameNeverReachesStore(t *testing.T) {
	env := startEnv(t)
	env.login(t)

	_, err := env.reconcile.Save(context.Background(), env.newEditor())

	assert.True(t, domain.IsKind(err, domain.KindSaveFailed))
	assert.ErrorIs(t, err, domain.ErrMissingCustomerName)
	require.NoError(t, env.listing.Refresh(context.Background()))
	assert.Empty(t, env.listing.Invoices())
}

func TestE2E_FilterPartialMatch(t *testing.T) {
	env := startEnv(t)
	env.login(t)
	ctx := context.Background()

	for _, name := range []string{"Acme Ltd", "Beta", "ACME Corp"} {
		_, err := env.reconcile.Save(ctx, env.scenarioEditor(t, name))
		require.NoError(t, err)
	}

	require.NoError(t, env.listing.SetFilter(ctx, domain.FilterCustomerName, "Acme"))
	got := env.listing.Invoices()
	require.Len(t, got, 2)
	for _, inv := range got {
		assert.Contains(t, strings.ToLower(inv.CustomerName), "acme")
		assert.Equal(t, 2100.0, inv.Total.Float64())
	}

	require.NoError(t, env.listing.ApplyFilters(ctx, domain.FilterCriteria{}))
	all := env.listing.Invoices()
	require.Len(t, all, 3)
	assert.Equal(t, "ACME Corp", all[0].CustomerName)
}

func TestE2E_Export(t *testing.T) {
	env := startEnv(t)
	env.login(t)
	ctx := context.Background()

	res, err := env.exporter.RequestExport(ctx, nil, domain.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, export.Result{}, res)

	ref, err := env.reconcile.Save(ctx, env.scenarioEditor(t, "Acme"))
	require.NoError(t, err)

	res, err = env.exporter.RequestExport(ctx, &ref, domain.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.exportDir, ref.InvoiceNo+".pdf"), res.Location)
	body, err := os.ReadFile(res.Location)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	res, err = env.exporter.RequestExport(ctx, &ref, domain.FormatDOCX)
	require.NoError(t, err)
	body, err = os.ReadFile(res.Location)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestE2E_DeleteNeedsConfirmation(t *testing.T) {
	env := startEnv(t)
	env.login(t)
	ctx := context.Background()

	ref, err := env.reconcile.Save(ctx, env.scenarioEditor(t, "Acme"))
	require.NoError(t, err)
	require.NoError(t, env.listing.Refresh(ctx))

	declined := listing.ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	deleted, err := env.listing.DeleteRecord(ctx, ref.ID, declined)
	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = env.client.Get(ctx, ref.ID)
	require.NoError(t, err)

	deleted, err = env.listing.DeleteRecord(ctx, ref.ID, listing.Confirmed)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, env.listing.Invoices())

	_, err = env.client.Get(ctx, ref.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

var savedID = regexp.MustCompile(`\(id (\d+)\)`)

func TestE2E_CommandLine(t *testing.T) {
	env := startEnv(t)

	run := func(stdin string, args ...string) string {
		t.Helper()
		var out bytes.Buffer
		app := cli.NewApp()
		app.Reader = strings.NewReader(stdin)
		app.Writer = &out
		app.ErrWriter = &out
		argv := append([]string{"invoicedesk", "--store", env.storeURL()}, args...)
		require.NoError(t, app.RunContext(context.Background(), argv), out.String())
		return out.String()
	}

	out := run(adminUser+"\n"+adminPassword+"\n", "login")
	assert.Contains(t, out, "Logged in as admin")

	draftPath := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(draftPath, []byte(`
customer_name: Acme
invoice_date: 2024-05-01
vat: 150
wht: 50
items:
  - description: Widget
    qty: 2
    unit_rate: 500
  - description: Service
    unit_rate: 1000
`), 0o600))

	out = run("", "new", "--file", draftPath, "--export", "pdf")
	assert.Contains(t, out, "Total:    ₦2,100.00")
	m := savedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]
	assert.Contains(t, out, "Exported ")

	out = run("", "edit", id, "--set", "po_no=PO-9", "--item-set", "2.qty=2")
	assert.Contains(t, out, "Total:    ₦3,100.00")

	out = run("", "list", "--customer", "acme")
	assert.Contains(t, out, "₦3,100.00")
	assert.Contains(t, out, "PO-9")

	xlsx := filepath.Join(t.TempDir(), "invoices.xlsx")
	out = run("", "list", "--xlsx", xlsx)
	assert.Contains(t, out, "Wrote 1 invoices")
	_, err := os.Stat(xlsx)
	require.NoError(t, err)

	out = run("", "export", id, "--format", "docx")
	assert.Contains(t, out, ".docx")

	out = run("n\n", "delete", id)
	assert.Contains(t, out, "Nothing deleted")
	out = run("", "delete", id, "--yes")
	assert.Contains(t, out, "Deleted invoice "+id)

	out = run("", "logout")
	assert.Contains(t, out, "Logged out")

	app := cli.NewApp()
	app.Writer = &bytes.Buffer{}
	err = app.RunContext(context.Background(), []string{"invoicedesk", "--store", env.storeURL(), "list"})
	require.Error(t, err)
	assert.Contains(t, cli.Describe(err), "invoicedesk login")
}

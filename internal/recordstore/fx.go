package recordstore

import (
	"github.com/smallbiznis/invoicedesk/internal/cache"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	"github.com/smallbiznis/invoicedesk/internal/ratelimit"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/auth"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/render"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/repository"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/server"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/service"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
)

// Module wires the reference record store: database, rendering, auth and
// the HTTP API.
var Module = fx.Module("recordstore",
	db.Module,
	clock.Module,
	cache.Module,
	ratelimit.Module,
	providers.Module,
	fx.Provide(repository.Provide),
	service.Module,
	migration.Module,
	auth.Module,
	render.Module,
	server.Module,
)

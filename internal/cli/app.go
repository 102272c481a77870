package cli

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/delivery"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	"github.com/smallbiznis/invoicedesk/internal/invoice/export"
	"github.com/smallbiznis/invoicedesk/internal/invoice/listing"
	"github.com/smallbiznis/invoicedesk/internal/invoice/reconcile"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/client"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const stopTimeout = 5 * time.Second

// NewApp builds the operator command line.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "invoicedesk",
		Usage: "create, list, edit, export and delete invoices kept in the record store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "record store base url, e.g. http://localhost:8080/api",
			},
			&cli.StringFlag{
				Name:  "session-file",
				Usage: "where the access token is kept",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			listCommand(),
			newCommand(),
			editCommand(),
			deleteCommand(),
			exportCommand(),
			browseCommand(),
		},
	}
}

// deps is what a command needs from the client graph.
type deps struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Session   *session.Store
	Client    *client.Client
	NewEditor invoice.EditorFactory
	Reconcile *reconcile.Service
	Listing   *listing.Synchronizer
	Exporter  *export.Exporter
}

// withDeps starts the client graph for the duration of fn.
func withDeps(c *cli.Context, fn func(ctx context.Context, d deps) error) error {
	var d deps
	opts := []fx.Option{
		fx.NopLogger,
		config.Module,
		observability.Module,
		observability.TerminalDefaults,
		session.Module,
		client.Module,
		delivery.Module,
		invoice.Module,
		fx.Invoke(func(in deps) { d = in }),
	}
	if o := overrides(c); o != nil {
		opts = append(opts, o)
	}

	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := c.Context
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(ctx, d)
}

// overrides applies the global flags on top of the loaded configuration.
func overrides(c *cli.Context) fx.Option {
	store := strings.TrimSpace(c.String("store"))
	sessionFile := strings.TrimSpace(c.String("session-file"))
	if store == "" && sessionFile == "" {
		return nil
	}
	return fx.Decorate(func(cfg config.Config) config.Config {
		if store != "" {
			cfg.RecordStoreURL = strings.TrimRight(store, "/")
		}
		if sessionFile != "" {
			cfg.SessionFile = sessionFile
		}
		return cfg
	})
}

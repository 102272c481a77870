package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, cfg config.Config, log *zap.Logger) error {
		ctx := context.Background()
		if err := RunMigrations(ctx, conn); err != nil {
			return err
		}
		if cfg.BootstrapUsername == "" {
			log.Named("migrations").Info("no bootstrap superuser configured")
			return nil
		}
		return seed.EnsureSuperuser(ctx, conn, node, cfg.BootstrapUsername, cfg.BootstrapPassword)
	}),
)

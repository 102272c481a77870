package db

import (
	"errors"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/config"
)

// Config carries the connection pool settings applied after open.
type Config struct {
	Type            string
	Name            string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime time.Duration
	Metrics         bool
}

func ConfigFrom(cfg config.Config) Config {
	name := cfg.DBName
	if cfg.DBType == "sqlite" || cfg.DBType == "" {
		name = cfg.DBSQLitePath
	}
	return Config{
		Type:            cfg.DBType,
		Name:            name,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Second,
		Metrics:         cfg.DBMetrics,
	}
}

var ErrUnsupportedDriver = errors.New("unsupported_database_type")

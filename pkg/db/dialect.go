package db

import (
	"fmt"
	"net/url"
	"strings"

	puresqlite "github.com/glebarez/sqlite"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the gorm driver for DATABASE_TYPE. "sqlite" is the pure Go
// driver; "sqlite3" links the cgo one.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "", "sqlite":
		return puresqlite.Open(sqliteDSN(cfg.DBSQLitePath)), nil
	case "sqlite3":
		return cgosqlite.Open(sqliteDSN(cfg.DBSQLitePath)), nil
	case "mysql":
		return mysql.Open(mysqlDSN(cfg)), nil
	case "postgres":
		return postgres.Open(postgresDSN(cfg)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.DBType)
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "recordstore.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func mysqlDSN(cfg config.Config) string {
	q := url.Values{}
	q.Set("charset", "utf8mb4")
	q.Set("parseTime", "True")
	q.Set("loc", "UTC")
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, q.Encode())
}

func postgresDSN(cfg config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:   cfg.DBHost + ":" + cfg.DBPort,
		Path:   "/" + cfg.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", cfg.DBSSLMode)
	q.Set("TimeZone", "UTC")
	u.RawQuery = q.Encode()
	return u.String()
}

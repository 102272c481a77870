package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialect(t *testing.T) {
	for _, tc := range []struct {
		typ  string
		name string
	}{
		{"", "sqlite"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
		{"mysql", "mysql"},
		{"postgres", "postgres"},
	} {
		d, err := Dialect(config.Config{DBType: tc.typ, DBSQLitePath: "x.db"})
		require.NoError(t, err, tc.typ)
		assert.Equal(t, tc.name, d.Name(), tc.typ)
	}

	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "recordstore.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN(""))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:x?mode=memory"))
}

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	dsn := postgresDSN(config.Config{
		DBUser: "app", DBPassword: "p@ss word", DBHost: "db", DBPort: "5432",
		DBName: "recordstore", DBSSLMode: "disable",
	})
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/recordstore?TimeZone=UTC&sslmode=disable", dsn)
}

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(config.Config{DBUser: "app", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "rs"})
	assert.Equal(t, "app:pw@tcp(db:3306)/rs?charset=utf8mb4&loc=UTC&parseTime=True", dsn)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: invoices.idempotency_key")))
	assert.True(t, IsUniqueViolation(errors.New("Error 1062 (23000): Duplicate entry")))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}

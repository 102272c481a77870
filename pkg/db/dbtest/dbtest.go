// Package dbtest opens isolated in-memory databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New opens a private in-memory sqlite database and migrates models into it.
func New(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := db.Open(sqlite.Open(dsn), db.Config{Type: "sqlite", Name: name, MaxOpenConn: 1}, nil)
	require.NoError(t, err)

	if len(models) > 0 {
		require.NoError(t, gdb.AutoMigrate(models...))
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

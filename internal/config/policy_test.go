package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPolicyHolderDefaultsWithoutFile(t *testing.T) {
	holder, err := newPolicyHolder(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicies(), holder.Get())
}

func TestPolicyHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "editor:\n  removeLast: noop\n  afterCreate: edit\n")

	holder, err := newPolicyHolder(zap.NewNop(), dir)
	require.NoError(t, err)
	assert.Equal(t, Policies{RemoveLast: "noop", AfterCreate: "edit"}, holder.Get())
}

func TestPolicyHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "editor:\n  removeLast: shrink\n")

	_, err := newPolicyHolder(zap.NewNop(), dir)
	assert.Error(t, err)
}

func TestPolicyHolderHotReload(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "editor:\n  removeLast: reseed\n  afterCreate: reset\n")

	holder, err := newPolicyHolder(zap.NewNop(), dir)
	require.NoError(t, err)

	writePolicyFile(t, dir, "editor:\n  removeLast: noop\n  afterCreate: edit\n")

	assert.Eventually(t, func() bool {
		return holder.Get().AfterCreate == "edit"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RECORDSTORE_URL", "http://store.local/api/")
	t.Setenv("REQUEST_TIMEOUT", "bogus")

	cfg := Load()
	assert.Equal(t, "http://store.local/api", cfg.RecordStoreURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func writePolicyFile(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoicedesk.yml"), []byte(body), 0o644))
}

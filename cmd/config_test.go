package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := readConfig(newViper(), path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "recruit.db", cfg.Database.Path)
	assert.Equal(t, []string{"admin", "staff"}, cfg.Auth.AdminRoles)
	assert.Equal(t, "2h", cfg.Digest.Interval)
	assert.False(t, cfg.Matching.RejectDuplicates)
}

func TestReadConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  shutdown_grace: 10s
database:
  driver: postgres
  url: postgres://localhost/recruit
auth:
  secret: s3cret
  admin_roles: [recruiter]
email:
  host: smtp.example.com
  from: ops@example.com
  to: [hr@example.com]
  agency_recipients:
    agency-1: [a1@example.com]
matching:
  reject_duplicates: true
digest:
  interval: "0 8 * * 1-5"
`)

	cfg, err := readConfig(newViper(), path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, []string{"recruiter"}, cfg.Auth.AdminRoles)
	assert.True(t, cfg.Email.Enabled())
	assert.Equal(t, []string{"a1@example.com"}, cfg.Email.AgencyRecipients["agency-1"])
	assert.True(t, cfg.Matching.RejectDuplicates)
	assert.Equal(t, "0 8 * * 1-5", cfg.Digest.Interval)
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Setenv("RECRUIT_SERVER_ADDR", ":7070")
	t.Setenv("RECRUIT_AUTH_SECRET", "from-env")
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")

	cfg, err := readConfig(newViper(), path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
}

func TestReadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"unknown driver":   "database:\n  driver: mongo\n",
		"postgres w/o url": "database:\n  driver: postgres\n",
	}
	for name, body := range cases {
		_, err := readConfig(newViper(), writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := readConfig(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

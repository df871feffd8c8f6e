package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"encore/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
service:
  name: encore-scheduler
  port: "9090"
log:
  level: debug
scheduler:
  timezone: Europe/London
  soft_timeout: 10m
  history_retention: 168h
store:
  driver: sqlite
  sqlite_path: /tmp/encore.db
alerts:
  max_per_hour: 3
  default_channel: "#ops"
  routes:
    - rule: job_id == "crm-sync"
      channel: "#crm"
jobs:
  - id: crm-sync
    name: CRM sync
    schedule: "*/15 * * * *"
    is_active: true
  - id: nightly-cleanup
    schedule: "0 3 * * *"
`

func TestParseAppConfig(t *testing.T) {
	cfg, err := ParseAppConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Service.Port)
	assert.Equal(t, "Europe/London", cfg.Scheduler.Location().String())
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.SoftTimeoutDuration())
	assert.Equal(t, 168*time.Hour, cfg.Scheduler.HistoryRetentionDuration())
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Alerts.MaxPerHour)
	require.Len(t, cfg.Alerts.Routes, 1)
	assert.Equal(t, "#crm", cfg.Alerts.Routes[0].Channel)

	require.Len(t, cfg.Jobs, 2)
	assert.True(t, cfg.Jobs[0].IsActive)
	assert.False(t, cfg.Jobs[1].IsActive)
	// name falls back to the id
	assert.Equal(t, "nightly-cleanup", cfg.Jobs[1].Name)
	assert.Equal(t, domain.JobStatusNever, cfg.Jobs[1].LastStatus)
}

func TestParseAppConfig_Defaults(t *testing.T) {
	cfg, err := ParseAppConfig([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Service.Port)
	assert.Equal(t, time.UTC, cfg.Scheduler.Location())
	assert.Equal(t, 720*time.Hour, cfg.Scheduler.HistoryRetentionDuration())
	assert.Equal(t, StoreDriverDynamoDB, cfg.Store.Driver)
	assert.Equal(t, "job_definitions", cfg.Store.Table)
	assert.Equal(t, 5, cfg.Alerts.MaxPerHour)
	assert.Equal(t, 30*time.Second, cfg.ZooKeeper.SessionTimeoutDuration())
	assert.False(t, cfg.ZooKeeper.Enabled)
}

func TestParseAppConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown timezone", yaml: "scheduler:\n  timezone: Mars/Olympus\n"},
		{name: "bad duration", yaml: "scheduler:\n  soft_timeout: soon\n"},
		{name: "negative limit", yaml: "alerts:\n  max_per_hour: -1\n"},
		{name: "unknown driver", yaml: "store:\n  driver: postgres\n"},
		{name: "unknown key", yaml: "scheduler:\n  tz: UTC\n"},
		{name: "missing job id", yaml: "jobs:\n  - schedule: \"@daily\"\n"},
		{name: "duplicate job id", yaml: "jobs:\n  - id: a\n  - id: a\n"},
		{name: "bookkeeping in seed", yaml: "jobs:\n  - id: a\n    last_status: success\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAppConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	t.Setenv(ConfigPathEnv, path)
	assert.Equal(t, path, ConfigPath())

	cfg, err := LoadAppConfig(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "encore-scheduler", cfg.Service.Name)

	_, err = LoadAppConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

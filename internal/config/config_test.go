package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "vitrina", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "x-api-extra", cfg.API.Auth.HeaderExtra)
	assert.Equal(t, 90, cfg.Booking.MaxBookingDays)
	assert.Equal(t, int64(1), cfg.Booking.DefaultSlotCapacity)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("VITRINA_DB_PATH", "/tmp/vitrina.db")

	path := writeConfig(t, `
database:
  path: "${VITRINA_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vitrina.db", cfg.Database.Path)
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "vitrina"
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")
}

func TestLoad_AuthRequiresKeys(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "test.db"
api:
  auth:
    enabled: true
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one api key")
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "vitrina"
  environment: "test"
  version: "1.2.3"
database:
  path: "data/vitrina.db"
redis:
  address: "localhost:6379"
  db: 1
api:
  http:
    port: 9000
  auth:
    enabled: true
    api_keys:
      - key: "key1"
        extra: "extra1"
        name: "mobile"
        permissions: ["read:stores", "write:bookings"]
  rate_limit:
    rps: 10
    burst: 20
booking:
  max_booking_days: 30
  default_slot_capacity: 4
monitoring:
  prometheus_enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, 9000, cfg.API.HTTP.Port)
	require.Len(t, cfg.API.Auth.APIKeys, 1)
	assert.Equal(t, "mobile", cfg.API.Auth.APIKeys[0].Name)
	assert.Equal(t, 30, cfg.Booking.MaxBookingDays)
	assert.Equal(t, int64(4), cfg.Booking.DefaultSlotCapacity)
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, float64(10), cfg.API.RateLimit.RPS)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "{not yaml")
	_, err := Load(path)
	assert.Error(t, err)
}

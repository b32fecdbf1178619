package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-connector/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8069", cfg.HTTP.Addr())
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"ADMIN", "SUPER_ADMIN", "CAISSIER"}, cfg.Session.AllowedRoles)
	assert.Equal(t, 3, cfg.Session.MaxPINAttempts)
	assert.Equal(t, 2*time.Second, cfg.Remote.ProbeTimeout)
	assert.Equal(t, 15*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "/api/health", cfg.Remote.HealthPath)
	assert.Equal(t, "unknown@pos.com", cfg.Order.DefaultCustomerEmail)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("SESSION_ALLOWED_ROLES", "caissier, admin ,")
	t.Setenv("REMOTE_PROBE_TIMEOUT_MS", "1500")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, []string{"caissier", "admin"}, cfg.Session.AllowedRoles)
	assert.Equal(t, 1500*time.Millisecond, cfg.Remote.ProbeTimeout)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.True(t, cfg.Telemetry.Insecure)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:w/rd", DBName: "pos", SSLMode: "disable"}

	assert.Equal(t, "postgres://pos:p%40ss%3Aw%2Frd@db:5432/pos?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", c.ConnectionString())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	env := map[string]string{
		"INTAKE_PRIMARY__ENV":                 "development",
		"INTAKE_SERVER__PORT":                 "8080",
		"INTAKE_SERVER__READ_TIMEOUT":         "30",
		"INTAKE_SERVER__WRITE_TIMEOUT":        "30",
		"INTAKE_SERVER__IDLE_TIMEOUT":         "60",
		"INTAKE_DATABASE__HOST":               "localhost",
		"INTAKE_DATABASE__PORT":               "5432",
		"INTAKE_DATABASE__USER":               "postgres",
		"INTAKE_DATABASE__PASSWORD":           "postgres",
		"INTAKE_DATABASE__NAME":               "inquiries",
		"INTAKE_DATABASE__SSL_MODE":           "disable",
		"INTAKE_DATABASE__MAX_OPEN_CONNS":     "10",
		"INTAKE_DATABASE__MAX_IDLE_CONNS":     "5",
		"INTAKE_DATABASE__CONN_MAX_LIFETIME":  "300",
		"INTAKE_DATABASE__CONN_MAX_IDLE_TIME": "60",
		"INTAKE_INTEGRATION__RESEND_API_KEY":  "re_test",
		"INQUIRY_TABLE_NAME":                  "inquiries",
		"INQUIRY_PROCESSING_QUEUE_URL":        "redis://localhost:6379/0?queue=inquiry-processing",
		"ADMIN_EMAIL":                         "admin@example.com",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "inquiries", cfg.Inquiry.TableName)
	assert.Equal(t, "redis://localhost:6379/0?queue=inquiry-processing", cfg.Inquiry.ProcessingQueueURL)
	assert.Equal(t, "admin@example.com", cfg.Inquiry.AdminEmail)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 300, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.False(t, cfg.Observability.NewRelicEnabled())
}

func TestLoadConfigQueueDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultBatchSize, cfg.Queue.BatchSize)
	assert.Equal(t, DefaultBatchGracePeriod, cfg.Queue.BatchGracePeriod)
	assert.Equal(t, DefaultBatchMaxDelay, cfg.Queue.BatchMaxDelay)
	assert.Equal(t, DefaultVisibilityTimeout, cfg.Queue.VisibilityTimeout)
	assert.Equal(t, DefaultConcurrency, cfg.Queue.Concurrency)
	assert.Equal(t, DefaultMaxRetry, cfg.Queue.MaxRetry)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INTAKE_QUEUE__BATCH_SIZE", "1")
	t.Setenv("INTAKE_QUEUE__VISIBILITY_TIMEOUT", "2m")
	t.Setenv("INTAKE_OBSERVABILITY__LOGGING__LEVEL", "debug")
	t.Setenv("INTAKE_OBSERVABILITY__SERVICE_NAME", "something-else")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Queue.BatchSize)
	assert.Equal(t, 2*time.Minute, cfg.Queue.VisibilityTimeout)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	// Untouched observability defaults survive a partial override.
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing table name", key: "INQUIRY_TABLE_NAME", value: ""},
		{name: "table name with quote", key: "INQUIRY_TABLE_NAME", value: `inquiries"; drop`},
		{name: "table name with dash", key: "INQUIRY_TABLE_NAME", value: "inquiry-table"},
		{name: "missing queue url", key: "INQUIRY_PROCESSING_QUEUE_URL", value: ""},
		{name: "queue url not a url", key: "INQUIRY_PROCESSING_QUEUE_URL", value: "not a url"},
		{name: "missing admin email", key: "ADMIN_EMAIL", value: ""},
		{name: "invalid admin email", key: "ADMIN_EMAIL", value: "admin"},
		{name: "missing resend key", key: "INTAKE_INTEGRATION__RESEND_API_KEY", value: ""},
		{name: "invalid log level", key: "INTAKE_OBSERVABILITY__LOGGING__LEVEL", value: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("INTAKE_SERVER__PORT"))
	assert.Equal(t, "database.max_open_conns", envKey("INTAKE_DATABASE__MAX_OPEN_CONNS"))
	assert.Equal(t, "observability.new_relic.license_key", envKey("INTAKE_OBSERVABILITY__NEW_RELIC__LICENSE_KEY"))
}

// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types, and validates that required
// values are present so the app fails fast on bad or missing config.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values.
//   - Provide defaults for optional config blocks (queue tuning, observability).
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Key layout:
	- Service settings are read with the prefix INTAKE_.
	- "__" separates nesting levels, a single "_" stays part of the key:
	  INTAKE_SERVER__PORT          -> server.port
	  INTAKE_DATABASE__SSL_MODE    -> database.ssl_mode
	- The three values provisioned alongside the table and the queue keep
	  their literal names (see inquiryAliases).
*/

// EnvPrefix is the prefix shared by every service setting.
const EnvPrefix = "INTAKE_"

// ServiceName tags logs, traces and APM dashboards.
const ServiceName = "inquiry-intake"

// inquiryAliases maps the provisioned variable names onto koanf keys.
var inquiryAliases = map[string]string{
	"INQUIRY_TABLE_NAME":           "inquiry.table_name",
	"INQUIRY_PROCESSING_QUEUE_URL": "inquiry.processing_queue_url",
	"ADMIN_EMAIL":                  "inquiry.admin_email",
}

// tableNamePattern restricts table names to plain, unquoted Postgres identifiers.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
//
// Observability is a pointer because it is optional. LoadConfig seeds it
// with DefaultObservabilityConfig before reading the environment.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Inquiry       InquiryConfig        `koanf:"inquiry" validate:"required"`
	Queue         QueueConfig          `koanf:"queue"`
	Integration   IntegrationConfig    `koanf:"integration" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimit is the sustained number of requests per second allowed per
	// client IP. Zero disables the limiter.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
// ConnMaxLifetime and ConnMaxIdleTime are in seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// InquiryConfig carries the values the intake and notification stages
// consume: where inquiries are stored, where notifications are queued and
// who receives them.
type InquiryConfig struct {
	TableName          string `koanf:"table_name" validate:"required,max=63"`
	ProcessingQueueURL string `koanf:"processing_queue_url" validate:"required,url"`
	AdminEmail         string `koanf:"admin_email" validate:"required,email"`
}

// QueueConfig tunes how notification messages are batched and consumed.
// Zero values are replaced by the defaults below.
type QueueConfig struct {
	// BatchSize is the maximum number of messages handed to one batch.
	BatchSize int `koanf:"batch_size" validate:"gte=0"`

	// BatchGracePeriod is how long the queue waits for more messages
	// before flushing a partial batch.
	BatchGracePeriod time.Duration `koanf:"batch_grace_period" validate:"omitempty,min=1s"`

	// BatchMaxDelay bounds how long a message can wait for its batch.
	BatchMaxDelay time.Duration `koanf:"batch_max_delay"`

	// VisibilityTimeout is the processing deadline of a batch.
	VisibilityTimeout time.Duration `koanf:"visibility_timeout"`

	// Concurrency is the number of tasks the worker processes in parallel.
	Concurrency int `koanf:"concurrency" validate:"gte=0"`

	// MaxRetry is how often a single failed notification is retried.
	MaxRetry int `koanf:"max_retry" validate:"gte=0"`
}

const (
	DefaultBatchSize         = 10
	DefaultBatchGracePeriod  = 2 * time.Second
	DefaultBatchMaxDelay     = 10 * time.Second
	DefaultVisibilityTimeout = 45 * time.Second
	DefaultConcurrency       = 10
	DefaultMaxRetry          = 3
)

// applyDefaults fills zero-valued queue settings.
func (q *QueueConfig) applyDefaults() {
	if q.BatchSize == 0 {
		q.BatchSize = DefaultBatchSize
	}
	if q.BatchGracePeriod == 0 {
		q.BatchGracePeriod = DefaultBatchGracePeriod
	}
	if q.BatchMaxDelay == 0 {
		q.BatchMaxDelay = DefaultBatchMaxDelay
	}
	if q.VisibilityTimeout == 0 {
		q.VisibilityTimeout = DefaultVisibilityTimeout
	}
	if q.Concurrency == 0 {
		q.Concurrency = DefaultConcurrency
	}
	if q.MaxRetry == 0 {
		q.MaxRetry = DefaultMaxRetry
	}
}

// IntegrationConfig stores third-party API credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key" validate:"required"`
}

// envKey converts an INTAKE_ variable name into a koanf key path.
//
// Example:
//
//	INTAKE_DATABASE__MAX_OPEN_CONNS -> database.max_open_conns
func envKey(name string) string {
	key := strings.TrimPrefix(name, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(key, "__", "."))
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults and returns the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Second pass: only the aliased names survive, everything else maps to ""
	// and is skipped by the provider.
	err := k.Load(env.Provider("", ".", func(s string) string {
		return inquiryAliases[s]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load inquiry env variables: %w", err)
	}

	// Defaults are set before unmarshalling so partially configured
	// blocks keep their remaining default values.
	mainConfig := &Config{Observability: DefaultObservabilityConfig()}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if !tableNamePattern.MatchString(mainConfig.Inquiry.TableName) {
		return nil, fmt.Errorf("invalid inquiry table name: %q", mainConfig.Inquiry.TableName)
	}

	if len(mainConfig.Server.CORSAllowedOrigins) == 0 {
		mainConfig.Server.CORSAllowedOrigins = []string{"*"}
	}

	mainConfig.Queue.applyDefaults()

	// Service name and environment are forced so every log line and trace
	// uses the same labels regardless of what was configured.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

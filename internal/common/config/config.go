// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Hierarchy HierarchyConfig         `mapstructure:"hierarchy"`
	Defaults  DefaultsConfig          `mapstructure:"defaults"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Registry  RegistryConfig          `mapstructure:"registry"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
	Tracing   TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig locates the template cache. Zero pool and timeout values
// select the client defaults; timeouts are in milliseconds.
type RedisConfig struct {
	Address        string `mapstructure:"address"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	PoolSize       int    `mapstructure:"pool_size"`
	MinIdleConns   int    `mapstructure:"min_idle_conns"`
	DialTimeoutMs  int    `mapstructure:"dial_timeout"`
	ReadTimeoutMs  int    `mapstructure:"read_timeout"`
	WriteTimeoutMs int    `mapstructure:"write_timeout"`
}

// HierarchyConfig bounds ancestor traversal and selects the listing merge key.
type HierarchyConfig struct {
	// MinDepthValue is the shallowest ancestor depth consulted; nil when
	// min_depth is absent. Zero includes the root organization.
	MinDepthValue *int `mapstructure:"min_depth"`
	// SubOrgStartLevel is the level at which sub-organizations begin; the
	// cutoff derived from it is SubOrgStartLevel-1.
	SubOrgStartLevel int    `mapstructure:"sub_org_start_level"`
	MergeKey         string `mapstructure:"merge_key"` // display_name | display_name_locale
}

// MinDepth returns the effective ancestor depth cutoff.
func (h HierarchyConfig) MinDepth() int {
	if h.MinDepthValue != nil {
		return *h.MinDepthValue
	}
	if h.SubOrgStartLevel > 0 {
		return h.SubOrgStartLevel - 1
	}
	return 1
}

// DefaultsConfig locates the system default template catalog.
type DefaultsConfig struct {
	// CatalogPath overrides the embedded catalog when set.
	CatalogPath string `mapstructure:"catalog_path"`
}

// CacheConfig controls the Redis read-through cache in front of persistence.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Prefix     string `mapstructure:"prefix"`
}

// RegistryConfig locates the activity registry with job input schemas.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the address the /metrics endpoint listens on.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// TracingConfig controls OTLP span export. With Enabled false spans are
// still created but never leave the process.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // host:port of an OTLP gRPC collector
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

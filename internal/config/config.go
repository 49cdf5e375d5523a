package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the entire library configuration: logging, export behavior,
// and graph storage.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Export ExportConfig `mapstructure:"export" yaml:"export"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels in console
// format.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// ExportConfig tunes the CycloneDX export.
type ExportConfig struct {
	// Format is "json" or "xml".
	Format string `mapstructure:"format" yaml:"format"`
	// Output is a file path, or ""/"stdout" for standard output.
	Output string `mapstructure:"output" yaml:"output"`
	// ToolVersion overrides the version recorded in metadata.tools.
	ToolVersion string `mapstructure:"tool_version" yaml:"tool_version"`
	// Deterministic pins timestamps and serial numbers for regression runs.
	Deterministic bool `mapstructure:"deterministic" yaml:"deterministic"`
}

// StoreBackend selects where graphs are persisted.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
)

// StoreConfig holds the graph persistence settings.
type StoreConfig struct {
	Backend StoreBackend `mapstructure:"backend" yaml:"backend"`
	// URL is the PostgreSQL connection string; only read for the postgres
	// backend. Usually supplied through TIDEMARK_STORE_URL rather than the
	// config file.
	URL string `mapstructure:"url" yaml:"-"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tidemark")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Export --
	v.SetDefault("export.format", "json")
	v.SetDefault("export.output", "stdout")
	v.SetDefault("export.tool_version", "")
	v.SetDefault("export.deterministic", false)

	// -- Store --
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.url", "")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("store.url", "TIDEMARK_STORE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Export.Format {
	case "json", "xml":
	default:
		return fmt.Errorf("export.format must be \"json\" or \"xml\", got %q", c.Export.Format)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the postgres backend; set TIDEMARK_STORE_URL")
		}
	default:
		return fmt.Errorf("store.backend must be \"memory\" or \"postgres\", got %q", c.Store.Backend)
	}

	return nil
}

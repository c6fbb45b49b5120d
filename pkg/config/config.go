// Package config provides configuration management for the LLP service.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LLP       LLPConfig       `mapstructure:"llp"`
	RunStore  RunStoreConfig  `mapstructure:"runstore"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LLPConfig holds the parameters of the layered label propagation run
// itself: the gamma schedule and the stopping predicate's thresholds.
type LLPConfig struct {
	Gammas                []float64 `mapstructure:"gammas"`
	ChunkSize             int       `mapstructure:"chunk_size"`
	Granularity           int64     `mapstructure:"granularity"`
	Seed                  uint64    `mapstructure:"seed"`
	StoppingGainThreshold float64   `mapstructure:"stopping_gain_threshold"`
	StoppingPatience      int       `mapstructure:"stopping_patience"`
	StoppingMaxUpdates    int       `mapstructure:"stopping_max_updates"`
}

// RunStoreConfig holds the run-history database connection configuration.
type RunStoreConfig struct {
	Type     string `mapstructure:"type"` // sqlite, postgres, or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds the per-gamma labels storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
	Compress  bool   `mapstructure:"compress"`
}

// SchedulerConfig holds the parallel scheduler's worker pool configuration.
type SchedulerConfig struct {
	WorkerCount   int `mapstructure:"worker_count"`
	StackSizeBase int `mapstructure:"stack_size_base"` // bytes per log2(n), see §5
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// TelemetryConfig holds OpenTelemetry tracing/metrics export configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/llp")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// LLP defaults: the canonical {1, 1/2, 1/4, ..., 1/2^10} schedule.
	gammas := make([]float64, 0, 11)
	for i := 0; i <= 10; i++ {
		gammas = append(gammas, 1.0/float64(uint64(1)<<uint(i)))
	}
	v.SetDefault("llp.gammas", gammas)
	v.SetDefault("llp.chunk_size", 1_000_000)
	v.SetDefault("llp.granularity", 0) // 0 means "derive from graph arc count"
	v.SetDefault("llp.seed", 0)
	v.SetDefault("llp.stopping_gain_threshold", 0.001)
	v.SetDefault("llp.stopping_patience", 1)
	v.SetDefault("llp.stopping_max_updates", 100)

	// RunStore defaults
	v.SetDefault("runstore.type", "sqlite")
	v.SetDefault("runstore.database", "llp_runs.db")
	v.SetDefault("runstore.max_conns", 10)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "")
	v.SetDefault("storage.compress", false)

	// Scheduler defaults
	v.SetDefault("scheduler.worker_count", 0) // 0 means runtime.NumCPU()
	v.SetDefault("scheduler.stack_size_base", 1024)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "llp")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.LLP.Gammas) == 0 {
		return fmt.Errorf("at least one gamma value is required")
	}
	for _, g := range c.LLP.Gammas {
		if g < 0 {
			return fmt.Errorf("gamma values must be non-negative, got %g", g)
		}
	}
	if c.LLP.StoppingPatience < 1 {
		return fmt.Errorf("stopping patience must be at least 1")
	}

	switch c.RunStore.Type {
	case "sqlite", "postgres", "mysql", "":
	default:
		return fmt.Errorf("unsupported runstore type: %s", c.RunStore.Type)
	}

	// Storage config validation is delegated to the llpstore package.

	return nil
}

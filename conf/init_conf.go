package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const mb = 1024 * 1024

// Config application configuration structure
type Config struct {
	Port string

	Log LogConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Backend nodes used as blob sinks
	Nodes []NodeConfig

	// Blob transfer tunables
	Transfer TransferConfig

	// Upload session configuration
	Upload UploadConfig

	Quota QuotaConfig

	Uploader UploaderConfig
}

// LogConfig logging configuration
type LogConfig struct {
	Level string // debug, info, warn, error
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	Type         string // Database type: mysql, pebble
	Dsn          string // MySQL DSN
	MaxOpenConns int    // MySQL max open connections
	MaxIdleConns int    // MySQL max idle connections
	DataDir      string // PebbleDB data directory
}

// RedisConfig redis configuration
type RedisConfig struct {
	Enabled  bool   // Enable Redis cache
	Host     string // Redis host
	Port     int    // Redis port
	Password string // Redis password (optional)
	DB       int    // Redis database number
	CacheTTL int    // Cache TTL in seconds (default: 300)
}

// NodeConfig single backend node. Kind selects the driver:
// telegram, s3, minio, oss or local.
type NodeConfig struct {
	ID          string `mapstructure:"id"`
	Kind        string `mapstructure:"kind"`
	Credential  string `mapstructure:"credential"`   // Bot token, or access key for object stores
	Secret      string `mapstructure:"secret"`       // Secret key for object stores
	DisplayName string `mapstructure:"display_name"` // Human readable name, defaults to ID
	Channel     string `mapstructure:"channel"`      // Chat id documents are posted to (telegram)
	BaseURL     string `mapstructure:"base_url"`     // API base url override (telegram)
	Region      string `mapstructure:"region"`
	Endpoint    string `mapstructure:"endpoint"`
	Bucket      string `mapstructure:"bucket"`
	BasePath    string `mapstructure:"base_path"` // Directory for local nodes
	Timeout     int    `mapstructure:"timeout"`   // HTTP timeout in seconds (telegram)
}

// TransferConfig retry and size limits of the blob transfer layer
type TransferConfig struct {
	MaxRetries     int           // Extra attempts after the first one
	InitialDelay   time.Duration // Backoff base
	MaxDelay       time.Duration // Backoff cap
	Multiplier     float64
	Jitter         float64 // Fraction, 0.1 means +-10%
	AttemptTimeout time.Duration
	MaxSingleSize  int64 // Bytes, larger payloads are split into parts
	PartSize       int64 // Bytes per part
}

// UploadConfig resumable upload session configuration
type UploadConfig struct {
	ChunkSize        int64 // Client chunk size in bytes
	SessionTTL       time.Duration
	DirectMaxSize    int64 // Bytes accepted by the single-request upload route
	CleanupEnabled   bool
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// QuotaConfig quota hook selection
type QuotaConfig struct {
	Type         string // none, memory, redis
	DefaultLimit int64  // Bytes per owner, 0 = unlimited
}

// UploaderConfig uploader API configuration
type UploaderConfig struct {
	SwaggerBaseUrl string // Swagger API base URL (e.g., "example.com:7282")
}

// Cfg global configuration instance
var Cfg *Config

// InitConfig initialize configuration from the yaml of the current environment
func InitConfig() error {
	cfg, err := LoadConfig(GetYaml())
	if err != nil {
		return err
	}
	Cfg = cfg
	return nil
}

// LoadConfig read one yaml file into a Config with defaults applied
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("Fatal error config file: %s", err)
	}

	cfg := &Config{
		Port: v.GetString("port"),

		Log: LogConfig{
			Level: v.GetString("log.level"),
		},

		Database: DatabaseConfig{
			Type:         v.GetString("database.type"),
			Dsn:          v.GetString("database.dsn"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
			DataDir:      v.GetString("database.data_dir"),
		},

		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CacheTTL: v.GetInt("redis.cache_ttl"),
		},

		Transfer: TransferConfig{
			MaxRetries:     v.GetInt("transfer.max_retries"),
			InitialDelay:   v.GetDuration("transfer.initial_delay"),
			MaxDelay:       v.GetDuration("transfer.max_delay"),
			Multiplier:     v.GetFloat64("transfer.multiplier"),
			Jitter:         v.GetFloat64("transfer.jitter"),
			AttemptTimeout: v.GetDuration("transfer.attempt_timeout"),
			MaxSingleSize:  v.GetInt64("transfer.max_single_size_mb") * mb, // MB to bytes
			PartSize:       v.GetInt64("transfer.part_size_mb") * mb,       // MB to bytes
		},

		Upload: UploadConfig{
			ChunkSize:        v.GetInt64("upload.chunk_size_mb") * mb, // MB to bytes
			SessionTTL:       v.GetDuration("upload.session_ttl"),
			DirectMaxSize:    v.GetInt64("upload.direct_max_size_mb") * mb, // MB to bytes
			CleanupEnabled:   v.GetBool("upload.cleanup_enabled"),
			CleanupInterval:  v.GetDuration("upload.cleanup_interval"),
			CleanupBatchSize: v.GetInt("upload.cleanup_batch_size"),
		},

		Quota: QuotaConfig{
			Type:         v.GetString("quota.type"),
			DefaultLimit: v.GetInt64("quota.default_limit_mb") * mb, // MB to bytes
		},

		Uploader: UploaderConfig{
			SwaggerBaseUrl: v.GetString("uploader.swagger_base_url"),
		},
	}

	if v.IsSet("nodes") {
		var nodes []NodeConfig
		if err := v.UnmarshalKey("nodes", &nodes); err != nil {
			return nil, fmt.Errorf("failed to parse nodes: %w", err)
		}
		cfg.Nodes = nodes
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a configuration with every default applied and no nodes
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "7282"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Type == "" {
		c.Database.Type = "pebble"
	}
	if c.Database.DataDir == "" {
		c.Database.DataDir = "./data/db"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 300
	}

	if c.Transfer.MaxRetries == 0 {
		c.Transfer.MaxRetries = 5
	}
	if c.Transfer.InitialDelay == 0 {
		c.Transfer.InitialDelay = time.Second
	}
	if c.Transfer.MaxDelay == 0 {
		c.Transfer.MaxDelay = 10 * time.Second
	}
	if c.Transfer.Multiplier == 0 {
		c.Transfer.Multiplier = 2
	}
	if c.Transfer.Jitter == 0 {
		c.Transfer.Jitter = 0.1
	}
	if c.Transfer.AttemptTimeout == 0 {
		c.Transfer.AttemptTimeout = 10 * time.Minute
	}
	if c.Transfer.MaxSingleSize == 0 {
		c.Transfer.MaxSingleSize = 48 * mb
	}
	if c.Transfer.PartSize == 0 {
		c.Transfer.PartSize = 19 * mb
	}

	if c.Upload.ChunkSize == 0 {
		c.Upload.ChunkSize = 10 * mb
	}
	if c.Upload.SessionTTL == 0 {
		c.Upload.SessionTTL = 24 * time.Hour
	}
	if c.Upload.DirectMaxSize == 0 {
		c.Upload.DirectMaxSize = 100 * mb
	}
	if c.Upload.CleanupInterval == 0 {
		c.Upload.CleanupInterval = 10 * time.Minute
	}
	if c.Upload.CleanupBatchSize == 0 {
		c.Upload.CleanupBatchSize = 100
	}

	if c.Quota.Type == "" {
		c.Quota.Type = "none"
	}
	if c.Uploader.SwaggerBaseUrl == "" {
		c.Uploader.SwaggerBaseUrl = "localhost:" + c.Port
	}

	for i := range c.Nodes {
		if c.Nodes[i].DisplayName == "" {
			c.Nodes[i].DisplayName = c.Nodes[i].ID
		}
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	HTTPPort       int      `mapstructure:"http_port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN returns the MySQL data source name
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig holds attachment blob storage configuration.
// Backend "disk" stores blobs under Root; "bucket" talks to an external
// object store over HTTP.
type StorageConfig struct {
	Backend       string        `mapstructure:"backend"`
	Root          string        `mapstructure:"root"`
	BucketURL     string        `mapstructure:"bucket_url"`
	BucketName    string        `mapstructure:"bucket_name"`
	BucketKey     string        `mapstructure:"bucket_key"`
	SignSecret    string        `mapstructure:"sign_secret"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	SignTTL       time.Duration `mapstructure:"sign_ttl"`
}

// RealtimeConfig holds realtime gateway configuration
type RealtimeConfig struct {
	MaxConnNum       int64         `mapstructure:"max_conn_num"`
	MaxMessageSize   int64         `mapstructure:"max_message_size"`
	WriteWait        time.Duration `mapstructure:"write_wait"`
	PongWait         time.Duration `mapstructure:"pong_wait"`
	PingPeriod       time.Duration `mapstructure:"ping_period"`
	PushChannelSize  int           `mapstructure:"push_channel_size"`
	PushWorkerNum    int           `mapstructure:"push_worker_num"`
	WriteChannelSize int           `mapstructure:"write_channel_size"`
}

// Global config instance
var GlobalConfig *Config

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.MySQL.Charset == "" {
		cfg.MySQL.Charset = "utf8mb4"
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 100
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 10
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "mindwell:"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "disk"
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "data/attachments"
	}
	if cfg.Storage.SignTTL == 0 {
		cfg.Storage.SignTTL = 15 * time.Minute
	}
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.HTTPPort)
	}
	if cfg.Realtime.MaxConnNum == 0 {
		cfg.Realtime.MaxConnNum = 10000
	}
	if cfg.Realtime.MaxMessageSize == 0 {
		cfg.Realtime.MaxMessageSize = 51200
	}
	if cfg.Realtime.WriteWait == 0 {
		cfg.Realtime.WriteWait = 10 * time.Second
	}
	if cfg.Realtime.PongWait == 0 {
		cfg.Realtime.PongWait = 30 * time.Second
	}
	if cfg.Realtime.PingPeriod == 0 {
		cfg.Realtime.PingPeriod = 27 * time.Second
	}
	if cfg.Realtime.PushChannelSize == 0 {
		cfg.Realtime.PushChannelSize = 10000
	}
	if cfg.Realtime.PushWorkerNum == 0 {
		cfg.Realtime.PushWorkerNum = 10
	}
	if cfg.Realtime.WriteChannelSize == 0 {
		cfg.Realtime.WriteChannelSize = 256
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

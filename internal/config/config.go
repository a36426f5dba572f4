package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverTimescale = "timescaledb"
	DriverMemory    = "memory"

	TransportHTTP = "http"
	TransportMQTT = "mqtt"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	FileStore  FileStoreConfig  `mapstructure:"filestore"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Simulator  SimulatorConfig  `mapstructure:"simulator"`
	Query      QueryConfig      `mapstructure:"query"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	IngestRPS       float64       `mapstructure:"ingest_rps"`
	IngestBurst     int           `mapstructure:"ingest_burst"`
}

type DatabaseConfig struct {
	Driver      string         `mapstructure:"driver"`
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
	AppDB       PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	LatestTTL time.Duration `mapstructure:"latest_ttl"`
}

// Addr returns host:port for the redis client
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
}

type MonitoringConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

type FileStoreConfig struct {
	BasePath  string        `mapstructure:"base_path"`
	Retention time.Duration `mapstructure:"retention"`
}

type AnalysisConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	Window     time.Duration `mapstructure:"window"`
	ZThreshold float64       `mapstructure:"z_threshold"`
	MaxPoints  int           `mapstructure:"max_points"`
}

type SimulatorConfig struct {
	APIURL    string `mapstructure:"api_url"`
	Transport string `mapstructure:"transport"`
	Seed      int64  `mapstructure:"seed"`
}

type QueryConfig struct {
	DefaultLimit   int `mapstructure:"default_limit"`
	DefaultPerPage int `mapstructure:"default_per_page"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadWith(viper.GetViper())
}

// LoadWith reads configuration through the given viper instance, so that
// entrypoints can bind their own flags before loading.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("ENVMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.ingest_rps", 50.0)
	v.SetDefault("server.ingest_burst", 100)

	// Database defaults
	v.SetDefault("database.driver", DriverTimescale)
	v.SetDefault("database.timescaledb.host", "localhost")
	v.SetDefault("database.timescaledb.port", 5432)
	v.SetDefault("database.timescaledb.dbname", "sensor_monitoring")
	v.SetDefault("database.timescaledb.sslmode", "disable")
	v.SetDefault("database.postgres_app.host", "localhost")
	v.SetDefault("database.postgres_app.port", 5432)
	v.SetDefault("database.postgres_app.dbname", "sensor_monitoring")
	v.SetDefault("database.postgres_app.sslmode", "disable")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.latest_ttl", "24h")

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "envmon-hub")
	v.SetDefault("mqtt.topic", "envmon/readings")
	v.SetDefault("mqtt.qos", 1)

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")

	// FileStore defaults
	v.SetDefault("filestore.base_path", "./reports")
	v.SetDefault("filestore.retention", "0s")

	// Analysis defaults
	v.SetDefault("analysis.interval", "0s")
	v.SetDefault("analysis.window", "24h")
	v.SetDefault("analysis.z_threshold", 2.0)
	v.SetDefault("analysis.max_points", 1000)

	// Simulator defaults
	v.SetDefault("simulator.api_url", "http://localhost:8080/api/v1")
	v.SetDefault("simulator.transport", TransportHTTP)
	v.SetDefault("simulator.seed", 0)

	// Query defaults
	v.SetDefault("query.default_limit", 100)
	v.SetDefault("query.default_per_page", 10)
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverTimescale:
		if config.Database.TimescaleDB.Host == "" {
			return fmt.Errorf("timescaledb host is required")
		}
		if config.Database.AppDB.Host == "" {
			return fmt.Errorf("postgres app host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}
	if config.MQTT.Enabled && config.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	if config.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if config.Analysis.ZThreshold <= 0 {
		return fmt.Errorf("analysis z_threshold must be positive")
	}
	if config.Analysis.MaxPoints <= 0 {
		return fmt.Errorf("analysis max_points must be positive")
	}
	if config.Query.DefaultLimit <= 0 || config.Query.DefaultPerPage <= 0 {
		return fmt.Errorf("query defaults must be positive")
	}
	switch config.Simulator.Transport {
	case TransportHTTP, TransportMQTT:
	default:
		return fmt.Errorf("unknown simulator transport %q", config.Simulator.Transport)
	}
	return nil
}

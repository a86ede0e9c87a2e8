package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Auth   AuthConfig   `yaml:"auth" mapstructure:"auth"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Geo    GeoConfig    `yaml:"geo" mapstructure:"geo"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AuthConfig configures credential checking and session tokens.
type AuthConfig struct {
	Secret       string `yaml:"secret" mapstructure:"secret"`
	TokenTTLMins int    `yaml:"token_ttl_mins" mapstructure:"token_ttl_mins"`
	BcryptCost   int    `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	LoginRPS       float64  `yaml:"login_rps" mapstructure:"login_rps"`
	LoginBurst     int      `yaml:"login_burst" mapstructure:"login_burst"`
	MaxLimit       int      `yaml:"max_limit" mapstructure:"max_limit"`
	DefaultLimit   int      `yaml:"default_limit" mapstructure:"default_limit"`
	ShutdownGraceS int      `yaml:"shutdown_grace_secs" mapstructure:"shutdown_grace_secs"`
}

// IngestConfig configures the CSV import pipeline.
type IngestConfig struct {
	CSVPath       string `yaml:"csv_path" mapstructure:"csv_path"`
	ColumnMapPath string `yaml:"column_map_path" mapstructure:"column_map_path"`
}

// GeoConfig configures governorate boundary loading.
type GeoConfig struct {
	BoundaryPath string `yaml:"boundary_path" mapstructure:"boundary_path"`
	NameProperty string `yaml:"name_property" mapstructure:"name_property"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRAFFIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl_mins", 120)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.login_rps", 2)
	v.SetDefault("server.login_burst", 5)
	v.SetDefault("server.max_limit", 10000)
	v.SetDefault("server.default_limit", 100)
	v.SetDefault("server.shutdown_grace_secs", 10)
	v.SetDefault("ingest.csv_path", "data/sample_data.csv")
	v.SetDefault("ingest.column_map_path", "")
	v.SetDefault("geo.boundary_path", "data/lebanon-governorates.geojson")
	v.SetDefault("geo.name_property", "name_en")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

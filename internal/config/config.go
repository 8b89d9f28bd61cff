// Package config loads censusmap configuration from config.yaml and the
// CENSUSMAP_* environment, and owns global logger setup.
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
	Census CensusConfig `yaml:"census" mapstructure:"census"`
	Tiger  TigerConfig  `yaml:"tiger" mapstructure:"tiger"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// CensusConfig holds ACS API settings.
type CensusConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	Year        int    `yaml:"year" mapstructure:"year"`
	Dataset     string `yaml:"dataset" mapstructure:"dataset"`
	CachePath   string `yaml:"cache_path" mapstructure:"cache_path"`
	CacheTTLHrs int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// TigerConfig configures TIGER/Line shapefile downloads.
type TigerConfig struct {
	Year    int    `yaml:"year" mapstructure:"year"`
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
	UseFTP  bool   `yaml:"use_ftp" mapstructure:"use_ftp"`
}

// OutputConfig configures where rendered artifacts land.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the map server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CENSUSMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. api_key defaults empty so CENSUSMAP_CENSUS_API_KEY is picked
	// up by Unmarshal, which only sees keys viper knows about.
	v.SetDefault("census.api_key", "")
	v.SetDefault("census.year", 2023)
	v.SetDefault("census.dataset", "acs/acs5")
	v.SetDefault("census.cache_path", "censusmap-cache.db")
	v.SetDefault("census.cache_ttl_hours", 720)
	v.SetDefault("census.concurrency", 4)
	v.SetDefault("tiger.year", 2024)
	v.SetDefault("tiger.temp_dir", "/tmp/censusmap")
	v.SetDefault("tiger.use_ftp", false)
	v.SetDefault("output.dir", "out")
	v.SetDefault("server.port", 8080)
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

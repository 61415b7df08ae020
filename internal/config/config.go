package config

import (
	"fmt"
	"strings"
	"time"

	"osintrecon/internal/utils"
	apperrors "osintrecon/pkg/errors"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "OSINTRECON"
	configName = "osintrecon"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Docker       DockerConfig       `mapstructure:"docker"`
	Runner       RunnerConfig       `mapstructure:"runner"`
	Executor     ExecutorConfig     `mapstructure:"executor"`
	Log          LogConfig          `mapstructure:"log"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

type DockerConfig struct {
	// Host overrides DOCKER_HOST when set
	Host string `mapstructure:"host"`
}

type RunnerConfig struct {
	PullTimeout time.Duration `mapstructure:"pull_timeout"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	LogTimeout  time.Duration `mapstructure:"log_timeout"`
}

type ExecutorConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ToolsConfig struct {
	CatalogFile string `mapstructure:"catalog_file"`
}

type NotificationConfig struct {
	DiscordChannelID string `mapstructure:"discord_channel_id"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.host":                     "0.0.0.0",
		"server.port":                     8080,
		"server.shutdown_timeout":         "10m",
		"database.driver":                 DriverSQLite,
		"database.path":                   "data/osintrecon.db",
		"database.host":                   "localhost",
		"database.port":                   5432,
		"database.user":                   "osintrecon",
		"database.password":               "osintrecon",
		"database.name":                   "osintrecon",
		"docker.host":                     "",
		"runner.pull_timeout":             "5m",
		"runner.wait_timeout":             "5m",
		"runner.log_timeout":              "10s",
		"executor.max_concurrent":         2,
		"log.level":                       "info",
		"cors.allowed_origins":            []string{"http://localhost:3000", "http://localhost"},
		"tools.catalog_file":              "",
		"notification.discord_channel_id": "",
	}
}

// NewViper builds the viper instance backing the config. configFile may be
// empty, in which case the standard search paths are tried.
func NewViper(configFile string) (*viper.Viper, error) {
	return utils.NewViperConfigWithOptions(utils.ConfigOptions{
		ConfigFile:  configFile,
		ConfigPaths: []string{"./config", "/etc/osintrecon", "$HOME/.osintrecon"},
		ConfigName:  configName,
		ConfigType:  "yaml",
		EnvPrefix:   EnvPrefix,
		DefaultsMap: defaults(),
	})
}

// Load reads, decodes and validates the configuration.
func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return apperrors.NewConfigError("database.path", c.Database.Path, "sqlite needs a database file path")
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return apperrors.NewConfigError("database.host", c.Database.Host, "postgres needs host and name")
		}
	default:
		return apperrors.NewConfigError("database.driver", c.Database.Driver, "must be sqlite or postgres")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return apperrors.NewConfigError("server.port", c.Server.Port, "must be between 1 and 65535")
	}

	timeouts := map[string]time.Duration{
		"runner.pull_timeout": c.Runner.PullTimeout,
		"runner.wait_timeout": c.Runner.WaitTimeout,
		"runner.log_timeout":  c.Runner.LogTimeout,
	}
	for field, d := range timeouts {
		if d <= 0 {
			return apperrors.NewConfigError(field, d, "must be positive")
		}
	}

	if c.Executor.MaxConcurrent < 1 {
		return apperrors.NewConfigError("executor.max_concurrent", c.Executor.MaxConcurrent, "must be at least 1")
	}
	return nil
}

// Watch re-decodes the config whenever the backing file changes and hands
// valid results to onChange. Invalid edits are reported through onError and
// otherwise ignored.
func Watch(v *viper.Viper, onChange func(*Config, fsnotify.Event), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := FromViper(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg, e)
	})
	v.WatchConfig()
}

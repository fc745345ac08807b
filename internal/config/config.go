package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"adv-service/internal/validation"

	"github.com/go-sql-driver/mysql"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type HTTPConfig struct {
	Port    int           `mapstructure:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=mysql postgres"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host" validate:"required_without=DSN"`
	Port            int           `mapstructure:"port" validate:"required_without=DSN"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required_without=DSN"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required_if=Enabled true,gte=0"`
	Burst             int     `mapstructure:"burst" validate:"required_if=Enabled true,gte=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "adv")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "adv-service")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.version", "dev")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
}

// LoadConfig reads config.yaml from the working directory, or the file named
// by CONFIG_PATH, and lets environment variables override any key
// (database.dsn -> DATABASE_DSN). A missing file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".") // if its current directory
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validation.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	return config
}

// ConnectionString returns DSN when set, otherwise builds one for the
// configured driver.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}

	hostPort := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))

	if d.Driver == "mysql" {
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = hostPort
		cfg.DBName = d.Name
		cfg.ParseTime = true
		return cfg.FormatDSN()
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     hostPort,
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

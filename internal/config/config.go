package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel          string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat         string  `yaml:"log-format" env:"LOG_FORMAT" env-default:"json"`
	HTTPPort          string  `yaml:"http-port" env:"HTTP_PORT" env-default:"8080"`
	Match             Match   `yaml:"match"`
	Archive           Archive `yaml:"archive"`
	Redis             Redis   `yaml:"redis"`
	SQLiteStoragePath string  `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"matches.db"`
}

type Match struct {
	BoardSize   int           `yaml:"board-size" env:"MATCH_BOARD_SIZE" env-default:"15"`
	MoveTimeout time.Duration `yaml:"move-timeout" env:"MATCH_MOVE_TIMEOUT" env-default:"10s"`
	TurnDelay   time.Duration `yaml:"turn-delay" env:"MATCH_TURN_DELAY" env-default:"1s"`
}

type Archive struct {
	Backend string `yaml:"backend" env:"ARCHIVE_BACKEND" env-default:"memory"`
	Limit   int    `yaml:"limit" env:"ARCHIVE_LIMIT" env-default:"100"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Load reads the yaml file at path with env overrides. A missing file means env and defaults only.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from env: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", statErr)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	if that.Match.BoardSize < 1 {
		return fmt.Errorf("%w: match.board-size must be positive", ErrInvalidConfig)
	}

	if that.Match.MoveTimeout <= 0 {
		return fmt.Errorf("%w: match.move-timeout must be positive", ErrInvalidConfig)
	}

	if that.Match.TurnDelay < 0 {
		return fmt.Errorf("%w: match.turn-delay must not be negative", ErrInvalidConfig)
	}

	switch that.Archive.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown archive backend %q", ErrInvalidConfig, that.Archive.Backend)
	}

	switch that.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, that.LogFormat)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

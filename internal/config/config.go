// Package config предоставляет структуры и функции для парсинга и загрузки конфигурации
// сервера лицензирования из YAML-файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultJWTSecret используется, когда секрет не задан. Небезопасно для продакшена.
const DefaultJWTSecret = "default-secret"

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	AppVersion              string `yaml:"app_version" env:"APP_VERSION" env-default:"1.0.0"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"DATABASE_URL"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	GRPCHealthAddress       string `yaml:"grpc_health_address" env:"GRPC_HEALTH_ADDRESS" env-default:":9090"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Admin                   `yaml:"admin"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":3000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_EXPIRES_IN" env-default:"24h"`
}

// Admin параметры создания администратора по умолчанию.
type Admin struct {
	Email          string        `yaml:"email" env:"DEFAULT_ADMIN_EMAIL" env-default:"admin@svconta.com"`
	Password       string        `yaml:"password" env:"DEFAULT_ADMIN_PASSWORD" env-default:"admin123"`
	BootstrapDelay time.Duration `yaml:"bootstrap_delay" env-default:"1s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кеширование.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	TTL          time.Duration `yaml:"ttl" env-default:"5m"`
}

// RabbitMQ настройки публикации событий лицензирования.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env-default:"licensing"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// RateLimit ограничение числа запросов с одного IP.
type RateLimit struct {
	Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"15m"`
}

// Load читает конфиг из файла CONFIG_PATH, а если путь не задан, только из окружения.
func Load() (*Config, error) {
	const op = "config.Load"
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if cfg.StorageConnectionString == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("storage connection string is not set"))
	}
	return &cfg, nil
}

// MustLoad загружает конфиг и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// InsecureJWTSecret сообщает, что секрет не задан и будет использован DefaultJWTSecret.
func (c *Config) InsecureJWTSecret() bool {
	return c.JWTSecretKey == ""
}

// JWTSecret возвращает секрет подписи токенов с учётом значения по умолчанию.
func (c *Config) JWTSecret() string {
	if c.JWTSecretKey == "" {
		return DefaultJWTSecret
	}
	return c.JWTSecretKey
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"AppVersion: %s\n"+
			"MigrationsPath: %s\n"+
			"GRPCHealthAddress: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Admin:\n"+
			"  Email: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"RateLimit:\n"+
			"  Requests: %d\n"+
			"  Window: %s\n",
		c.Env,
		c.AppVersion,
		c.MigrationsPath,
		c.GRPCHealthAddress,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.Admin.Email,
		c.AddressRedis,
		c.DB,
		c.Exchange,
		c.Requests,
		c.Window,
	)
}

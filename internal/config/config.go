package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	App struct {
		Env      string `validate:"oneof=dev prod"`
		LogLevel slog.Level
	}
	DB struct {
		Driver          string `validate:"oneof=sqlite postgres mysql"`
		DSN             string
		Path            string
		Host            string
		Port            string
		User            string
		Password        string
		DBName          string
		SSLMode         string
		MaxOpenConns    int `validate:"gte=0"`
		MaxIdleConns    int `validate:"gte=0"`
		ConnMaxLifetime time.Duration
	}
	Weather struct {
		URL       string  `validate:"required,url"`
		Latitude  float64 `validate:"gte=-90,lte=90"`
		Longitude float64 `validate:"gte=-180,lte=180"`
		Timezone  string
	}
	Poller struct {
		Interval     time.Duration `validate:"gt=0"`
		FetchTimeout time.Duration `validate:"gt=0"`
	}
	Breaker struct {
		FailureThreshold uint32        `validate:"gt=0"`
		OpenTimeout      time.Duration `validate:"gt=0"`
	}
	Export struct {
		Path   string `validate:"required"`
		Format string `validate:"omitempty,oneof=xlsx csv"`
	}
	Command struct {
		Enabled bool
		Mode    string `validate:"oneof=repeat once"`
	}
	HTTP struct {
		Enabled      bool
		Addr         string
		AllowOrigins []string
		RateLimitRPS int `validate:"gte=0"`
		RateBurst    int `validate:"gte=0"`
	}
	Redis struct {
		Enabled  bool
		Host     string
		Port     string
		Password string
		DB       int
	}
	MQTT struct {
		Enabled        bool
		Broker         string
		Port           int
		ClientID       string
		Topic          string
		ConnectTimeout time.Duration `validate:"gt=0"`
	}
	Cache struct {
		TTL time.Duration
	}
}

var validate = validator.New()

// Load читает конфигурацию из окружения. Значения по умолчанию дают
// автономный логгер с weather_data.db и weather_data.xlsx в рабочей директории.
func Load() (*Config, error) {
	cfg := &Config{}

	// App
	cfg.App.Env = getEnv("APP_ENV", "dev")
	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.App.LogLevel = level

	// DB
	cfg.DB.Driver = strings.ToLower(getEnv("DB_DRIVER", "sqlite"))
	cfg.DB.DSN = getEnv("DB_DSN", "")
	cfg.DB.Path = getEnv("SQLITE_PATH", "weather_data.db")
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", defaultDBPort(cfg.DB.Driver))
	cfg.DB.User = getEnv("DB_USER", "weather")
	cfg.DB.Password = getEnv("DB_PASSWORD", "weather")
	cfg.DB.DBName = getEnv("DB_NAME", "weather")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.DB.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", 0)
	cfg.DB.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", 0)
	cfg.DB.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour)

	// Источник погоды
	cfg.Weather.URL = getEnv("WEATHER_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.Weather.Latitude = getEnvAsFloat("WEATHER_LATITUDE", 55.69901105)
	cfg.Weather.Longitude = getEnvAsFloat("WEATHER_LONGITUDE", 37.359583750315124)
	cfg.Weather.Timezone = getEnv("WEATHER_TIMEZONE", "Europe/Moscow")

	// Poller
	cfg.Poller.Interval = getEnvAsDuration("POLL_INTERVAL", 180*time.Second)
	cfg.Poller.FetchTimeout = getEnvAsDuration("POLL_FETCH_TIMEOUT", 30*time.Second)
	if cfg.Poller.Interval > 0 && cfg.Poller.FetchTimeout > cfg.Poller.Interval {
		cfg.Poller.FetchTimeout = cfg.Poller.Interval
	}

	// Circuit breaker для источника погоды
	cfg.Breaker.FailureThreshold = uint32(getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5))
	cfg.Breaker.OpenTimeout = getEnvAsDuration("BREAKER_OPEN_TIMEOUT", 60*time.Second)

	// Export
	cfg.Export.Path = getEnv("EXPORT_PATH", "weather_data.xlsx")
	cfg.Export.Format = strings.ToLower(getEnv("EXPORT_FORMAT", ""))

	// Команды оператора
	cfg.Command.Enabled = getEnvAsBool("COMMAND_ENABLED", true)
	cfg.Command.Mode = strings.ToLower(getEnv("COMMAND_MODE", "repeat"))

	// Локальный HTTP API
	cfg.HTTP.Enabled = getEnvAsBool("HTTP_ENABLED", false)
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", "127.0.0.1:8080")
	cfg.HTTP.AllowOrigins = getEnvAsList("HTTP_ALLOW_ORIGINS", []string{"http://localhost:3000"})
	cfg.HTTP.RateLimitRPS = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.HTTP.RateBurst = getEnvAsInt("RATE_LIMIT_BURST", 20)

	// Redis
	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", false)
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// MQTT
	cfg.MQTT.Enabled = getEnvAsBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "localhost")
	cfg.MQTT.Port = getEnvAsInt("MQTT_PORT", 1883)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "weatherlog")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "weather/readings")
	cfg.MQTT.ConnectTimeout = getEnvAsDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second)

	// Кэш последнего показания
	cfg.Cache.TTL = getEnvAsDuration("CACHE_TTL", 2*cfg.Poller.Interval)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultDBPort(driver string) string {
	if driver == "mysql" {
		return "3306"
	}
	return "5432"
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

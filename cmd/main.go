package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"weatherlog/internal/cache"
	"weatherlog/internal/clients"
	"weatherlog/internal/config"
	"weatherlog/internal/handlers"
	"weatherlog/internal/logging"
	"weatherlog/internal/repository"
	"weatherlog/internal/service"
	"weatherlog/internal/worker"
	"weatherlog/pkg/database"
	"weatherlog/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Загрузка .env
	envErr := godotenv.Load()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.App.Env, cfg.App.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("weatherlog stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("weatherlog exited properly")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("weatherlog starting",
		"env", cfg.App.Env,
		"db_driver", cfg.DB.Driver,
		"interval", cfg.Poller.Interval,
		"export_path", cfg.Export.Path,
	)

	// Подключение к БД
	db, err := database.Connect(database.Config{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.DSN,
		Path:            cfg.DB.Path,
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		DBName:          cfg.DB.DBName,
		SSLMode:         cfg.DB.SSLMode,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	// Схема до первого опроса
	if err := database.EnsureSchema(db); err != nil {
		return err
	}

	// Кэш в памяти, Redis по желанию
	cacheRepo := cache.NewMemoryRepository()
	if cfg.Redis.Enabled {
		redisClient, err := redis.Connect(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cacheRepo = cache.NewRedisRepository(redisClient)
	}

	var publisher clients.ReadingPublisher
	if cfg.MQTT.Enabled {
		mqttPublisher := clients.NewMQTTPublisher(clients.MQTTConfig{
			Broker:         cfg.MQTT.Broker,
			Port:           cfg.MQTT.Port,
			ClientID:       cfg.MQTT.ClientID,
			Topic:          cfg.MQTT.Topic,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}, logger)
		// Брокер недоступен: продолжаем без него, клиент переподключится сам
		if err := mqttPublisher.Connect(ctx); err != nil {
			logger.Warn("mqtt broker unavailable, readings are published once it connects", "error", err)
		}
		defer mqttPublisher.Disconnect()
		publisher = mqttPublisher
	}

	// Инициализация репозиториев и клиентов
	readingRepo := repository.NewReadingRepository(db)

	weatherClient := clients.NewOpenMeteoClient(clients.OpenMeteoConfig{
		URL:       cfg.Weather.URL,
		Latitude:  cfg.Weather.Latitude,
		Longitude: cfg.Weather.Longitude,
		Timezone:  cfg.Weather.Timezone,
		Timeout:   cfg.Poller.FetchTimeout,
	}, clients.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	}, logger)

	// Инициализация сервисов
	weatherService := service.NewWeatherService(readingRepo, cacheRepo, weatherClient, publisher, service.WeatherConfig{
		FetchTimeout: cfg.Poller.FetchTimeout,
		CacheTTL:     cfg.Cache.TTL,
	}, logger)

	exportService, err := service.NewExportService(readingRepo, service.ExportConfig{
		Path:   cfg.Export.Path,
		Format: cfg.Export.Format,
	}, logger)
	if err != nil {
		return err
	}

	// Инициализация воркеров
	scheduler := worker.NewScheduler(logger)
	scheduler.AddWorker(worker.NewWeatherWorker(weatherService, cfg.Poller.Interval, logger))

	if cfg.Command.Enabled {
		scheduler.AddWorker(worker.NewCommandWorker(exportService, os.Stdin, os.Stdout, cfg.Command.Mode, logger))
	}

	if cfg.HTTP.Enabled {
		if cfg.App.Env == "prod" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := handlers.NewRouter(handlers.RouterConfig{
			AllowOrigins: cfg.HTTP.AllowOrigins,
			RateLimitRPS: cfg.HTTP.RateLimitRPS,
			RateBurst:    cfg.HTTP.RateBurst,
		},
			handlers.NewReadingHandler(weatherService, exportService),
			handlers.NewHealthHandler(readingRepo, cacheRepo),
			logger,
		)
		scheduler.AddWorker(worker.NewHTTPWorker(cfg.HTTP.Addr, router, logger))
	}

	return scheduler.Run(ctx)
}

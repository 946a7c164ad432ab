package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"weatherlog/internal/cache"
	"weatherlog/internal/clients"
	"weatherlog/internal/models"
	"weatherlog/internal/repository"
	"weatherlog/internal/utils"

	"github.com/go-playground/validator/v10"
)

// LatestReadingKey ключ кэша с последним сохраненным показанием.
const LatestReadingKey = "weather:latest_reading"

type WeatherService interface {
	// FetchAndStore выполняет один цикл опроса. При любой ошибке ничего
	// не сохраняется.
	FetchAndStore(ctx context.Context) (*models.Reading, error)
	GetLatest(ctx context.Context) (*models.Reading, error)
	GetHistory(ctx context.Context, limit int) ([]models.Reading, error)
}

type WeatherConfig struct {
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	Now          func() time.Time
}

type weatherService struct {
	repo      repository.ReadingRepository
	cacheRepo cache.CacheRepository
	client    clients.WeatherClient
	publisher clients.ReadingPublisher
	config    WeatherConfig
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewWeatherService собирает цикл опроса. publisher может быть nil.
func NewWeatherService(
	repo repository.ReadingRepository,
	cacheRepo cache.CacheRepository,
	client clients.WeatherClient,
	publisher clients.ReadingPublisher,
	config WeatherConfig,
	logger *slog.Logger,
) WeatherService {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &weatherService{
		repo:      repo,
		cacheRepo: cacheRepo,
		client:    client,
		publisher: publisher,
		config:    config,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *weatherService) FetchAndStore(ctx context.Context) (*models.Reading, error) {
	// Получаем текущую погоду
	conditions, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	// Все поля обязательны, неполный ответ не сохраняем
	if err := s.validateConditions(conditions); err != nil {
		return nil, err
	}

	// Нормализуем в запись, направление ветра сводим к румбу
	reading := &models.Reading{
		Temperature:       *conditions.Temperature,
		WindSpeed:         *conditions.WindSpeed,
		WindDirection:     utils.ClassifyBearing(*conditions.WindBearing),
		Pressure:          *conditions.SurfacePressure,
		PrecipitationRain: *conditions.Rain,
		PrecipitationSnow: *conditions.Snowfall,
		Timestamp:         s.config.Now().UTC(),
	}
	if json.Valid(conditions.Raw) {
		reading.SourcePayload = conditions.Raw
	}

	if _, err := s.repo.Append(ctx, reading); err != nil {
		return nil, err
	}

	// Кэш и MQTT не влияют на результат цикла
	if err := s.cacheRepo.SetJSON(ctx, LatestReadingKey, reading, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache latest reading", "id", reading.ID, "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReading(ctx, reading); err != nil {
			s.logger.Warn("failed to publish reading", "id", reading.ID, "error", err)
		}
	}

	s.logger.Info("reading stored",
		"id", reading.ID,
		"temperature", reading.Temperature,
		"wind_speed", reading.WindSpeed,
		"wind_direction", reading.WindDirection,
		"pressure", reading.Pressure,
		"rain", reading.PrecipitationRain,
		"snow", reading.PrecipitationSnow,
	)
	return reading, nil
}

func (s *weatherService) fetch(ctx context.Context) (*models.CurrentConditions, error) {
	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	conditions, err := s.client.GetCurrentConditions(ctx)
	if err != nil {
		if errors.Is(err, models.ErrFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", models.ErrFetch, err)
	}
	return conditions, nil
}

func (s *weatherService) validateConditions(conditions *models.CurrentConditions) error {
	if conditions == nil {
		return fmt.Errorf("%w: empty response", models.ErrValidation)
	}

	err := s.validate.Struct(conditions)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return fmt.Errorf("%w: missing fields: %s", models.ErrValidation, strings.Join(missing, ", "))
	}
	return fmt.Errorf("%w: %w", models.ErrValidation, err)
}

func (s *weatherService) GetLatest(ctx context.Context) (*models.Reading, error) {
	// Пробуем из кэша
	var cached models.Reading
	found, err := s.cacheRepo.GetJSON(ctx, LatestReadingKey, &cached)
	if err != nil {
		s.logger.Warn("failed to read latest reading from cache", "error", err)
	}
	if found {
		return &cached, nil
	}

	// Если нет в кэше, берем из БД
	reading, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetJSON(ctx, LatestReadingKey, reading, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache latest reading", "id", reading.ID, "error", err)
	}
	return reading, nil
}

func (s *weatherService) GetHistory(ctx context.Context, limit int) ([]models.Reading, error) {
	return s.repo.ListRecent(ctx, limit)
}

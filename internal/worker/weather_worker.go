package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"weatherlog/internal/models"
	"weatherlog/internal/service"
)

// WeatherWorker опрашивает источник погоды: первый цикл сразу, затем раз
// в интервал. Ошибка цикла логируется, и воркер снова ждет интервал.
type WeatherWorker struct {
	service  service.WeatherService
	interval time.Duration
	logger   *slog.Logger
}

func NewWeatherWorker(service service.WeatherService, interval time.Duration, logger *slog.Logger) *WeatherWorker {
	return &WeatherWorker{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

func (w *WeatherWorker) Name() string {
	return "weather"
}

func (w *WeatherWorker) Run(ctx context.Context) error {
	w.logger.Info("weather worker started", "interval", w.interval)

	// Первый запуск сразу
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		// Следующий цикл через интервал после окончания текущего
		w.poll(ctx)
		timer.Reset(w.interval)
	}
}

func (w *WeatherWorker) poll(ctx context.Context) {
	start := time.Now()

	reading, err := w.service.FetchAndStore(ctx)
	if err != nil {
		// Остановка, а не ошибка опроса
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("poll cycle failed",
			"kind", errorKind(err),
			"error", err,
			"next_in", w.interval,
		)
		return
	}

	w.logger.Debug("poll cycle complete",
		"id", reading.ID,
		"duration", time.Since(start),
		"next_in", w.interval,
	)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrFetch):
		return "fetch"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}

package clients

//go:generate mockgen -source=openmeteo_client.go -destination=mocks/weather_client_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"weatherlog/internal/models"

	"github.com/sony/gobreaker"
)

// WeatherClient получает текущую погоду в заданной точке.
type WeatherClient interface {
	GetCurrentConditions(ctx context.Context) (*models.CurrentConditions, error)
}

type OpenMeteoConfig struct {
	URL       string
	Latitude  float64
	Longitude float64
	Timezone  string
	// Timeout ограничивает один запрос. Ноль: defaultRequestTimeout.
	Timeout time.Duration
}

const defaultRequestTimeout = 30 * time.Second

type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

const currentFields = "temperature_2m,rain,snowfall,surface_pressure,wind_speed_10m,wind_direction_10m"

type openMeteoClient struct {
	config     OpenMeteoConfig
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenMeteoClient(config OpenMeteoConfig, breaker BreakerConfig, logger *slog.Logger) WeatherClient {
	threshold := breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 1,
		Timeout:     breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &openMeteoClient{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		circuit: cb,
	}
}

type openMeteoResponse struct {
	UTCOffsetSeconds int             `json:"utc_offset_seconds"`
	Current          json.RawMessage `json:"current"`
}

type openMeteoCurrent struct {
	Time             string   `json:"time"`
	Temperature2m    *float64 `json:"temperature_2m"`
	Rain             *float64 `json:"rain"`
	Snowfall         *float64 `json:"snowfall"`
	SurfacePressure  *float64 `json:"surface_pressure"`
	WindSpeed10m     *float64 `json:"wind_speed_10m"`
	WindDirection10m *float64 `json:"wind_direction_10m"`
}

func (c *openMeteoClient) GetCurrentConditions(ctx context.Context) (*models.CurrentConditions, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: weather source unavailable: %w", models.ErrFetch, err)
		}
		return nil, fmt.Errorf("%w: %w", models.ErrFetch, err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", models.ErrFetch)
	}

	var payload openMeteoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode JSON: %w", models.ErrFetch, err)
	}
	if len(payload.Current) == 0 || string(payload.Current) == "null" {
		return nil, fmt.Errorf("%w: response has no current block", models.ErrFetch)
	}

	var current openMeteoCurrent
	if err := json.Unmarshal(payload.Current, &current); err != nil {
		return nil, fmt.Errorf("%w: failed to decode current block: %w", models.ErrFetch, err)
	}

	conditions := &models.CurrentConditions{
		Temperature:     current.Temperature2m,
		WindSpeed:       current.WindSpeed10m,
		WindBearing:     current.WindDirection10m,
		SurfacePressure: current.SurfacePressure,
		Rain:            current.Rain,
		Snowfall:        current.Snowfall,
		Raw:             payload.Current,
	}

	// Время источника локальное для запрошенной зоны, без смещения
	loc := time.FixedZone("", payload.UTCOffsetSeconds)
	if observed, err := time.ParseInLocation("2006-01-02T15:04", current.Time, loc); err == nil {
		conditions.ObservedAt = observed.UTC()
	}

	return conditions, nil
}

func (c *openMeteoClient) fetch(ctx context.Context) ([]byte, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(c.config.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(c.config.Longitude, 'f', -1, 64))
	values.Set("current", currentFields)
	if c.config.Timezone != "" {
		values.Set("timezone", c.config.Timezone)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "weatherlog/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

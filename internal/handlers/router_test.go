package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherlog/internal/cache"
	"weatherlog/internal/models"
	"weatherlog/internal/repository"
	"weatherlog/internal/service"
	"weatherlog/pkg/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router     *gin.Engine
	repo       repository.ReadingRepository
	exportPath string
}

func newTestAPI(t *testing.T, config RouterConfig) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	db, err := database.Connect(database.Config{Driver: "sqlite", Path: filepath.Join(dir, "weather.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.EnsureSchema(db))

	repo := repository.NewReadingRepository(db)
	cacheRepo := cache.NewMemoryRepository()
	weather := service.NewWeatherService(repo, cacheRepo, nil, nil, service.WeatherConfig{CacheTTL: time.Minute}, logger)

	exportPath := filepath.Join(dir, "weather_data.csv")
	exporter, err := service.NewExportService(repo, service.ExportConfig{Path: exportPath}, logger)
	require.NoError(t, err)

	router := NewRouter(config, NewReadingHandler(weather, exporter), NewHealthHandler(repo, cacheRepo), logger)
	return &testAPI{router: router, repo: repo, exportPath: exportPath}
}

func (a *testAPI) do(method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) seed(t *testing.T, n int) {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := a.repo.Append(context.Background(), &models.Reading{
			Temperature:   float64(i),
			WindSpeed:     3,
			WindDirection: models.DirectionE,
			Pressure:      1010,
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, RouterConfig{})
	api.seed(t, 2)

	w := api.do(http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["readings"])
}

func TestLatestReading(t *testing.T) {
	api := newTestAPI(t, RouterConfig{})

	w := api.do(http.MethodGet, "/api/v1/readings/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)

	api.seed(t, 3)
	w = api.do(http.MethodGet, "/api/v1/readings/latest")
	require.Equal(t, http.StatusOK, w.Code)

	var reading models.Reading
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reading))
	assert.Equal(t, 2.0, reading.Temperature)
	assert.Equal(t, models.DirectionE, reading.WindDirection)
}

func TestListReadings(t *testing.T) {
	api := newTestAPI(t, RouterConfig{})
	api.seed(t, 5)

	w := api.do(http.MethodGet, "/api/v1/readings?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int              `json:"count"`
		Items []models.Reading `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 4.0, body.Items[0].Temperature)

	for _, bad := range []string{"0", "-1", "5000", "abc"} {
		w = api.do(http.MethodGet, "/api/v1/readings?limit="+bad)
		assert.Equalf(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}
}

func TestExportEndpoints(t *testing.T) {
	api := newTestAPI(t, RouterConfig{})
	api.seed(t, 2)

	w := api.do(http.MethodPost, "/api/v1/export")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, api.exportPath, body["path"])

	w = api.do(http.MethodGet, "/api/v1/export/download")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "weather_data.csv")
	assert.Contains(t, w.Body.String(), "Temperature,Wind Speed,Wind Direction")
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, RouterConfig{RateLimitRPS: 1, RateBurst: 1})

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/readings/latest").Code)
	assert.Equal(t, http.StatusTooManyRequests, api.do(http.MethodGet, "/api/v1/readings/latest").Code)

	// Health-check не ограничивается
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/health").Code)
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t, RouterConfig{AllowOrigins: []string{"http://localhost:3000"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	api.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

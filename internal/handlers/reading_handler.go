package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"weatherlog/internal/models"
	"weatherlog/internal/service"

	"github.com/gin-gonic/gin"
)

type ReadingHandler struct {
	weather  service.WeatherService
	exporter service.ExportService
}

func NewReadingHandler(weather service.WeatherService, exporter service.ExportService) *ReadingHandler {
	return &ReadingHandler{
		weather:  weather,
		exporter: exporter,
	}
}

type listReadingsQuery struct {
	Limit int `form:"limit,default=100" binding:"min=1,max=1000"`
}

func (h *ReadingHandler) GetLatest(c *gin.Context) {
	ctx := c.Request.Context()

	reading, err := h.weather.GetLatest(ctx)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no readings stored yet",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to get latest reading",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, reading)
}

func (h *ReadingHandler) ListReadings(c *gin.Context) {
	var query listReadingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid query",
			"message": err.Error(),
		})
		return
	}

	readings, err := h.weather.GetHistory(c.Request.Context(), query.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list readings",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(readings),
		"items": readings,
	})
}

// Export пишет файл экспорта и возвращает его путь.
func (h *ReadingHandler) Export(c *gin.Context) {
	path, err := h.exporter.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "export failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"path":    path,
	})
}

// Download делает свежий экспорт и отдает файл.
func (h *ReadingHandler) Download(c *gin.Context) {
	path, err := h.exporter.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "export failed",
			"message": err.Error(),
		})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

package handlers

import (
	"net/http"
	"time"

	"weatherlog/internal/cache"
	"weatherlog/internal/repository"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	repo      repository.ReadingRepository
	cacheRepo cache.CacheRepository
}

func NewHealthHandler(repo repository.ReadingRepository, cacheRepo cache.CacheRepository) *HealthHandler {
	return &HealthHandler{repo: repo, cacheRepo: cacheRepo}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	database := "connected"
	count, err := h.repo.Count(ctx)
	if err != nil {
		status = http.StatusServiceUnavailable
		database = err.Error()
	}

	cacheState := "connected"
	if err := h.cacheRepo.Ping(ctx); err != nil {
		cacheState = err.Error()
	}

	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"readings":  count,
		"services": gin.H{
			"database": database,
			"cache":    cacheState,
		},
	})
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"weatherlog/internal/models"
	"weatherlog/internal/repository"
	"weatherlog/internal/utils"

	"github.com/google/uuid"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

type ExportService interface {
	// Export пишет все показания, новые первыми, в заданный файл и
	// возвращает абсолютный путь. Файл заменяется атомарно.
	Export(ctx context.Context) (string, error)
}

type ExportConfig struct {
	Path   string
	Format string // xlsx или csv; пусто: по расширению файла
}

type exportService struct {
	repo   repository.ReadingRepository
	path   string
	format string
	logger *slog.Logger

	mu sync.Mutex
}

func NewExportService(repo repository.ReadingRepository, config ExportConfig, logger *slog.Logger) (ExportService, error) {
	path, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve export path %q: %w", config.Path, err)
	}

	format := strings.ToLower(config.Format)
	if format == "" {
		format = FormatXLSX
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			format = FormatCSV
		}
	}
	if format != FormatXLSX && format != FormatCSV {
		return nil, fmt.Errorf("unsupported export format %q", config.Format)
	}

	return &exportService{
		repo:   repo,
		path:   path,
		format: format,
		logger: logger,
	}, nil
}

func (s *exportService) Export(ctx context.Context) (string, error) {
	// Начатый экспорт доводим до конца, даже если вызывающий ушел
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	info := utils.ExportInfo{ID: uuid.NewString(), GeneratedAt: start}
	logger := s.logger.With("export_id", info.ID, "path", s.path, "format", s.format)

	records, err := s.repo.ListAllDescendingByTime(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		return "", fmt.Errorf("%w: %w", models.ErrExport, err)
	}

	if err := s.writeFile(records, info); err != nil {
		logger.Error("export failed", "error", err)
		return "", fmt.Errorf("%w: %w", models.ErrExport, err)
	}

	logger.Info("export complete", "rows", len(records), "duration", time.Since(start))
	return s.path, nil
}

func (s *exportService) writeFile(records []models.Reading, info utils.ExportInfo) (err error) {
	dir, base := filepath.Split(s.path)
	ext := filepath.Ext(base)

	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, ext)+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = s.encode(tmp, records, info); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.format, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

func (s *exportService) encode(w io.Writer, records []models.Reading, info utils.ExportInfo) error {
	if s.format == FormatCSV {
		return utils.WriteCSV(w, records)
	}
	return utils.WriteExcel(w, records, info)
}

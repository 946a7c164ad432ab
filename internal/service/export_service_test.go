package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"weatherlog/internal/models"
	"weatherlog/internal/repository"
	"weatherlog/internal/utils"
)

func seedReadings(t *testing.T, repo repository.ReadingRepository, n int) {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := repo.Append(context.Background(), &models.Reading{
			Temperature:       float64(i) + 0.5,
			WindSpeed:         10,
			WindDirection:     models.Directions[i%len(models.Directions)],
			Pressure:          1000 + float64(i),
			PrecipitationRain: 0.1,
			PrecipitationSnow: 0,
			Timestamp:         base.Add(time.Duration(i) * 3 * time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestExportXLSX(t *testing.T) {
	repo := newTestRepository(t)
	seedReadings(t, repo, 3)

	dir := t.TempDir()
	svc, err := NewExportService(repo, ExportConfig{Path: filepath.Join(dir, "weather_data.xlsx")}, discardLogger())
	require.NoError(t, err)

	path, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "weather_data.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(utils.ReadingsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, utils.ReadingHeaders, rows[0])
	// Новые первыми
	newest, err := excelize.ExcelDateToTime(mustParseFloat(t, rows[1][6]), false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Date(2024, 3, 1, 0, 6, 0, 0, time.UTC), newest, time.Millisecond)
	oldest, err := excelize.ExcelDateToTime(mustParseFloat(t, rows[3][6]), false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), oldest, time.Millisecond)
	assert.Equal(t, models.Directions[2].String(), rows[1][2])

	// Временных файлов рядом не осталось
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportEmptyStoreWritesHeaderOnly(t *testing.T) {
	repo := newTestRepository(t)

	svc, err := NewExportService(repo, ExportConfig{Path: filepath.Join(t.TempDir(), "empty.xlsx")}, discardLogger())
	require.NoError(t, err)

	path, err := svc.Export(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(utils.ReadingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, utils.ReadingHeaders, rows[0])
}

func TestExportCSVByExtension(t *testing.T) {
	repo := newTestRepository(t)
	seedReadings(t, repo, 2)

	svc, err := NewExportService(repo, ExportConfig{Path: filepath.Join(t.TempDir(), "out.CSV")}, discardLogger())
	require.NoError(t, err)

	path, err := svc.Export(context.Background())
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1.5", "10", "NE", "1001", "0.1", "0", "2024-03-01T00:03:00Z"}, rows[1])
}

func TestExportOverwritesPreviousFile(t *testing.T) {
	repo := newTestRepository(t)
	seedReadings(t, repo, 1)

	path := filepath.Join(t.TempDir(), "weather.csv")
	svc, err := NewExportService(repo, ExportConfig{Path: path}, discardLogger())
	require.NoError(t, err)

	_, err = svc.Export(context.Background())
	require.NoError(t, err)

	seedReadings(t, repo, 1)
	_, err = svc.Export(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportCanceledContextStillCompletes(t *testing.T) {
	repo := newTestRepository(t)
	seedReadings(t, repo, 2)

	svc, err := NewExportService(repo, ExportConfig{Path: filepath.Join(t.TempDir(), "w.xlsx")}, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Export(ctx)
	assert.NoError(t, err)
}

func TestExportUnwritablePath(t *testing.T) {
	repo := newTestRepository(t)

	svc, err := NewExportService(repo, ExportConfig{Path: filepath.Join(t.TempDir(), "missing", "out.xlsx")}, discardLogger())
	require.NoError(t, err)

	_, err = svc.Export(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrExport)
}

func TestNewExportServiceRejectsUnknownFormat(t *testing.T) {
	_, err := NewExportService(nil, ExportConfig{Path: "x.xlsx", Format: "pdf"}, discardLogger())
	assert.Error(t, err)
}

func mustParseFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoErrorf(t, err, "cell %q", s)
	return v
}

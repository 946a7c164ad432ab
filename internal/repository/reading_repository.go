package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weatherlog/internal/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadingRepository единственный владелец сохраненных показаний. Запись
// только добавлением, чтение согласованным снимком; строки не меняются и не удаляются.
type ReadingRepository interface {
	Append(ctx context.Context, reading *models.Reading) (uint, error)
	ListAllDescendingByTime(ctx context.Context) ([]models.Reading, error)
	ListRecent(ctx context.Context, limit int) ([]models.Reading, error)
	Latest(ctx context.Context) (*models.Reading, error)
	Count(ctx context.Context) (int64, error)
}

type readingRepository struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{
		db:       db,
		validate: validator.New(),
	}
}

var newestFirst = []clause.OrderByColumn{
	{Column: clause.Column{Name: "timestamp"}, Desc: true},
	{Column: clause.Column{Name: "id"}, Desc: true},
}

func (r *readingRepository) Append(ctx context.Context, reading *models.Reading) (uint, error) {
	if reading == nil {
		return 0, fmt.Errorf("%w: nil reading", models.ErrPersistence)
	}
	if reading.ID != 0 {
		return 0, fmt.Errorf("%w: reading already has id %d", models.ErrPersistence, reading.ID)
	}

	// Время в UTC с точностью до микросекунды, как хранит БД
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}
	reading.Timestamp = reading.Timestamp.UTC().Truncate(time.Microsecond)
	if len(reading.SourcePayload) == 0 {
		reading.SourcePayload = []byte("{}")
	}

	if err := r.validate.Struct(reading); err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(reading).Error
	})
	if err != nil {
		// Запись не сохранена, id не выдаем
		reading.ID = 0
		return 0, fmt.Errorf("%w: failed to insert reading: %w", models.ErrPersistence, err)
	}

	return reading.ID, nil
}

func (r *readingRepository) ListAllDescendingByTime(ctx context.Context) ([]models.Reading, error) {
	// Один запрос в транзакции: снимок без частично вставленных строк
	var readings []models.Reading
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Order(clause.OrderBy{Columns: newestFirst}).Find(&readings).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list readings: %w", models.ErrPersistence, err)
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	return readings, nil
}

func (r *readingRepository) ListRecent(ctx context.Context, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		return []models.Reading{}, nil
	}

	var readings []models.Reading
	err := r.db.WithContext(ctx).
		Order(clause.OrderBy{Columns: newestFirst}).
		Limit(limit).
		Find(&readings).
		Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list recent readings: %w", models.ErrPersistence, err)
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	return readings, nil
}

func (r *readingRepository) Latest(ctx context.Context) (*models.Reading, error) {
	var reading models.Reading
	err := r.db.WithContext(ctx).
		Order(clause.OrderBy{Columns: newestFirst}).
		First(&reading).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get latest reading: %w", models.ErrPersistence, err)
	}
	return &reading, nil
}

func (r *readingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reading{}).
		Count(&count).
		Error
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count readings: %w", models.ErrPersistence, err)
	}
	return count, nil
}

package models

import "errors"

// Виды ошибок опроса, хранилища и экспорта.
// Оборачиваются через fmt.Errorf("%w: %w", kind, cause), проверяются errors.Is.
var (
	ErrFetch       = errors.New("fetch error")
	ErrValidation  = errors.New("validation error")
	ErrPersistence = errors.New("persistence error")
	ErrExport      = errors.New("export error")

	// ErrNotFound: в хранилище еще нет показаний.
	ErrNotFound = errors.New("no readings stored")
)

package storage

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingMiddleware добавляет логирование к операциям хранилища
type LoggingMiddleware struct {
	Storage
	logger *logrus.Logger
}

// NewLoggingMiddleware создает новый logging middleware
func NewLoggingMiddleware(storage Storage, logger *logrus.Logger) Storage {
	return &LoggingMiddleware{Storage: storage, logger: logger}
}

// Save логирует операцию сохранения
func (m *LoggingMiddleware) Save(ctx context.Context, key string, reader io.Reader) error {
	return m.observe("save", key, func() error {
		return m.Storage.Save(ctx, key, reader)
	})
}

// Get логирует операцию получения
func (m *LoggingMiddleware) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := m.observe("get", key, func() error {
		var err error
		rc, err = m.Storage.Get(ctx, key)
		return err
	})
	return rc, err
}

// Delete логирует операцию удаления
func (m *LoggingMiddleware) Delete(ctx context.Context, key string) error {
	return m.observe("delete", key, func() error {
		return m.Storage.Delete(ctx, key)
	})
}

func (m *LoggingMiddleware) observe(operation, key string, fn func() error) error {
	start := time.Now()
	logger := m.logger.WithFields(logrus.Fields{
		"operation": operation,
		"key":       key,
	})

	err := fn()

	logger = logger.WithField("duration", time.Since(start))
	if err != nil {
		logger.WithError(err).Error("Ошибка операции с хранилищем")
	} else {
		logger.Debug("Операция с хранилищем выполнена")
	}
	return err
}

// ValidationMiddleware проверяет ключи перед обращением к хранилищу
type ValidationMiddleware struct {
	Storage
}

// NewValidationMiddleware создает новый validation middleware
func NewValidationMiddleware(storage Storage) Storage {
	return &ValidationMiddleware{Storage: storage}
}

func (m *ValidationMiddleware) Save(ctx context.Context, key string, reader io.Reader) error {
	if err := m.ValidateKey(key); err != nil {
		return err
	}
	return m.Storage.Save(ctx, key, reader)
}

func (m *ValidationMiddleware) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := m.ValidateKey(key); err != nil {
		return nil, err
	}
	return m.Storage.Get(ctx, key)
}

func (m *ValidationMiddleware) Delete(ctx context.Context, key string) error {
	if err := m.ValidateKey(key); err != nil {
		return err
	}
	return m.Storage.Delete(ctx, key)
}

func (m *ValidationMiddleware) Exists(ctx context.Context, key string) (bool, error) {
	if err := m.ValidateKey(key); err != nil {
		return false, err
	}
	return m.Storage.Exists(ctx, key)
}

package logging

import (
	"io"
	"time"

	"catalog_srv/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New создает и настраивает логгер на основе конфигурации
func New(cfg config.Logging, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(Output(cfg, out))

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithError(err).Warn("Неверный уровень логирования, используется info")
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	return logger
}

// Output возвращает out, а при заданном файле дублирует запись в файл
// с ротацией по размеру и возрасту.
func Output(cfg config.Logging, out io.Writer) io.Writer {
	if cfg.File == "" {
		return out
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return io.MultiWriter(out, file)
}

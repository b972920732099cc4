package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
)

// InitLogger настраивает глобальный логгер.
// format: json или console; level: debug, info, warn, error.
func InitLogger(level, format string) error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	if format != "console" {
		format = "json"
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(level)),
		Development:       false,
		DisableStacktrace: true,
		Encoding:          format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	built, err := zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	SetLogger(built)
	return nil
}

// SetLogger заменяет глобальный логгер
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger возвращает глобальный логгер для структурированных полей
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// helperLogger пропускает кадр обертки Log*
func helperLogger() *zap.Logger {
	return Logger().WithOptions(zap.AddCallerSkip(1))
}

// SyncLogger сбрасывает буферы логгера
func SyncLogger() {
	_ = Logger().Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogInfo логирует информационное сообщение
func LogInfo(format string, v ...interface{}) {
	helperLogger().Info(fmt.Sprintf(format, v...))
}

// LogWarn логирует предупреждение
func LogWarn(format string, v ...interface{}) {
	helperLogger().Warn(fmt.Sprintf(format, v...))
}

// LogError логирует сообщение об ошибке
func LogError(format string, v ...interface{}) {
	helperLogger().Error(fmt.Sprintf(format, v...))
}

// LogDebug логирует отладочное сообщение
func LogDebug(format string, v ...interface{}) {
	helperLogger().Debug(fmt.Sprintf(format, v...))
}

// LogOperation логирует операцию с длительностью
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	log := helperLogger()
	if err != nil {
		log.Error("operation failed",
			zap.String("operation", operation),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	log.Info("operation completed",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
	)
}

package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// level общий для всех логгеров, созданных Initialize.
var level = zap.NewAtomicLevel()

// ParseLevel разбирает имя уровня логирования: debug, info, warn или error.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrUnknownLogLevel, name)
}

// Initialize создаёт JSON-логгер zap с уровнем levelName.
//
// Логи пишутся в stdout и, если file не пуст, дополнительно в файл.
// Уровень можно изменить позже через SetLevel.
func Initialize(levelName, file string) (*zap.Logger, error) {
	lvl, err := ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	level.SetLevel(lvl)

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, err
		}
		config.OutputPaths = append(config.OutputPaths, file)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = level

	return config.Build()
}

// SetLevel меняет уровень логгера, созданного Initialize, без его пересоздания.
func SetLevel(levelName string) error {
	lvl, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// Level возвращает текущий уровень логирования.
func Level() zapcore.Level {
	return level.Level()
}

// RequestLogger возвращает middleware, логирующий каждый HTTP-запрос.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			h.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("HTTP request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("url", r.RequestURI),
				zap.Int("status", status),
				zap.Int("size", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

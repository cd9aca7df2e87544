package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch следит за файлом конфигурации и вызывает onChange с перечитанным
// содержимым после каждой записи в файл. Работает до отмены ctx.
//
// Если файл не удаётся перечитать, ошибка логируется, а onChange не вызывается.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(*FileConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Info("Watching config file", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Редакторы сохраняют файл через переименование, поэтому учитываем и Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			fc, err := LoadFile(path)
			if err != nil {
				logger.Error("Config reload failed, keeping previous config",
					zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Info("Config reloaded", zap.String("path", path))
			onChange(fc)

			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Config watcher error", zap.Error(err))
		}
	}
}

// ReloadLogLevel возвращает обработчик для Watch, применяющий уровень
// логирования из файла. Уровень, заданный окружением, не переопределяется.
func ReloadLogLevel(cfg *Config, logger *zap.Logger) func(*FileConfig) {
	return func(fc *FileConfig) {
		if cfg.LogLevelFromEnv || fc.LogLevel == "" {
			return
		}
		if err := SetLevel(fc.LogLevel); err != nil {
			logger.Warn("Ignoring log level from config file", zap.String("level", fc.LogLevel), zap.Error(err))
			return
		}
		logger.Info("Log level changed", zap.String("level", fc.LogLevel))
	}
}

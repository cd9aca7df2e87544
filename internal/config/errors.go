package config

import "errors"

// Ошибки разбора конфигурации.
var (
	// ErrNotSeconds возвращается, если значение интервала не является целым положительным числом секунд.
	ErrNotSeconds = errors.New("must be a positive integer number of seconds")
	// ErrUnknownLogLevel возвращается для неизвестного уровня логирования.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrUnsupportedFormat возвращается для файла конфигурации с неподдерживаемым расширением.
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

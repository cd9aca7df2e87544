package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig представляет конфигурацию экспортера в файле JSON или YAML.
//
// Интервалы задаются строкой длительности ("30s", "1m").
type FileConfig struct {
	TargetURL      string `json:"ont_url" yaml:"ont_url"`                 // ONT_URL
	Username       string `json:"ont_user" yaml:"ont_user"`               // ONT_USER
	Password       string `json:"ont_pass" yaml:"ont_pass"`               // ONT_PASS
	ScrapeInterval string `json:"scrape_interval" yaml:"scrape_interval"` // SCRAPE_INTERVAL
	ScrapeTimeout  string `json:"scrape_timeout" yaml:"scrape_timeout"`   // SCRAPE_TIMEOUT
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"` // REQUEST_TIMEOUT
	LogLevel       string `json:"log_level" yaml:"log_level"`             // LOG_LEVEL или флаг -l
	LogFile        string `json:"log_file" yaml:"log_file"`               // LOG_FILE
	Address        string `json:"address" yaml:"address"`                 // ADDRESS или флаг -a
}

// LoadFile загружает конфигурацию из файла.
//
// Формат определяется по расширению: .yaml и .yml читаются как YAML, .json как JSON.
// Пустой путь не является ошибкой: возвращается пустая конфигурация.
func LoadFile(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ParseDuration парсит строку длительности в формате "1s", "1m", "1h".
// Если строка пуста, возвращает 0 и nil.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	return d, nil
}

// GetConfigFilePathWithFlag получает путь к файлу конфигурации, учитывая явно переданный флаг.
func GetConfigFilePathWithFlag(flagValue string) string {
	// Флаги имеют больший приоритет
	if flagValue != "" {
		return flagValue
	}
	return EnvString(EnvConfig)
}

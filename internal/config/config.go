package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Константы для имен переменных окружения
const (
	EnvTargetURL      = "ONT_URL"
	EnvUsername       = "ONT_USER"
	EnvPassword       = "ONT_PASS"
	EnvScrapeInterval = "SCRAPE_INTERVAL"
	EnvScrapeTimeout  = "SCRAPE_TIMEOUT"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFile        = "LOG_FILE"
	EnvAddress        = "ADDRESS"
	EnvConfig         = "CONFIG"
)

// Константы для флагов командной строки
const (
	FlagAddress  = "a"
	FlagConfig   = "c"
	FlagLogLevel = "l"
)

// Значения по умолчанию.
const (
	DefaultScrapeInterval = 30 * time.Second
	DefaultScrapeTimeout  = 25 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Config хранит итоговую конфигурацию экспортера.
//
// Источники применяются в порядке: значения по умолчанию, файл, флаги, окружение.
// Каждый следующий источник перекрывает предыдущий.
type Config struct {
	TargetURL      string        `env:"ONT_URL" validate:"required,url"`
	Username       string        `env:"ONT_USER" validate:"required"`
	Password       string        `env:"ONT_PASS" validate:"required"`
	ScrapeInterval time.Duration `env:"SCRAPE_INTERVAL" validate:"gt=0"`
	ScrapeTimeout  time.Duration `env:"SCRAPE_TIMEOUT" validate:"gt=0,ltefield=ScrapeInterval"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`
	LogLevel       string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFile        string        `env:"LOG_FILE"`
	Address        NetAddress    `env:"ADDRESS"`

	// ConfigFile содержит путь к файлу, из которого была прочитана конфигурация.
	ConfigFile string `env:"-" validate:"-"`
	// LogLevelFromEnv сообщает, что уровень логирования задан окружением
	// и не должен переопределяться при перечитывании файла.
	LogLevelFromEnv bool `env:"-" validate:"-"`
}

// String возвращает описание конфигурации без пароля.
func (c Config) String() string {
	return fmt.Sprintf("target=%s user=%s interval=%s timeout=%s request_timeout=%s address=%s log_level=%s",
		c.TargetURL, c.Username, c.ScrapeInterval, c.ScrapeTimeout, c.RequestTimeout, c.Address, c.LogLevel)
}

// Load собирает конфигурацию из аргументов командной строки, файла и окружения
// и проверяет её.
//
// args передаются без имени программы (обычно os.Args[1:]).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("huawei-ont-exporter", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	addr := DefaultAddress()
	fs.Var(&addr, FlagAddress, "Net address host:port")
	configPath := fs.String(FlagConfig, "", "Path to JSON or YAML config file")
	logLevel := fs.String(FlagLogLevel, "", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg := &Config{
		ScrapeInterval: DefaultScrapeInterval,
		ScrapeTimeout:  DefaultScrapeTimeout,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
		Address:        DefaultAddress(),
		ConfigFile:     GetConfigFilePathWithFlag(*configPath),
	}

	timeoutSet, err := cfg.applyFile()
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case FlagAddress:
			cfg.Address = addr
		case FlagLogLevel:
			cfg.LogLevel = *logLevel
		}
	})

	envTimeoutSet, err := cfg.applyEnv()
	if err != nil {
		return nil, err
	}

	// Бюджет цикла не может превышать интервал между циклами.
	if !timeoutSet && !envTimeoutSet && cfg.ScrapeTimeout > cfg.ScrapeInterval {
		cfg.ScrapeTimeout = cfg.ScrapeInterval
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile применяет значения из файла конфигурации. Возвращает true,
// если файл явно задаёт бюджет цикла.
func (c *Config) applyFile() (bool, error) {
	if c.ConfigFile == "" {
		return false, nil
	}
	fc, err := LoadFile(c.ConfigFile)
	if err != nil {
		return false, err
	}

	setString(&c.TargetURL, fc.TargetURL)
	setString(&c.Username, fc.Username)
	setString(&c.Password, fc.Password)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFile, fc.LogFile)

	if fc.Address != "" {
		if err := c.Address.Set(fc.Address); err != nil {
			return false, fmt.Errorf("invalid address in config file: %w", err)
		}
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"scrape_interval", fc.ScrapeInterval, &c.ScrapeInterval},
		{"scrape_timeout", fc.ScrapeTimeout, &c.ScrapeTimeout},
		{"request_timeout", fc.RequestTimeout, &c.RequestTimeout},
	}
	for _, d := range durations {
		v, err := ParseDuration(d.raw)
		if err != nil {
			return false, fmt.Errorf("%s in config file: %w", d.name, err)
		}
		if v != 0 {
			*d.dst = v
		}
	}
	return fc.ScrapeTimeout != "", nil
}

// applyEnv применяет переменные окружения. Возвращает true, если окружение
// явно задаёт бюджет цикла.
func (c *Config) applyEnv() (bool, error) {
	setString(&c.TargetURL, EnvString(EnvTargetURL))
	setString(&c.Username, EnvString(EnvUsername))
	setString(&c.Password, EnvString(EnvPassword))
	setString(&c.LogFile, EnvString(EnvLogFile))
	if lvl := EnvString(EnvLogLevel); lvl != "" {
		c.LogLevel = lvl
		c.LogLevelFromEnv = true
	}

	if _, err := EnvServer(&c.Address, EnvAddress); err != nil {
		return false, err
	}

	var timeoutSet bool
	durations := []struct {
		key string
		dst *time.Duration
		set *bool
	}{
		{EnvScrapeInterval, &c.ScrapeInterval, nil},
		{EnvScrapeTimeout, &c.ScrapeTimeout, &timeoutSet},
		{EnvRequestTimeout, &c.RequestTimeout, nil},
	}
	for _, d := range durations {
		v, ok, err := EnvSeconds(d.key)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		*d.dst = v
		if d.set != nil {
			*d.set = true
		}
	}
	return timeoutSet, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

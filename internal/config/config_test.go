package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvTargetURL, EnvUsername, EnvPassword, EnvScrapeInterval, EnvScrapeTimeout,
	EnvRequestTimeout, EnvLogLevel, EnvLogFile, EnvAddress, EnvConfig,
}

// setEnv очищает все переменные конфигурации и устанавливает переданные.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func requiredEnv() map[string]string {
	return map[string]string{
		EnvTargetURL: "http://192.168.100.1",
		EnvUsername:  "root",
		EnvPassword:  "admin",
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, requiredEnv())

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "http://192.168.100.1", cfg.TargetURL)
	require.Equal(t, "root", cfg.Username)
	require.Equal(t, "admin", cfg.Password)
	require.Equal(t, 30*time.Second, cfg.ScrapeInterval)
	require.Equal(t, 25*time.Second, cfg.ScrapeTimeout)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "0.0.0.0:8000", cfg.Address.String())
	require.False(t, cfg.LogLevelFromEnv)
	require.NotContains(t, cfg.String(), "admin")
}

func TestLoad_Errors_TableDriven(t *testing.T) {
	tests := []struct {
		name      string
		drop      string
		set       map[string]string
		wantField string
		wantErr   error
	}{
		{name: "missing url", drop: EnvTargetURL, wantField: EnvTargetURL},
		{name: "missing user", drop: EnvUsername, wantField: EnvUsername},
		{name: "missing password", drop: EnvPassword, wantField: EnvPassword},
		{name: "bad url", set: map[string]string{EnvTargetURL: "not a url"}, wantField: EnvTargetURL},
		{name: "zero interval", set: map[string]string{EnvScrapeInterval: "0"}, wantErr: ErrNotSeconds},
		{name: "text interval", set: map[string]string{EnvScrapeInterval: "often"}, wantErr: ErrNotSeconds},
		{name: "huge interval", set: map[string]string{EnvScrapeInterval: "20000000000"}, wantErr: ErrNotSeconds},
		{name: "unknown log level", set: map[string]string{EnvLogLevel: "verbose"}, wantField: EnvLogLevel},
		{name: "timeout above interval", set: map[string]string{EnvScrapeInterval: "10", EnvScrapeTimeout: "20"}, wantField: EnvScrapeTimeout},
		{name: "bad port", set: map[string]string{EnvAddress: "0.0.0.0:99999"}, wantField: "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := requiredEnv()
			delete(env, tt.drop)
			for k, v := range tt.set {
				env[k] = v
			}
			setEnv(t, env)

			_, err := Load(nil)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			var ve *ValidationErrors
			require.True(t, errors.As(err, &ve), "expected *ValidationErrors, got %T", err)
			require.Len(t, ve.Errors, 1)
			require.Equal(t, tt.wantField, ve.Errors[0].Field)
		})
	}
}

func TestLoad_MissingEverythingListsAllFields(t *testing.T) {
	setEnv(t, nil)

	_, err := Load(nil)
	var ve *ValidationErrors
	require.True(t, errors.As(err, &ve))

	var fields []string
	for _, e := range ve.Errors {
		fields = append(fields, e.Field)
	}
	require.ElementsMatch(t, []string{EnvTargetURL, EnvUsername, EnvPassword}, fields)
	require.Contains(t, err.Error(), "ONT_URL is required")
}

func TestLoad_ShortIntervalClampsDefaultTimeout(t *testing.T) {
	env := requiredEnv()
	env[EnvScrapeInterval] = "5"
	setEnv(t, env)

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.ScrapeInterval)
	require.Equal(t, 5*time.Second, cfg.ScrapeTimeout)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "exporter.yaml", `
ont_url: http://10.0.0.1
ont_user: file-user
ont_pass: file-pass
scrape_interval: 1m
log_level: debug
address: 127.0.0.1:9000
`)

	t.Run("file over defaults", func(t *testing.T) {
		setEnv(t, nil)
		cfg, err := Load([]string{"-c", path})
		require.NoError(t, err)
		require.Equal(t, "http://10.0.0.1", cfg.TargetURL)
		require.Equal(t, "file-user", cfg.Username)
		require.Equal(t, time.Minute, cfg.ScrapeInterval)
		require.Equal(t, 25*time.Second, cfg.ScrapeTimeout)
		require.Equal(t, "debug", cfg.LogLevel)
		require.Equal(t, "127.0.0.1:9000", cfg.Address.String())
		require.Equal(t, path, cfg.ConfigFile)
	})

	t.Run("flags over file", func(t *testing.T) {
		setEnv(t, nil)
		cfg, err := Load([]string{"-c", path, "-a", "localhost:9100", "-l", "warn"})
		require.NoError(t, err)
		require.Equal(t, "localhost:9100", cfg.Address.String())
		require.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("env over flags", func(t *testing.T) {
		setEnv(t, map[string]string{
			EnvConfig:         path,
			EnvAddress:        "0.0.0.0:9200",
			EnvLogLevel:       "ERROR",
			EnvScrapeInterval: "45",
			EnvUsername:       "env-user",
		})
		cfg, err := Load([]string{"-a", "localhost:9100", "-l", "warn"})
		require.NoError(t, err)
		require.Equal(t, "0.0.0.0:9200", cfg.Address.String())
		require.Equal(t, "error", cfg.LogLevel)
		require.True(t, cfg.LogLevelFromEnv)
		require.Equal(t, 45*time.Second, cfg.ScrapeInterval)
		require.Equal(t, "env-user", cfg.Username)
		require.Equal(t, "file-pass", cfg.Password)
	})
}

func TestLoad_BadFlag(t *testing.T) {
	setEnv(t, requiredEnv())
	_, err := Load([]string{"-unknown"})
	require.Error(t, err)
}

func TestLoad_BadConfigFile(t *testing.T) {
	setEnv(t, requiredEnv())

	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)

	_, err = Load([]string{"-c", writeFile(t, "exporter.toml", "a = 1")})
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load([]string{"-c", writeFile(t, "exporter.json", `{"scrape_interval": "soon"}`)})
	require.Error(t, err)
}

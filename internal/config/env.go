package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// AddrSetter определяет интерфейс для установки адреса из строки.
type AddrSetter interface {
	Set(string) error
}

// EnvServer устанавливает адрес сервера из переменной окружения.
//
// Если переменная окружения с именем envKey присутствует, функция вызывает метод Set интерфейса AddrSetter
// с её значением. В случае ошибки возвращает ошибку с описанием.
//
// Возвращает true, если переменная была задана.
func EnvServer(addr AddrSetter, envKey string) (bool, error) {
	envVal, ok := os.LookupEnv(envKey)
	if !ok || envVal == "" {
		return false, nil
	}
	if err := addr.Set(envVal); err != nil {
		return true, fmt.Errorf("invalid %s: %w", envKey, err)
	}
	return true, nil
}

// EnvInt возвращает значение переменной окружения как int.
//
// Если переменная не задана или пуста, возвращает 0 и nil.
// Если значение не может быть преобразовано в int, возвращает ошибку.
func EnvInt(key string) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

// maxSeconds ограничивает интервал значением, представимым в time.Duration.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// EnvSeconds читает интервал, заданный целым числом секунд.
//
// Второе возвращаемое значение сообщает, была ли переменная задана.
// Ноль, отрицательные, дробные и слишком большие значения считаются ошибкой.
func EnvSeconds(key string) (time.Duration, bool, error) {
	if EnvString(key) == "" {
		return 0, false, nil
	}
	n, err := EnvInt(key)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s: %w", key, ErrNotSeconds)
	}
	if n <= 0 || int64(n) > maxSeconds {
		return 0, true, fmt.Errorf("invalid %s=%d: %w", key, n, ErrNotSeconds)
	}
	return time.Duration(n) * time.Second, true, nil
}

// EnvString возвращает значение переменной окружения как строку.
//
// Если переменная не задана или пуста, возвращает пустую строку.
func EnvString(key string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return ""
}

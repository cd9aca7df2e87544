package config

import (
	"strconv"
	"strings"
)

// Адрес HTTP-сервера по умолчанию.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8000
)

// NetAddress представляет сетевой адрес с хостом и портом.
//
// Используется для конфигурации адреса сервера через флаги командной строки или переменные окружения.
// Реализует интерфейсы flag.Value и AddrSetter.
type NetAddress struct {
	Host string
	Port int `validate:"gte=0,lte=65535"`
}

// String возвращает строковое представление сетевого адреса в формате host:port.
func (a NetAddress) String() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set разбирает строку вида host:port и устанавливает значения Host и Port.
//
// Если порт не указан, используется DefaultPort.
// Возвращает ошибку, если порт не удаётся преобразовать в число.
func (a *NetAddress) Set(s string) error {
	host, port, found := strings.Cut(s, ":")
	if !found {
		a.Host = s
		a.Port = DefaultPort
		return nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return err
	}
	a.Host = host
	a.Port = p
	return nil
}

// DefaultAddress возвращает адрес, на котором сервер слушает по умолчанию.
func DefaultAddress() NetAddress {
	return NetAddress{Host: DefaultHost, Port: DefaultPort}
}

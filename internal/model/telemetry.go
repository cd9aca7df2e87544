package models

// Sample представляет один полный набор показаний оптического трансивера ONT.
//
// Значение неизменяемо после создания: сэмпл либо публикуется целиком,
// либо не публикуется вовсе.
//
// Поля:
//   - TxPowerDBm: мощность передачи, дБм
//   - RxPowerDBm: мощность приёма, дБм
//   - VoltageMV: рабочее напряжение, мВ
//   - BiasCurrentMA: ток смещения лазера, мА
//   - TemperatureC: рабочая температура, °C
//   - Optic: идентификация трансивера (может быть пустой)
type Sample struct {
	TxPowerDBm    float64   `json:"tx_power_dbm"`
	RxPowerDBm    float64   `json:"rx_power_dbm"`
	VoltageMV     int64     `json:"working_voltage_mv"`
	BiasCurrentMA float64   `json:"bias_current_ma"`
	TemperatureC  float64   `json:"working_temperature_celsius"`
	Optic         OpticInfo `json:"optic"`
}

// OpticInfo содержит необязательные строковые атрибуты трансивера.
// Отсутствие любого из полей не считается ошибкой разбора.
type OpticInfo struct {
	LinkStatus string `json:"link_status,omitempty"`
	Vendor     string `json:"vendor,omitempty"`
	Serial     string `json:"serial,omitempty"`
}

// ScrapeErrorKind описывает причину неудачного цикла опроса и служит значением метки kind.
type ScrapeErrorKind string

const (
	KindTokenFetch   ScrapeErrorKind = "token_fetch"
	KindAuthFailed   ScrapeErrorKind = "auth_failed"
	KindFetchFailed  ScrapeErrorKind = "fetch_failed"
	KindParseFailed  ScrapeErrorKind = "parse_failed"
	KindTimeout      ScrapeErrorKind = "timeout"
	KindLogoutFailed ScrapeErrorKind = "logout_failed"
	KindUnknown      ScrapeErrorKind = "unknown"
)

// ScrapeErrorKinds возвращает известные причины ошибок в стабильном порядке.
// Счётчики ошибок инициализируются нулём для каждой из них.
func ScrapeErrorKinds() []ScrapeErrorKind {
	return []ScrapeErrorKind{
		KindTokenFetch,
		KindAuthFailed,
		KindFetchFailed,
		KindParseFailed,
		KindTimeout,
		KindLogoutFailed,
	}
}

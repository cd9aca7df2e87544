package ont

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	models "github.com/RoGogDBD/huawei-ont-exporter/internal/model"
)

// Field names reported by ParseError.
const (
	FieldTxPower     = "tx_power"
	FieldRxPower     = "rx_power"
	FieldVoltage     = "working_voltage"
	FieldBiasCurrent = "bias_current"
	FieldTemperature = "working_temperature"
)

// Layout describes where the optic page keeps each reading. The page embeds
// a JS constructor call such as
//
//	new stOpticInfo("InternetGatewayDevice.X_HW_DEBUG.AMP.Optic","ok","\x202\x2e33",...)
//
// and every field is addressed by its zero-based argument position.
// Optional positions are disabled with -1.
type Layout struct {
	Constructor string

	TxPower     int
	RxPower     int
	Voltage     int
	Temperature int
	BiasCurrent int

	LinkStatus int
	Vendor     int
	Serial     int
}

// DefaultLayout matches HG8145/HG8245 firmware.
var DefaultLayout = Layout{
	Constructor: "stOpticInfo",
	TxPower:     2,
	RxPower:     3,
	Voltage:     4,
	Temperature: 5,
	BiasCurrent: 6,
	LinkStatus:  1,
	Vendor:      9,
	Serial:      10,
}

var quotedArg = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

// constructorCalls caches compiled constructor patterns by constructor name.
var constructorCalls sync.Map

func constructorCall(name string) *regexp.Regexp {
	if re, ok := constructorCalls.Load(name); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`new\s+` + regexp.QuoteMeta(name) + `\s*\(([^)]*)\)`)
	actual, _ := constructorCalls.LoadOrStore(name, re)
	return actual.(*regexp.Regexp)
}

// Parse decodes the optic page with DefaultLayout.
func Parse(body string) (models.Sample, error) {
	return DefaultLayout.Parse(body)
}

// Parse extracts a complete sample from body. Either all five readings are
// decoded or an error naming the first bad field is returned.
func (l Layout) Parse(body string) (models.Sample, error) {
	m := constructorCall(l.Constructor).FindStringSubmatch(body)
	if m == nil {
		return models.Sample{}, &ParseError{Field: l.Constructor, Err: ErrConstructorNotFound}
	}
	args := splitArgs(m[1])

	var (
		s   models.Sample
		err error
	)
	if s.TxPowerDBm, err = floatArg(args, l.TxPower, FieldTxPower, false); err != nil {
		return models.Sample{}, err
	}
	if s.RxPowerDBm, err = floatArg(args, l.RxPower, FieldRxPower, false); err != nil {
		return models.Sample{}, err
	}
	if s.VoltageMV, err = intArg(args, l.Voltage, FieldVoltage); err != nil {
		return models.Sample{}, err
	}
	if s.BiasCurrentMA, err = floatArg(args, l.BiasCurrent, FieldBiasCurrent, true); err != nil {
		return models.Sample{}, err
	}
	if s.TemperatureC, err = floatArg(args, l.Temperature, FieldTemperature, false); err != nil {
		return models.Sample{}, err
	}

	s.Optic = models.OpticInfo{
		LinkStatus: stringArg(args, l.LinkStatus),
		Vendor:     stringArg(args, l.Vendor),
		Serial:     stringArg(args, l.Serial),
	}
	return s, nil
}

// splitArgs returns the decoded quoted arguments of the constructor call.
// Firmware escapes punctuation as \xNN, which strconv.Unquote understands.
func splitArgs(raw string) []string {
	matches := quotedArg.FindAllStringSubmatch(raw, -1)
	args := make([]string, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.Unquote(`"` + m[1] + `"`)
		if err != nil {
			v = m[1]
		}
		args = append(args, strings.TrimSpace(v))
	}
	return args
}

func rawArg(args []string, idx int, field string) (string, error) {
	if idx < 0 || idx >= len(args) || args[idx] == "" {
		return "", &ParseError{Field: field, Err: ErrFieldMissing}
	}
	return args[idx], nil
}

func floatArg(args []string, idx int, field string, nonNegative bool) (float64, error) {
	raw, err := rawArg(args, idx, field)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Field: field, Value: raw, Err: ErrNotNumeric}
	}
	if nonNegative && v < 0 {
		return 0, &ParseError{Field: field, Value: raw, Err: ErrNegative}
	}
	return v, nil
}

func intArg(args []string, idx int, field string) (int64, error) {
	raw, err := rawArg(args, idx, field)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: raw, Err: ErrNotNumeric}
	}
	if v < 0 {
		return 0, &ParseError{Field: field, Value: raw, Err: ErrNegative}
	}
	return v, nil
}

// stringArg returns an optional identity field. Escapes above \x7f decode to
// invalid UTF-8, which is replaced so the value stays usable as a label.
func stringArg(args []string, idx int) string {
	if idx < 0 || idx >= len(args) {
		return ""
	}
	return strings.ToValidUTF8(args[idx], "\uFFFD")
}

package repository

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	models "github.com/RoGogDBD/huawei-ont-exporter/internal/model"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/version"
)

// Имена метрик, публикуемых на /metrics.
const (
	MetricTxPower        = "huawei_ont_optical_tx_power_dbm"
	MetricRxPower        = "huawei_ont_optical_rx_power_dbm"
	MetricVoltage        = "huawei_ont_working_voltage_mv"
	MetricBiasCurrent    = "huawei_ont_bias_current_ma"
	MetricTemperature    = "huawei_ont_working_temperature_celsius"
	MetricOpticInfo      = "huawei_ont_optic_info"
	MetricLastSuccess    = "huawei_ont_last_scrape_success_timestamp_seconds"
	MetricScrapes        = "huawei_ont_scrapes_total"
	MetricScrapeErrors   = "huawei_ont_scrape_errors_total"
	MetricScrapeDuration = "huawei_ont_scrape_duration_seconds"
	MetricHTTPRequests   = "huawei_ont_http_requests_total"
	MetricHTTPErrors     = "huawei_ont_http_requests_errors_total"
	MetricExporterBuild  = "huawei_ont_exporter_build_info"
	scrapeErrorKindLabel = "kind"
)

// ContentType задаёт тип содержимого текстового формата экспозиции Prometheus.
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// ScrapeDurationBuckets задаёт границы гистограммы длительности цикла опроса в секундах.
var ScrapeDurationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10}

// HTTPOutcome описывает итог обработки HTTP-запроса.
type HTTPOutcome int

const (
	HTTPSuccess HTTPOutcome = iota
	HTTPFailure
)

// Store определяет интерфейс хранилища последнего сэмпла и служебных счётчиков.
//
// Писатель один (планировщик опроса), читателей много (HTTP-обработчики).
type Store interface {
	// RecordSuccess атомарно заменяет сэмпл и учитывает попытку опроса.
	RecordSuccess(sample models.Sample, duration time.Duration)
	// RecordFailure учитывает неудачную попытку опроса, не трогая сэмпл.
	RecordFailure(kind models.ScrapeErrorKind, duration time.Duration)
	// RecordLogoutFailure учитывает неудачный выход из сессии устройства.
	RecordLogoutFailure()
	// RecordHTTP учитывает обслуженный HTTP-запрос.
	RecordHTTP(outcome HTTPOutcome)
	// Render возвращает полный снимок метрик в текстовом формате Prometheus.
	Render() ([]byte, error)
	// Sample возвращает последний успешный сэмпл и флаг его наличия.
	Sample() (models.Sample, bool)
}

// snapshot хранит последний успешный сэмпл вместе со временем его получения.
type snapshot struct {
	sample models.Sample
	at     time.Time
}

// MetricsStore реализует Store поверх реестра prometheus.
//
// Мьютекс защищает только переходы состояния в памяти: запись берёт Lock,
// Render берёт RLock на время сбора метрик, поэтому читатель всегда видит
// согласованные между собой сэмпл и счётчики. Сетевой ввод-вывод под
// мьютексом не выполняется.
type MetricsStore struct {
	mu      sync.RWMutex
	current atomic.Pointer[snapshot]

	registry       *prometheus.Registry
	scrapes        prometheus.Counter
	scrapeErrors   *prometheus.CounterVec
	scrapeDuration prometheus.Histogram
	httpRequests   prometheus.Counter
	httpErrors     prometheus.Counter

	logger *zap.Logger
	now    func() time.Time
}

// NewMetricsStore создаёт хранилище и регистрирует все метрики.
//
// Счётчики ошибок заранее инициализируются нулём для каждой известной причины,
// чтобы они присутствовали в выводе до первого опроса.
func NewMetricsStore(build version.Info, logger *zap.Logger) *MetricsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MetricsStore{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		scrapes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricScrapes,
			Help: "Total number of scrapes attempted",
		}),
		scrapeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricScrapeErrors,
			Help: "Total number of scrape errors by kind",
		}, []string{scrapeErrorKindLabel}),
		scrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricScrapeDuration,
			Help:    "Duration of ONT scrape in seconds",
			Buckets: ScrapeDurationBuckets,
		}),
		httpRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricHTTPRequests,
			Help: "Total number of HTTP requests",
		}),
		httpErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricHTTPErrors,
			Help: "Total number of HTTP request errors",
		}),
		now: time.Now,
	}

	for _, kind := range models.ScrapeErrorKinds() {
		s.scrapeErrors.WithLabelValues(string(kind))
	}

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricExporterBuild,
		Help: "Exporter build information (always 1)",
		ConstLabels: prometheus.Labels{
			"version": build.Version,
			"commit":  build.Commit,
			"date":    build.Date,
		},
	})
	buildInfo.Set(1)

	s.registry.MustRegister(
		newSampleCollector(s),
		s.scrapes,
		s.scrapeErrors,
		s.scrapeDuration,
		s.httpRequests,
		s.httpErrors,
		buildInfo,
	)
	return s
}

// RecordSuccess атомарно заменяет сэмпл, увеличивает счётчик попыток и
// фиксирует длительность цикла.
func (s *MetricsStore) RecordSuccess(sample models.Sample, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(&snapshot{sample: sample, at: s.now()})
	s.scrapes.Inc()
	s.scrapeDuration.Observe(duration.Seconds())
}

// RecordFailure увеличивает счётчики попыток и ошибок по причине kind.
// Сохранённый сэмпл остаётся прежним.
func (s *MetricsStore) RecordFailure(kind models.ScrapeErrorKind, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrapes.Inc()
	s.scrapeErrors.WithLabelValues(string(kind)).Inc()
	s.scrapeDuration.Observe(duration.Seconds())
}

// RecordLogoutFailure увеличивает только счётчик ошибок logout_failed:
// неудачный выход не меняет итог цикла.
func (s *MetricsStore) RecordLogoutFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrapeErrors.WithLabelValues(string(models.KindLogoutFailed)).Inc()
}

// RecordHTTP увеличивает счётчик HTTP-запросов и, при неудаче, счётчик ошибок.
func (s *MetricsStore) RecordHTTP(outcome HTTPOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpRequests.Inc()
	if outcome == HTTPFailure {
		s.httpErrors.Inc()
	}
}

// Sample возвращает последний успешный сэмпл.
func (s *MetricsStore) Sample() (models.Sample, bool) {
	snap := s.current.Load()
	if snap == nil {
		return models.Sample{}, false
	}
	return snap.sample, true
}

// Gather собирает семейства метрик под одной блокировкой чтения.
func (s *MetricsStore) Gather() ([]*dto.MetricFamily, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Gather()
}

// Render кодирует согласованный снимок метрик в текстовый формат экспозиции.
func (s *MetricsStore) Render() ([]byte, error) {
	mfs, err := s.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return nil, fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}

// sampleCollector публикует показания последнего сэмпла как константные gauge.
// До первого успешного опроса он не отдаёт ни одной метрики.
type sampleCollector struct {
	store *MetricsStore

	tx, rx, voltage, bias, temperature *prometheus.Desc
	info, lastSuccess                  *prometheus.Desc
}

func newSampleCollector(store *MetricsStore) *sampleCollector {
	return &sampleCollector{
		store:       store,
		tx:          prometheus.NewDesc(MetricTxPower, "Transmit optical power in dBm", nil, nil),
		rx:          prometheus.NewDesc(MetricRxPower, "Receive optical power in dBm", nil, nil),
		voltage:     prometheus.NewDesc(MetricVoltage, "Working voltage in mV", nil, nil),
		bias:        prometheus.NewDesc(MetricBiasCurrent, "Bias current in mA", nil, nil),
		temperature: prometheus.NewDesc(MetricTemperature, "Working temperature in Celsius", nil, nil),
		info: prometheus.NewDesc(MetricOpticInfo, "Optical transceiver information (always 1)",
			[]string{"link_status", "vendor", "serial"}, nil),
		lastSuccess: prometheus.NewDesc(MetricLastSuccess, "Unix time of the last successful scrape", nil, nil),
	}
}

func (c *sampleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tx
	ch <- c.rx
	ch <- c.voltage
	ch <- c.bias
	ch <- c.temperature
	ch <- c.info
	ch <- c.lastSuccess
}

func (c *sampleCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.current.Load()
	if snap == nil {
		return
	}
	s := snap.sample

	c.emit(ch, c.tx, s.TxPowerDBm)
	c.emit(ch, c.rx, s.RxPowerDBm)
	c.emit(ch, c.voltage, float64(s.VoltageMV))
	c.emit(ch, c.bias, s.BiasCurrentMA)
	c.emit(ch, c.temperature, s.TemperatureC)
	c.emit(ch, c.info, 1, s.Optic.LinkStatus, s.Optic.Vendor, s.Optic.Serial)
	c.emit(ch, c.lastSuccess, float64(snap.at.UnixNano())/1e9)
}

// emit отправляет gauge в ch. Метрику, которую не удалось построить
// (например, из-за некорректной метки), пропускает с записью в лог.
func (c *sampleCollector) emit(ch chan<- prometheus.Metric, desc *prometheus.Desc, value float64, labels ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, value, labels...)
	if err != nil {
		c.store.logger.Error("Dropped sample metric", zap.String("desc", desc.String()), zap.Error(err))
		return
	}
	ch <- m
}

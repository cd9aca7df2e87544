package agent

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	models "github.com/RoGogDBD/huawei-ont-exporter/internal/model"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/ont"
)

// Scraper выполняет один полный цикл опроса устройства.
type Scraper interface {
	Scrape(ctx context.Context, target ont.Target) (ont.Result, error)
}

// Recorder принимает итоги циклов опроса.
type Recorder interface {
	RecordSuccess(sample models.Sample, duration time.Duration)
	RecordFailure(kind models.ScrapeErrorKind, duration time.Duration)
	RecordLogoutFailure()
}

// State описывает состояние планировщика.
type State int32

const (
	Idle State = iota
	Scraping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scraping:
		return "scraping"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type Options struct {
	Target   ont.Target
	Interval time.Duration
	// Timeout ограничивает цикл опроса. Выход из сессии ограничен
	// собственным таймаутом клиента и переживает истечение цикла.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Scheduler запускает циклы опроса по таймеру, не допуская их пересечения.
type Scheduler struct {
	scraper  Scraper
	recorder Recorder
	opts     Options
	logger   *zap.Logger
	state    atomic.Int32
}

func NewScheduler(scraper Scraper, recorder Recorder, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Scheduler{
		scraper:  scraper,
		recorder: recorder,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// State возвращает текущее состояние планировщика.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run выполняет первый цикл сразу, затем по одному на каждый тик до отмены ctx.
// Цикл, начатый до отмены, завершается (в пределах своего бюджета) до возврата из Run.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Scrape scheduler started",
		zap.String("target", s.opts.Target.BaseURL),
		zap.Duration("interval", s.opts.Interval),
		zap.Duration("timeout", s.opts.Timeout),
	)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scrape scheduler stopped")
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			s.RunOnce(ctx)

			// Тик, пришедший во время цикла, отбрасывается.
			select {
			case <-ticker.C:
				s.logger.Debug("Skipped tick: previous cycle overran the interval")
			default:
			}
		}
	}
}

// RunOnce выполняет один цикл, если другой цикл не выполняется в этот момент.
// Возвращает true, если цикл был выполнен.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.state.CompareAndSwap(int32(Idle), int32(Scraping)) {
		s.logger.Debug("Skipped cycle: scrape already in flight")
		return false
	}
	defer s.state.Store(int32(Idle))

	s.cycle(ctx)
	return true
}

func (s *Scheduler) cycle(ctx context.Context) {
	logger := s.logger.With(zap.String("cycle_id", uuid.NewString()))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.recorder.RecordFailure(models.KindUnknown, time.Since(start))
			logger.Error("Scrape cycle panicked", zap.Any("panic", r))
		}
	}()

	logger.Debug("Scrape cycle started")
	res, err := s.scraper.Scrape(ctx, s.opts.Target)
	elapsed := time.Since(start)

	if res.LogoutErr != nil {
		s.recorder.RecordLogoutFailure()
		logger.Warn("Logout failed", zap.Error(res.LogoutErr))
	}

	if err != nil {
		kind := ont.KindOf(err)
		s.recorder.RecordFailure(kind, elapsed)
		logger.Error("Scrape failed",
			zap.String("kind", string(kind)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}

	s.recorder.RecordSuccess(res.Sample, elapsed)
	logger.Info("Scrape succeeded",
		zap.Duration("duration", elapsed),
		zap.Float64("tx_power_dbm", res.Sample.TxPowerDBm),
		zap.Float64("rx_power_dbm", res.Sample.RxPowerDBm),
		zap.Int64("voltage_mv", res.Sample.VoltageMV),
		zap.Float64("bias_current_ma", res.Sample.BiasCurrentMA),
		zap.Float64("temperature_c", res.Sample.TemperatureC),
	)
}

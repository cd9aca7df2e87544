package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/RoGogDBD/huawei-ont-exporter/internal/repository"
)

const healthBody = "OK"

type Handler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewHandler(store repository.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// HandleMetrics отдаёт снимок метрик в текстовом формате Prometheus.
// Ответ 200 не зависит от доступности устройства.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	body, err := h.store.Render()
	if err != nil {
		h.logger.Error("Failed to render metrics", zap.Error(err))
		http.Error(w, "failed to render metrics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", repository.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("Failed to write metrics response", zap.Error(err))
	}
}

// HandleHealth отвечает на проверку живости процесса.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(healthBody))
}

// HandleSample отдаёт последний успешный сэмпл в JSON или 404, если опросов ещё не было.
func (h *Handler) HandleSample(w http.ResponseWriter, r *http.Request) {
	sample, ok := h.store.Sample()
	if !ok {
		http.Error(w, "no successful scrape yet", http.StatusNotFound)
		return
	}

	body, err := json.Marshal(sample)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	builder := strings.Builder{}
	builder.WriteString("<html><head><title>Huawei ONT Exporter</title></head><body><h1>Huawei ONT Exporter</h1><ul>")
	for _, link := range []string{"/metrics", "/health", "/sample"} {
		builder.WriteString(`<li><a href="` + link + `">` + link + "</a></li>")
	}
	builder.WriteString("</ul>")
	if sample, ok := h.store.Sample(); ok {
		builder.WriteString(fmt.Sprintf("<p>Last sample: tx %.2f dBm, rx %.2f dBm, %d mV, %.2f mA, %.1f &deg;C</p>",
			sample.TxPowerDBm, sample.RxPowerDBm, sample.VoltageMV, sample.BiasCurrentMA, sample.TemperatureC))
	}
	builder.WriteString("</body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(builder.String()))
}

// CountRequests учитывает каждый обслуженный запрос; ответы со статусом 400 и выше
// считаются ошибками.
func (h *Handler) CountRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		outcome := repository.HTTPFailure
		defer func() {
			h.store.RecordHTTP(outcome)
		}()

		next.ServeHTTP(ww, r)

		if status := ww.Status(); status < http.StatusBadRequest {
			outcome = repository.HTTPSuccess
		}
	})
}

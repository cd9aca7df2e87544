package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	models "github.com/RoGogDBD/huawei-ont-exporter/internal/model"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/repository"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/version"
)

// brokenStore описывает хранилище, которое не может отрисовать метрики.
type brokenStore struct {
	repository.Store
	outcomes []repository.HTTPOutcome
}

func (b *brokenStore) Render() ([]byte, error) {
	return nil, errors.New("collector failed")
}

func (b *brokenStore) RecordHTTP(outcome repository.HTTPOutcome) {
	b.outcomes = append(b.outcomes, outcome)
}

var testSample = models.Sample{TxPowerDBm: 2.33, RxPowerDBm: -24.09, VoltageMV: 3364, BiasCurrentMA: 10, TemperatureC: 47}

func TestHandler_TableDriven(t *testing.T) {
	tests := []struct {
		name        string
		withSample  bool
		handler     func(h *Handler) http.HandlerFunc
		expStatus   int
		expType     string
		expContains []string
		expMissing  []string
	}{
		{
			name:        "metrics before first scrape",
			handler:     func(h *Handler) http.HandlerFunc { return h.HandleMetrics },
			expStatus:   http.StatusOK,
			expType:     "text/plain",
			expContains: []string{"huawei_ont_scrapes_total 0", `huawei_ont_scrape_errors_total{kind="auth_failed"} 0`},
			expMissing:  []string{"huawei_ont_optical_tx_power_dbm"},
		},
		{
			name:        "metrics after scrape",
			withSample:  true,
			handler:     func(h *Handler) http.HandlerFunc { return h.HandleMetrics },
			expStatus:   http.StatusOK,
			expType:     "text/plain",
			expContains: []string{"huawei_ont_optical_tx_power_dbm 2.33", "huawei_ont_working_voltage_mv 3364"},
		},
		{
			name:        "health",
			handler:     func(h *Handler) http.HandlerFunc { return h.HandleHealth },
			expStatus:   http.StatusOK,
			expType:     "text/plain",
			expContains: []string{"OK"},
		},
		{
			name:      "sample before first scrape",
			handler:   func(h *Handler) http.HandlerFunc { return h.HandleSample },
			expStatus: http.StatusNotFound,
		},
		{
			name:        "sample after scrape",
			withSample:  true,
			handler:     func(h *Handler) http.HandlerFunc { return h.HandleSample },
			expStatus:   http.StatusOK,
			expType:     "application/json",
			expContains: []string{`"working_voltage_mv":3364`},
		},
		{
			name:        "index",
			withSample:  true,
			handler:     func(h *Handler) http.HandlerFunc { return h.HandleIndex },
			expStatus:   http.StatusOK,
			expType:     "text/html",
			expContains: []string{`href="/metrics"`, "3364 mV"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMetricsStore(version.Get(), nil)
			if tt.withSample {
				store.RecordSuccess(testSample, time.Second)
			}
			h := NewHandler(store, nil)

			rec := httptest.NewRecorder()
			tt.handler(h)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tt.expStatus, rec.Code)
			if tt.expType != "" {
				require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.expType), rec.Header().Get("Content-Type"))
			}
			for _, s := range tt.expContains {
				require.Contains(t, rec.Body.String(), s)
			}
			for _, s := range tt.expMissing {
				require.NotContains(t, rec.Body.String(), s)
			}
		})
	}
}

func TestHandler_HandleSample_JSON(t *testing.T) {
	store := repository.NewMetricsStore(version.Get(), nil)
	store.RecordSuccess(testSample, time.Second)

	rec := httptest.NewRecorder()
	NewHandler(store, nil).HandleSample(rec, httptest.NewRequest(http.MethodGet, "/sample", nil))

	var got models.Sample
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, testSample, got)
}

func TestHandler_HandleMetrics_RenderFailure(t *testing.T) {
	store := &brokenStore{}
	h := NewHandler(store, nil)

	rec := httptest.NewRecorder()
	h.CountRequests(http.HandlerFunc(h.HandleMetrics)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, []repository.HTTPOutcome{repository.HTTPFailure}, store.outcomes)
}

func TestHandler_CountRequests_TableDriven(t *testing.T) {
	tests := []struct {
		name   string
		status int
		write  bool
		exp    repository.HTTPOutcome
	}{
		{"ok", http.StatusOK, true, repository.HTTPSuccess},
		{"implicit ok", 0, true, repository.HTTPSuccess},
		{"nothing written", 0, false, repository.HTTPSuccess},
		{"redirect", http.StatusFound, false, repository.HTTPSuccess},
		{"not found", http.StatusNotFound, true, repository.HTTPFailure},
		{"server error", http.StatusInternalServerError, false, repository.HTTPFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &brokenStore{}
			h := NewHandler(store, nil)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				if tt.write {
					_, _ = w.Write([]byte("body"))
				}
			})

			h.CountRequests(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, []repository.HTTPOutcome{tt.exp}, store.outcomes)
		})
	}
}

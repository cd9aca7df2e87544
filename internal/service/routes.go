package service

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/RoGogDBD/huawei-ont-exporter/internal/config"
	"github.com/RoGogDBD/huawei-ont-exporter/internal/handler"
)

// NewRouter создает и настраивает HTTP-роутер экспортера.
//
// Параметры:
//   - h: обработчик запросов (handler.Handler)
//   - logger: логгер для логирования запросов
//
// Возвращает:
//   - *chi.Mux: настроенный роутер
func NewRouter(h *handler.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)         // Добавляет уникальный идентификатор запроса
	r.Use(middleware.RealIP)            // Определяет реальный IP клиента
	r.Use(h.CountRequests)              // Считает запросы и ошибки
	r.Use(config.RequestLogger(logger)) // Логирует запросы с помощью zap
	r.Use(middleware.Recoverer)         // Восстанавливает после паники
	r.Use(middleware.Compress(5))       // Сжимает ответы

	r.Get("/metrics", h.HandleMetrics)
	r.Get("/health", h.HandleHealth)
	r.Get("/sample", h.HandleSample)
	r.Get("/", h.HandleIndex)

	return r
}

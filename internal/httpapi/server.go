// Package httpapi — служебный HTTP: health, метрики Prometheus и чтение тарифов/промо.
// Денег через HTTP не двигаем: покупка и пополнение только в боте.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fuelboost/internal/features/promotions"
	"serotonyl.ru/fuelboost/internal/features/tiers"
	"serotonyl.ru/fuelboost/internal/metrics"
)

// Pinger — проверка доступности БД.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TierLister — витрина тарифов.
type TierLister interface {
	ListTiers(ctx context.Context) ([]*tiers.Tier, error)
}

// PromotionReader — чтение реестра промо.
type PromotionReader interface {
	GetActive(ctx context.Context, stationID int64) (*promotions.Promotion, error)
	ListHistory(ctx context.Context, stationID int64) ([]*promotions.Promotion, error)
	Now() time.Time
}

// Server — служебный HTTP-сервер.
type Server struct {
	db         Pinger
	tiers      TierLister
	promotions PromotionReader
}

// NewServer создаёт HTTP-сервер.
func NewServer(db Pinger, tierLister TierLister, promotionReader PromotionReader) *Server {
	return &Server{db: db, tiers: tierLister, promotions: promotionReader}
}

// Handler собирает chi-роутер со всеми маршрутами.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(recordMetrics)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/tiers", s.handleTiers)
		r.Get("/stations/{id}/promotion", s.handleActivePromotion)
		r.Get("/stations/{id}/promotions", s.handlePromotionHistory)
	})

	return r
}

// Run слушает addr до отмены ctx, затем плавно останавливается.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP-сервер запущен")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("HTTP-сервер остановлен")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		log.WithError(err).Warn("health: БД недоступна")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	list, err := s.tiers.ListTiers(r.Context())
	if err != nil {
		log.WithError(err).Error("api: ошибка получения тарифов")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*tiers.Tier{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": list})
}

type promotionView struct {
	*promotions.Promotion
	Status    promotions.Status `json:"status"`
	Active    bool              `json:"active"`
	Remaining string            `json:"remaining,omitempty"`
}

func (s *Server) view(p *promotions.Promotion, now time.Time) promotionView {
	v := promotionView{
		Promotion: p,
		Status:    p.EffectiveStatus(now),
		Active:    p.IsActive(now),
	}
	if v.Active {
		v.Remaining = p.EndTime.Sub(now).Truncate(time.Second).String()
	}
	return v
}

func (s *Server) handleActivePromotion(w http.ResponseWriter, r *http.Request) {
	stationID, ok := stationParam(w, r)
	if !ok {
		return
	}

	p, err := s.promotions.GetActive(r.Context(), stationID)
	if err != nil {
		log.WithError(err).WithField("station_id", stationID).Error("api: ошибка получения промо")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Отсутствие промо — обычный ответ, а не ошибка
	var view *promotionView
	if p != nil {
		v := s.view(p, s.promotions.Now())
		view = &v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"station_id": stationID,
		"promotion":  view,
	})
}

func (s *Server) handlePromotionHistory(w http.ResponseWriter, r *http.Request) {
	stationID, ok := stationParam(w, r)
	if !ok {
		return
	}

	list, err := s.promotions.ListHistory(r.Context(), stationID)
	if err != nil {
		log.WithError(err).WithField("station_id", stationID).Error("api: ошибка получения истории")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	now := s.promotions.Now()
	out := make([]promotionView, 0, len(list))
	for _, p := range list {
		out = append(out, s.view(p, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"station_id": stationID,
		"promotions": out,
	})
}

func stationParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return 0, false
	}
	return id, true
}

// recordMetrics считает запросы по шаблону маршрута, а не по сырому пути.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("api: ошибка записи ответа")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"status":  status,
		},
	})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"vitrina/internal/config"
	"vitrina/internal/database"
	"vitrina/internal/domain"
	"vitrina/internal/export"
	"vitrina/internal/metrics"
	"vitrina/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the storefront and booking API.
type HTTPServer struct {
	cfg       config.APIConfig
	catalog   *service.CatalogService
	bookings  *service.BookingService
	queries   *service.QueryService
	occupancy domain.OccupancyCounter
	exporter  *export.ExcelExporter
	server    *http.Server
	auth      *HTTPAuth
	logger    zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	catalog *service.CatalogService,
	bookings *service.BookingService,
	queries *service.QueryService,
	occupancyCounter domain.OccupancyCounter,
	exporter *export.ExcelExporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srvLogger := zerolog.Nop()
	if logger != nil {
		srvLogger = logger.With().Str("component", "http").Logger()
	}

	srv := &HTTPServer{
		cfg:       cfg,
		catalog:   catalog,
		bookings:  bookings,
		queries:   queries,
		occupancy: occupancyCounter,
		exporter:  exporter,
		auth:      NewHTTPAuth(cfg),
		logger:    srvLogger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/stores", srv.handleStores)
	mux.HandleFunc("/api/v1/stores/", srv.handleStoreSubtree)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingSubtree)
	mux.HandleFunc("/api/v1/customers/", srv.handleCustomerSubtree)
	mux.HandleFunc("/api/v1/categories", srv.handleCategories)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError переводит ошибки доменного слоя в HTTP-статусы.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrValidation),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrStoreNotFound),
		errors.Is(err, database.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrSlotFull),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

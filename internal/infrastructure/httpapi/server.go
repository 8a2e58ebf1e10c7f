package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"VaultXIngest/internal/domain"
)

// StatusSource exposes scheduler state to the status endpoint.
type StatusSource interface {
	NextRun() time.Time
	LastReport() (domain.RunReport, bool)
}

// Counter reports stored row counts; optional.
type Counter interface {
	Counts(ctx context.Context) (news, tools int, err error)
}

// Server serves /health and /status for the long-running scheduler.
type Server struct {
	status  StatusSource
	counter Counter
	log     *slog.Logger
	http    *http.Server
}

func New(addr string, status StatusSource, counter Counter, log *slog.Logger) *Server {
	s := &Server{status: status, counter: counter, log: log}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server starting", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

type statusResponse struct {
	NextRun    *time.Time        `json:"nextRun,omitempty"`
	LastReport *domain.RunReport `json:"lastReport,omitempty"`
	News       *int              `json:"storedNews,omitempty"`
	Tools      *int              `json:"storedTools,omitempty"`
	StoreError string            `json:"storeError,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	if next := s.status.NextRun(); !next.IsZero() {
		resp.NextRun = &next
	}
	if last, ok := s.status.LastReport(); ok {
		resp.LastReport = &last
	}

	if s.counter != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		news, tools, err := s.counter.Counts(ctx)
		if err != nil {
			resp.StoreError = err.Error()
		} else {
			resp.News, resp.Tools = &news, &tools
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

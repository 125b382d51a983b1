package rest

import (
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/6ground-maker/TherapyTune/internal/core/ports"
	"github.com/6ground-maker/TherapyTune/internal/core/services"
	"github.com/6ground-maker/TherapyTune/internal/worker"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc      *services.Orchestrator // Dependency on the Core Service
	pool     *worker.Pool
	recorder ports.Recorder
	router   *chi.Mux

	mu    sync.RWMutex
	conns map[*websocket.Conn]chan float64
}

// NewHandler initializes the HTTP adapter and sets up routes. pool and
// recorder are optional: without a pool uploaded clips skip background
// feature extraction, without a recorder the capture endpoints answer 501.
func NewHandler(svc *services.Orchestrator, pool *worker.Pool, recorder ports.Recorder) *Handler {
	h := &Handler{
		svc:      svc,
		pool:     pool,
		recorder: recorder,
		router:   chi.NewRouter(),
		conns:    make(map[*websocket.Conn]chan float64),
	}

	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.RealIP)
	h.router.Use(middleware.Logger)
	h.router.Use(middleware.Recoverer)

	// Register Routes
	h.routes()

	if recorder != nil {
		go h.broadcastLevels()
	}

	return h
}

// ServeHTTP satisfies the http.Handler interface.
// It acts as a proxy, passing the request to our internal router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health Check
	h.router.Get("/health", h.HealthCheck)

	// Session Flow
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Post("/sessions/{id}/clip", h.AttachClip)
		r.Get("/sessions/{id}/waveform", h.Waveform)
		r.Post("/sessions/{id}/analyze", h.Analyze)
		r.Post("/sessions/{id}/confirm", h.Confirm)
		r.Post("/sessions/{id}/reset", h.Reset)

		r.Post("/sessions/{id}/capture/start", h.StartCapture)
		r.Post("/sessions/{id}/capture/stop", h.StopCapture)

		r.Get("/genres", h.ListGenres)
	})

	// Live capture levels
	h.router.Get("/ws/levels", h.LiveLevels)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "TherapyTune is live 🎶"})
}

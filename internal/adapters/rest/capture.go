package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const captureDisabledMessage = "live capture is not enabled on this server"

// StartCapture handles POST /api/sessions/{id}/capture/start.
func (h *Handler) StartCapture(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, http.StatusNotImplemented, captureDisabledMessage)
		return
	}

	if err := h.svc.StartCapture(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recording"})
}

// StopCapture handles POST /api/sessions/{id}/capture/stop. The finalized
// clip lands on the session with features already extracted.
func (h *Handler) StopCapture(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, http.StatusNotImplemented, captureDisabledMessage)
		return
	}

	s, err := h.svc.StopCapture(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

package rest

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

const errCodeAnalysisFailed = "ANALYSIS_FAILED"

// analysisFailedMessage is the single user-facing text for every failed
// generative call. No HTTP codes, no provider names.
const analysisFailedMessage = "Something went wrong during the analysis. Your input is still here, so you can simply try again."

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

// writeServiceError translates orchestrator errors into HTTP responses. The
// session stays intact on every path here, so a retry is always safe.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrNoClip):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrBusy),
		errors.Is(err, domain.ErrNoSuggestion),
		errors.Is(err, domain.ErrCaptureActive),
		errors.Is(err, domain.ErrCaptureInactive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "microphone access was denied")
	case errors.Is(err, domain.ErrTransportFailure),
		errors.Is(err, domain.ErrSchemaViolation),
		errors.Is(err, domain.ErrEmptyResponse):
		writeErrorWithCode(w, http.StatusBadGateway, analysisFailedMessage, errCodeAnalysisFailed)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
	"github.com/6ground-maker/TherapyTune/internal/core/services"
	"github.com/6ground-maker/TherapyTune/internal/worker"
)

// maxClipBytes caps the size of an uploaded recording body.
const maxClipBytes = 10 << 20

const (
	defaultWaveformBuckets = 64
	maxWaveformBuckets     = 512
)

// songView decorates a song with its outbound search link.
type songView struct {
	domain.Song
	SearchURL string `json:"search_url"`
}

type journeyView struct {
	Songs      []songView             `json:"songs"`
	Narrative  string                 `json:"journey_narrative,omitempty"`
	ISOInsight string                 `json:"iso_insight,omitempty"`
	TotalShift *domain.EmotionalState `json:"total_shift,omitempty"`
}

// sessionResponse is the wire shape of a session. Clip bytes never leave the
// server; clients only learn whether a recording is attached.
type sessionResponse struct {
	ID            string                 `json:"id"`
	Stage         domain.Stage           `json:"stage"`
	Text          string                 `json:"text,omitempty"`
	Genres        []string               `json:"genres,omitempty"`
	Excluded      []string               `json:"excluded_genres,omitempty"`
	Sliders       *domain.EmotionalState `json:"sliders,omitempty"`
	HasClip       bool                   `json:"has_clip"`
	Features      *domain.AudioFeatures  `json:"features,omitempty"`
	Current       *domain.EmotionalState `json:"current_state,omitempty"`
	Summary       string                 `json:"summary,omitempty"`
	Voice         *domain.VoiceMetrics   `json:"voice_analysis,omitempty"`
	Suggestion    *domain.StateAnalysis  `json:"suggestion,omitempty"`
	Journey       *journeyView           `json:"journey,omitempty"`
	HealthyTarget domain.EmotionalState  `json:"healthy_target"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		ID:            s.ID,
		Stage:         s.Stage,
		Text:          s.Text,
		Genres:        s.Genres,
		Excluded:      s.Excluded,
		Sliders:       s.Sliders,
		HasClip:       s.Clip != nil,
		Features:      s.Features,
		Current:       s.Current,
		Summary:       s.Summary,
		Voice:         s.Voice,
		Suggestion:    s.Suggestion,
		Journey:       toJourneyView(s.Journey),
		HealthyTarget: domain.HealthyTarget(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toJourneyView(j *domain.Journey) *journeyView {
	if j == nil {
		return nil
	}
	songs := make([]songView, 0, len(j.Songs))
	for _, song := range j.Songs {
		songs = append(songs, songView{Song: song, SearchURL: song.SearchURL()})
	}
	return &journeyView{
		Songs:      songs,
		Narrative:  j.Narrative,
		ISOInsight: j.ISOInsight,
		TotalShift: j.TotalShift,
	}
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(s))
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// AttachClip handles POST /api/sessions/{id}/clip. The body is the raw
// recording; Content-Type declares its encoding. Feature extraction runs in
// the background, so the response reports 202 and clients poll the session.
func (h *Handler) AttachClip(w http.ResponseWriter, r *http.Request) {
	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		writeError(w, http.StatusBadRequest, "Content-Type describing the recording is required")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxClipBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "recording exceeds the size limit")
		return
	}

	s, err := h.svc.AttachClip(r.Context(), chi.URLParam(r, "id"), data, mimeType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if h.pool != nil {
		h.pool.Submit(worker.Job{SessionID: s.ID, Data: data, MIME: mimeType})
	}
	writeJSON(w, http.StatusAccepted, toSessionResponse(s))
}

type waveformResponse struct {
	Peaks []float64 `json:"peaks"`
	Level float64   `json:"level"`
}

// Waveform handles GET /api/sessions/{id}/waveform.
func (h *Handler) Waveform(w http.ResponseWriter, r *http.Request) {
	buckets := defaultWaveformBuckets
	if raw := r.URL.Query().Get("buckets"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "buckets must be a positive integer")
			return
		}
		buckets = n
	}
	if buckets > maxWaveformBuckets {
		buckets = maxWaveformBuckets
	}

	peaks, level, err := h.svc.Waveform(r.Context(), chi.URLParam(r, "id"), buckets)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, waveformResponse{Peaks: peaks, Level: level})
}

// analyzeRequest defines what the client sends us.
type analyzeRequest struct {
	Mode     string                 `json:"mode"`
	Text     string                 `json:"text"`
	Sliders  *domain.EmotionalState `json:"sliders"`
	Genres   []string               `json:"genres"`
	Excluded []string               `json:"excluded_genres"`
	Context  string                 `json:"context"`
}

// Analyze handles POST /api/sessions/{id}/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.svc.Analyze(r.Context(), chi.URLParam(r, "id"), services.AnalyzeRequest{
		Mode:     req.Mode,
		Text:     req.Text,
		Sliders:  req.Sliders,
		Genres:   req.Genres,
		Excluded: req.Excluded,
		Context:  req.Context,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

type confirmRequest struct {
	Accept bool `json:"accept"`
}

// Confirm handles POST /api/sessions/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.svc.Confirm(r.Context(), chi.URLParam(r, "id"), req.Accept)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// Reset handles POST /api/sessions/{id}/reset. Start Over: the session keeps
// its identity and loses everything else.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

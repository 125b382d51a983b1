// Package gemini adapts the hosted generative-language REST API to the
// state-analysis and journey-composition ports. Both calls request
// schema-constrained JSON and re-validate the response locally before any
// value reaches the domain.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
	"github.com/6ground-maker/TherapyTune/internal/core/ports"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// AnalyzeState runs the first call of a session: input to coordinates.
func (c *Client) AnalyzeState(ctx context.Context, in ports.AnalysisInput) (domain.StateAnalysis, error) {
	text, err := c.generate(ctx, buildAnalysisPrompt(in), in.Clip, analysisSchema(in.Clip != nil))
	if err != nil {
		return domain.StateAnalysis{}, err
	}

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return domain.StateAnalysis{}, fmt.Errorf("gemini: decode analysis: %w: %w", domain.ErrSchemaViolation, err)
	}
	return wire.toDomain()
}

// ComposeJourney runs the second call: committed state to song path.
func (c *Client) ComposeJourney(ctx context.Context, in ports.JourneyInput) (domain.Journey, error) {
	text, err := c.generate(ctx, buildJourneyPrompt(in), nil, journeySchema())
	if err != nil {
		return domain.Journey{}, err
	}

	var wire wireJourney
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return domain.Journey{}, fmt.Errorf("gemini: decode journey: %w: %w", domain.ErrSchemaViolation, err)
	}
	return wire.toDomain()
}

// generate performs one generateContent call and returns the raw text of
// the first candidate.
func (c *Client) generate(ctx context.Context, prompt string, clip *domain.AudioClip, s *schema) (string, error) {
	parts := []part{{Text: prompt}}
	if clip != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: clip.MIME,
			Data:     base64.StdEncoding.EncodeToString(clip.Data),
		}})
	}

	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:      0.7,
			ResponseMIMEType: "application/json",
			ResponseSchema:   s,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w: %w", domain.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini: unexpected status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrTransportFailure)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w: %w", domain.ErrSchemaViolation, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini: %s: %w", parsed.Error.Message, domain.ErrTransportFailure)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates: %w", domain.ErrEmptyResponse)
	}

	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: blank candidate: %w", domain.ErrEmptyResponse)
	}
	return text, nil
}

// --- Wire shapes ---
//
// Required fields are pointers so a missing key is distinguishable from a
// zero value; any absent required field is a schema violation, out-of-range
// axis values are clamped.

type wireState struct {
	Energy     *float64 `json:"energy"`
	Reality    *float64 `json:"reality"`
	Temporal   *float64 `json:"temporal"`
	Repetition *float64 `json:"repetition"`
	Hedonic    *float64 `json:"hedonic"`
}

func (w *wireState) axes(field string) (domain.EmotionalState, error) {
	if w == nil {
		return domain.EmotionalState{}, fmt.Errorf("gemini: %s missing: %w", field, domain.ErrSchemaViolation)
	}
	axes := map[string]*float64{
		"energy":     w.Energy,
		"reality":    w.Reality,
		"temporal":   w.Temporal,
		"repetition": w.Repetition,
		"hedonic":    w.Hedonic,
	}
	for _, name := range domain.AxisNames {
		if axes[name] == nil {
			return domain.EmotionalState{}, fmt.Errorf("gemini: %s missing axis %q: %w", field, name, domain.ErrSchemaViolation)
		}
	}
	return domain.EmotionalState{
		Energy:     *w.Energy,
		Reality:    *w.Reality,
		Temporal:   *w.Temporal,
		Repetition: *w.Repetition,
		Hedonic:    *w.Hedonic,
	}, nil
}

func (w *wireState) toDomain(field string) (domain.EmotionalState, error) {
	state, err := w.axes(field)
	if err != nil {
		return domain.EmotionalState{}, err
	}
	return state.Clamp(), nil
}

// toDelta skips clamping: shifts are differences between states and may
// legitimately exceed the per-axis range.
func (w *wireState) toDelta(field string) (domain.EmotionalState, error) {
	return w.axes(field)
}

type wireVoice struct {
	Pitch     string `json:"pitch"`
	Stability string `json:"stability"`
	Speed     string `json:"speed"`
	Note      string `json:"note"`
}

type wireAnalysis struct {
	wireState
	Summary *string    `json:"summary"`
	Voice   *wireVoice `json:"voice_analysis"`
}

func (w wireAnalysis) toDomain() (domain.StateAnalysis, error) {
	state, err := w.wireState.toDomain("analysis state")
	if err != nil {
		return domain.StateAnalysis{}, err
	}
	if w.Summary == nil || strings.TrimSpace(*w.Summary) == "" {
		return domain.StateAnalysis{}, fmt.Errorf("gemini: analysis missing summary: %w", domain.ErrSchemaViolation)
	}

	out := domain.StateAnalysis{State: state, Summary: strings.TrimSpace(*w.Summary)}
	if w.Voice != nil {
		out.Voice = &domain.VoiceMetrics{
			Pitch:     w.Voice.Pitch,
			Stability: w.Voice.Stability,
			Speed:     w.Voice.Speed,
			Note:      w.Voice.Note,
		}
	}
	return out, nil
}

type wireSong struct {
	Title           *string    `json:"title"`
	Artist          *string    `json:"artist"`
	TargetState     *wireState `json:"target_state"`
	TherapeuticNote string     `json:"therapeutic_note"`
	ColorHex        string     `json:"color_hex"`
	AxisShifts      *wireState `json:"axis_shifts"`
}

type wireJourney struct {
	Songs      []wireSong `json:"songs"`
	Narrative  string     `json:"journey_narrative"`
	ISOInsight string     `json:"iso_insight"`
	TotalShift *wireState `json:"total_shift"`
}

func (w wireJourney) toDomain() (domain.Journey, error) {
	if len(w.Songs) == 0 {
		return domain.Journey{}, fmt.Errorf("gemini: journey has no songs: %w", domain.ErrSchemaViolation)
	}

	out := domain.Journey{
		Songs:      make([]domain.Song, 0, len(w.Songs)),
		Narrative:  strings.TrimSpace(w.Narrative),
		ISOInsight: strings.TrimSpace(w.ISOInsight),
	}
	for i, ws := range w.Songs {
		if ws.Title == nil || strings.TrimSpace(*ws.Title) == "" {
			return domain.Journey{}, fmt.Errorf("gemini: song %d missing title: %w", i, domain.ErrSchemaViolation)
		}
		if ws.Artist == nil || strings.TrimSpace(*ws.Artist) == "" {
			return domain.Journey{}, fmt.Errorf("gemini: song %d missing artist: %w", i, domain.ErrSchemaViolation)
		}
		target, err := ws.TargetState.toDomain(fmt.Sprintf("song %d target_state", i))
		if err != nil {
			return domain.Journey{}, err
		}

		song := domain.Song{
			Title:           strings.TrimSpace(*ws.Title),
			Artist:          strings.TrimSpace(*ws.Artist),
			TargetState:     target,
			TherapeuticNote: strings.TrimSpace(ws.TherapeuticNote),
			ColorHex:        strings.TrimSpace(ws.ColorHex),
		}
		if ws.AxisShifts != nil {
			shifts, err := ws.AxisShifts.toDelta(fmt.Sprintf("song %d axis_shifts", i))
			if err != nil {
				return domain.Journey{}, err
			}
			song.AxisShifts = &shifts
		}
		out.Songs = append(out.Songs, song)
	}

	if w.TotalShift != nil {
		shift, err := w.TotalShift.toDelta("total_shift")
		if err != nil {
			return domain.Journey{}, err
		}
		out.TotalShift = &shift
	}
	return out, nil
}

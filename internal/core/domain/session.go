package domain

import (
	"fmt"
	"time"
)

// Stage names a step in the session flow.
type Stage string

const (
	StageInput        Stage = "INPUT"
	StageAnalyzing    Stage = "ANALYZING"
	StageConfirmation Stage = "CONFIRMATION"
	StagePlaylist     Stage = "PLAYLIST"
)

// CanTransition reports whether moving from s to next is a legal step. Any
// stage may fall back to INPUT, which covers both failure handling and
// Start Over.
func (s Stage) CanTransition(next Stage) bool {
	if next == StageInput {
		return true
	}
	switch s {
	case StageInput:
		return next == StageAnalyzing
	case StageAnalyzing:
		return next == StageConfirmation || next == StagePlaylist
	case StageConfirmation:
		return next == StageAnalyzing
	}
	return false
}

// AudioClip is a finalized recording: encoded bytes plus the MIME type a
// decoder should assume.
type AudioClip struct {
	Data []byte `json:"-"`
	MIME string `json:"mime"`
}

// AudioFeatures carries the two scalar signals derived from a decoded clip.
// Computed once per recording, immutable afterward.
type AudioFeatures struct {
	RMS float64 `json:"rms"`
	ZCR float64 `json:"zcr"`
}

// Summary renders the features as the advisory metrics line embedded in
// analysis prompts, rounded to the given number of decimals.
func (f AudioFeatures) Summary(decimals int) string {
	return fmt.Sprintf("Client-side metrics: RMS=%.*f (loudness proxy), ZCR=%.*f (brightness proxy)",
		decimals, f.RMS, decimals, f.ZCR)
}

// VoiceMetrics are qualitative descriptors the analysis call produces when
// audio was part of the payload. Labels come from a small closed set
// (High/Low/Neutral family); Note is free text.
type VoiceMetrics struct {
	Pitch     string `json:"pitch"`
	Stability string `json:"stability"`
	Speed     string `json:"speed"`
	Note      string `json:"note,omitempty"`
}

// StateAnalysis is the unit returned by the state-analysis call.
type StateAnalysis struct {
	State   EmotionalState `json:"state"`
	Summary string         `json:"summary"`
	Voice   *VoiceMetrics  `json:"voice_analysis,omitempty"`
}

// Session is the unit of orchestration state. The orchestrator is its only
// writer; adapters read snapshots.
type Session struct {
	ID    string
	Stage Stage

	// Inputs.
	Text     string
	Genres   []string
	Excluded []string
	Sliders  *EmotionalState
	Clip     *AudioClip
	Features *AudioFeatures

	// Derived state.
	Current    *EmotionalState
	Summary    string
	Voice      *VoiceMetrics
	Suggestion *StateAnalysis
	Journey    *Journey

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns a fresh session at INPUT.
func NewSession(id string) Session {
	now := time.Now().UTC()
	return Session{ID: id, Stage: StageInput, CreatedAt: now, UpdatedAt: now}
}

// Transition moves the session to next after checking stage legality. An
// illegal move returns an error and leaves the session untouched; the
// caller owns persistence.
func (s *Session) Transition(next Stage) error {
	if !s.Stage.CanTransition(next) {
		return fmt.Errorf("domain: stage %s cannot move to %s", s.Stage, next)
	}
	s.Stage = next
	return nil
}

// Revert returns the session to INPUT with inputs intact so a failed
// attempt can be retried. Derived state from the failed run is dropped.
func (s *Session) Revert() {
	s.Stage = StageInput
	s.ClearDerived()
	s.UpdatedAt = time.Now().UTC()
}

// Reset clears all session-derived state, returning the session to INPUT
// with only its identity and creation time intact.
func (s *Session) Reset() {
	s.Stage = StageInput
	s.Text = ""
	s.Genres = nil
	s.Excluded = nil
	s.Sliders = nil
	s.Clip = nil
	s.Features = nil
	s.ClearDerived()
	s.UpdatedAt = time.Now().UTC()
}

// ClearDerived drops everything produced by the AI calls, leaving user
// inputs in place so a failed attempt can be retried.
func (s *Session) ClearDerived() {
	s.Current = nil
	s.Summary = ""
	s.Voice = nil
	s.Suggestion = nil
	s.Journey = nil
}

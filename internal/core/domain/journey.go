package domain

import "net/url"

// JourneyLength is the number of songs the composition prompt asks for. It
// is a prompt contract, not a structural bound: responses with a different
// count are kept and logged upstream.
const JourneyLength = 5

// FirstSongTolerance is the per-axis band the opening song must sit in
// around the listener's current state.
const FirstSongTolerance = 0.1

// MaxStepPerAxis caps how far each subsequent song may move any axis toward
// the target.
const MaxStepPerAxis = 0.2

// Song is one step on the therapeutic path.
type Song struct {
	Title           string          `json:"title"`
	Artist          string          `json:"artist"`
	TargetState     EmotionalState  `json:"target_state"`
	TherapeuticNote string          `json:"therapeutic_note"`
	ColorHex        string          `json:"color_hex"`
	AxisShifts      *EmotionalState `json:"axis_shifts,omitempty"`
}

// SearchURL builds the outbound video-search link for the song.
func (s Song) SearchURL() string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(s.Title+" "+s.Artist)
}

// Journey is the ordered song sequence plus the summary fields the extended
// schema carries.
type Journey struct {
	Songs      []Song          `json:"songs"`
	Narrative  string          `json:"journey_narrative,omitempty"`
	ISOInsight string          `json:"iso_insight,omitempty"`
	TotalShift *EmotionalState `json:"total_shift,omitempty"`
}

// OpeningMatches reports whether the first song sits within tol of the state
// the journey was composed from. Empty journeys never match.
func (j Journey) OpeningMatches(current EmotionalState, tol float64) bool {
	if len(j.Songs) == 0 {
		return false
	}
	return j.Songs[0].TargetState.WithinTolerance(current, tol)
}

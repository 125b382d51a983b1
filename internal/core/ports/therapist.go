package ports

import (
	"context"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

// AnalysisInput is the payload of the state-analysis call. On the direct
// path exactly one of Text or Clip carries the user's input. When Sliders is
// set the call runs the suggestion path: the manual coordinates are the
// subject and Text/Clip become optional context.
type AnalysisInput struct {
	Text    string
	Clip    *domain.AudioClip
	Metrics *domain.AudioFeatures
	Sliders *domain.EmotionalState
}

// StateAnalyst maps user input onto the five-axis affect space.
type StateAnalyst interface {
	AnalyzeState(ctx context.Context, in AnalysisInput) (domain.StateAnalysis, error)
}

// JourneyInput is the payload of the journey-composition call. Current is
// the committed state after analysis or confirmation, never a pending
// suggestion.
type JourneyInput struct {
	Current  domain.EmotionalState
	Target   domain.EmotionalState
	Genres   []string
	Excluded []string
}

// JourneyComposer produces the ordered song path from Current toward Target.
type JourneyComposer interface {
	ComposeJourney(ctx context.Context, in JourneyInput) (domain.Journey, error)
}

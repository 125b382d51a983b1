package gemini

import (
	"fmt"
	"strings"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
	"github.com/6ground-maker/TherapyTune/internal/core/ports"
)

const analysisRole = "You are the TherapyTune intake analyst. Map the person's input onto five emotional axes, each a number in [-1.0, 1.0]:\n" +
	"- energy: depleted (-1) to agitated (+1), 0 is calm alertness\n" +
	"- reality: dissociated (-1) to sharply present (+1)\n" +
	"- temporal: dwelling on the past (-1) to racing ahead (+1)\n" +
	"- repetition: scattered (-1) to looping on one thought (+1)\n" +
	"- hedonic: numb (-1) to euphoric (+1)"

const journeyRole = "You are the TherapyTune journey composer. Build an ordered playlist that carries the listener from their current emotional state toward the target, following the ISO principle: meet them where they are, then guide gradually."

// Direct submissions embed the acoustic metrics at three decimals; the
// suggestion path uses two.
const (
	directMetricsDecimals     = 3
	suggestionMetricsDecimals = 2
)

func buildAnalysisPrompt(in ports.AnalysisInput) string {
	var b strings.Builder
	b.WriteString(analysisRole)
	b.WriteString("\n\n")

	switch {
	case in.Sliders != nil:
		fmt.Fprintf(&b, "The person placed themselves manually at: %s\n", renderState(*in.Sliders))
		b.WriteString("Suggest a refined set of coordinates and explain the adjustment in the summary. Stay close to their self-assessment unless the context clearly contradicts it.\n")
		if in.Text != "" {
			fmt.Fprintf(&b, "Context they added: %q\n", in.Text)
		}
		if in.Clip != nil {
			b.WriteString("A voice recording is attached. Weigh how they sound against the manual values and fill in voice_analysis.\n")
		}
		if in.Metrics != nil {
			b.WriteString(in.Metrics.Summary(suggestionMetricsDecimals))
			b.WriteString("\n")
		}
	case in.Clip != nil:
		b.WriteString("A voice recording is attached. Judge both what is said and how it sounds, and fill in voice_analysis.\n")
		if in.Metrics != nil {
			b.WriteString(in.Metrics.Summary(directMetricsDecimals))
			b.WriteString("\n")
		}
	default:
		fmt.Fprintf(&b, "The person writes: %q\n", in.Text)
	}

	b.WriteString("\nReturn ONLY the JSON object.")
	return b.String()
}

func buildJourneyPrompt(in ports.JourneyInput) string {
	var b strings.Builder
	b.WriteString(journeyRole)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current state: %s\n", renderState(in.Current))
	fmt.Fprintf(&b, "Target state: %s\n", renderState(in.Target))

	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "1. Exactly %d songs, in listening order.\n", domain.JourneyLength)
	fmt.Fprintf(&b, "2. The first song matches the current state within %.1f on every axis.\n", domain.FirstSongTolerance)
	fmt.Fprintf(&b, "3. Each following song moves every axis at most %.1f toward the target.\n", domain.MaxStepPerAxis)
	b.WriteString("4. Never flip an axis straight to the opposite-signed extreme in one step.\n")
	b.WriteString("5. Use real, findable songs.\n")

	if len(in.Genres) > 0 {
		fmt.Fprintf(&b, "Prefer these genres: %s.\n", strings.Join(in.Genres, ", "))
	}
	if len(in.Excluded) > 0 {
		fmt.Fprintf(&b, "Avoid these genres: %s.\n", strings.Join(in.Excluded, ", "))
	}

	b.WriteString("\nReturn ONLY the JSON object.")
	return b.String()
}

func renderState(s domain.EmotionalState) string {
	return fmt.Sprintf("energy=%.2f, reality=%.2f, temporal=%.2f, repetition=%.2f, hedonic=%.2f",
		s.Energy, s.Reality, s.Temporal, s.Repetition, s.Hedonic)
}

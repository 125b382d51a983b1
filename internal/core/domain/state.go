package domain

import (
	"fmt"
	"math"
)

// EmotionalState is a point in the five-axis affect space. Every axis lives
// in the closed interval [-1, 1].
type EmotionalState struct {
	Energy     float64 `json:"energy"`
	Reality    float64 `json:"reality"`
	Temporal   float64 `json:"temporal"`
	Repetition float64 `json:"repetition"`
	Hedonic    float64 `json:"hedonic"`
}

// HealthyTarget is the fixed destination of every journey.
func HealthyTarget() EmotionalState {
	return EmotionalState{Energy: 0, Reality: 0.2, Temporal: 0, Repetition: 0, Hedonic: 0.2}
}

// AxisNames lists the axes in canonical order, shared by validation messages,
// prompt rendering, and storage columns.
var AxisNames = [5]string{"energy", "reality", "temporal", "repetition", "hedonic"}

// Axes returns the axis values in canonical order.
func (s EmotionalState) Axes() [5]float64 {
	return [5]float64{s.Energy, s.Reality, s.Temporal, s.Repetition, s.Hedonic}
}

// StateFromAxes builds a state from values in canonical order.
func StateFromAxes(a [5]float64) EmotionalState {
	return EmotionalState{Energy: a[0], Reality: a[1], Temporal: a[2], Repetition: a[3], Hedonic: a[4]}
}

// Validate reports the first axis outside [-1, 1]. Boundary values are valid.
func (s EmotionalState) Validate() error {
	for i, v := range s.Axes() {
		if v < -1 || v > 1 {
			return ValidationError{Field: AxisNames[i], Reason: fmt.Sprintf("%.3f outside [-1, 1]", v)}
		}
	}
	return nil
}

// Clamp returns a copy with every axis forced into [-1, 1].
func (s EmotionalState) Clamp() EmotionalState {
	a := s.Axes()
	for i, v := range a {
		if v > 1 {
			a[i] = 1
		}
		if v < -1 {
			a[i] = -1
		}
	}
	return StateFromAxes(a)
}

// MaxAxisDelta returns the largest absolute per-axis difference between s
// and other.
func (s EmotionalState) MaxAxisDelta(other EmotionalState) float64 {
	var max float64
	sa, oa := s.Axes(), other.Axes()
	for i := range sa {
		if d := math.Abs(sa[i] - oa[i]); d > max {
			max = d
		}
	}
	return max
}

// WithinTolerance reports whether every axis of other lies within tol of s.
func (s EmotionalState) WithinTolerance(other EmotionalState, tol float64) bool {
	return s.MaxAxisDelta(other) <= tol+1e-9
}

// DistanceTo is the euclidean distance between two states.
func (s EmotionalState) DistanceTo(other EmotionalState) float64 {
	var sum float64
	sa, oa := s.Axes(), other.Axes()
	for i := range sa {
		d := sa[i] - oa[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

package domain

import (
	"errors"
	"testing"
)

func TestEmotionalState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		state   EmotionalState
		wantErr bool
	}{
		{
			name:    "zero state is valid",
			state:   EmotionalState{},
			wantErr: false,
		},
		{
			name:    "boundary values are accepted",
			state:   EmotionalState{Energy: 1, Reality: -1, Temporal: 1, Repetition: -1, Hedonic: 1},
			wantErr: false,
		},
		{
			name:    "axis above range",
			state:   EmotionalState{Energy: 1.1},
			wantErr: true,
		},
		{
			name:    "axis below range",
			state:   EmotionalState{Hedonic: -1.3},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.state.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyInput) {
				t.Fatalf("validation error should match ErrEmptyInput, got %v", err)
			}
		})
	}
}

func TestEmotionalState_Clamp(t *testing.T) {
	tests := []struct {
		name string
		in   EmotionalState
		want EmotionalState
	}{
		{
			name: "in-range state unchanged",
			in:   EmotionalState{Energy: -0.7, Reality: -0.1, Temporal: -0.2, Repetition: 0.1, Hedonic: -0.6},
			want: EmotionalState{Energy: -0.7, Reality: -0.1, Temporal: -0.2, Repetition: 0.1, Hedonic: -0.6},
		},
		{
			name: "boundary values untouched",
			in:   EmotionalState{Energy: 1, Reality: -1},
			want: EmotionalState{Energy: 1, Reality: -1},
		},
		{
			name: "1.1 clamps to 1.0",
			in:   EmotionalState{Energy: 1.1},
			want: EmotionalState{Energy: 1},
		},
		{
			name: "-1.3 clamps to -1.0",
			in:   EmotionalState{Temporal: -1.3},
			want: EmotionalState{Temporal: -1},
		},
		{
			name: "all axes clamped independently",
			in:   EmotionalState{Energy: 2, Reality: -2, Temporal: 0.5, Repetition: 1.0001, Hedonic: -5},
			want: EmotionalState{Energy: 1, Reality: -1, Temporal: 0.5, Repetition: 1, Hedonic: -1},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Clamp(); got != tc.want {
				t.Fatalf("Clamp() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestEmotionalState_WithinTolerance(t *testing.T) {
	base := EmotionalState{Energy: -0.7, Reality: -0.1, Temporal: -0.2, Repetition: 0.1, Hedonic: -0.6}

	tests := []struct {
		name  string
		other EmotionalState
		tol   float64
		want  bool
	}{
		{
			name:  "identical states match",
			other: base,
			tol:   0,
			want:  true,
		},
		{
			name:  "delta at tolerance boundary matches",
			other: EmotionalState{Energy: -0.6, Reality: -0.1, Temporal: -0.2, Repetition: 0.1, Hedonic: -0.6},
			tol:   0.1,
			want:  true,
		},
		{
			name:  "delta beyond tolerance fails",
			other: EmotionalState{Energy: -0.5, Reality: -0.1, Temporal: -0.2, Repetition: 0.1, Hedonic: -0.6},
			tol:   0.1,
			want:  false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := base.WithinTolerance(tc.other, tc.tol); got != tc.want {
				t.Fatalf("WithinTolerance() = %v, want %v (max delta %v)", got, tc.want, base.MaxAxisDelta(tc.other))
			}
		})
	}
}

func TestHealthyTarget(t *testing.T) {
	want := EmotionalState{Energy: 0, Reality: 0.2, Temporal: 0, Repetition: 0, Hedonic: 0.2}
	if got := HealthyTarget(); got != want {
		t.Fatalf("HealthyTarget() = %+v, want %+v", got, want)
	}
}

func TestAudioFeatures_Summary(t *testing.T) {
	f := AudioFeatures{RMS: 0.12345, ZCR: 0.04567}

	got3 := f.Summary(3)
	if got3 != "Client-side metrics: RMS=0.123 (loudness proxy), ZCR=0.046 (brightness proxy)" {
		t.Fatalf("Summary(3) = %q", got3)
	}
	got2 := f.Summary(2)
	if got2 != "Client-side metrics: RMS=0.12 (loudness proxy), ZCR=0.05 (brightness proxy)" {
		t.Fatalf("Summary(2) = %q", got2)
	}
}

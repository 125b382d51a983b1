package audio

import (
	"math"
	"testing"
)

func TestWaveformPeaks(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if got := WaveformPeaks(nil, 8); got != nil {
			t.Fatalf("expected nil for empty input, got %v", got)
		}
	})

	t.Run("zero buckets", func(t *testing.T) {
		if got := WaveformPeaks([]float64{0.1, 0.2}, 0); got != nil {
			t.Fatalf("expected nil for zero buckets, got %v", got)
		}
	})

	t.Run("buckets capped at sample count", func(t *testing.T) {
		got := WaveformPeaks([]float64{0.1, 0.2}, 16)
		if len(got) != 2 {
			t.Fatalf("expected 2 buckets, got %d", len(got))
		}
	})

	t.Run("loudest bucket normalizes to 1", func(t *testing.T) {
		samples := make([]float64, 400)
		samples[250] = 0.5 // loudest point, second half
		samples[50] = 0.25
		got := WaveformPeaks(samples, 4)
		if len(got) != 4 {
			t.Fatalf("expected 4 buckets, got %d", len(got))
		}
		if math.Abs(got[2]-1) > 1e-12 {
			t.Fatalf("loudest bucket = %v, want 1", got[2])
		}
		if math.Abs(got[0]-0.5) > 1e-12 {
			t.Fatalf("half-amplitude bucket = %v, want 0.5", got[0])
		}
	})

	t.Run("negative samples use magnitude", func(t *testing.T) {
		got := WaveformPeaks([]float64{-0.9, 0.1, 0.1, 0.1}, 2)
		if math.Abs(got[0]-1) > 1e-12 {
			t.Fatalf("negative peak should dominate, got %v", got)
		}
	})
}

func TestMeanLevel(t *testing.T) {
	if got := MeanLevel(nil); got != 0 {
		t.Fatalf("MeanLevel(nil) = %v, want 0", got)
	}
	got := MeanLevel([]float64{0.5, -0.5, 0.5, -0.5})
	if math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("MeanLevel = %v, want 0.5", got)
	}
}

package audio

import (
	"math"
	"testing"
)

func TestExtractFeatures_RMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{
			name:    "all zeros",
			samples: []float64{0, 0, 0, 0},
			want:    0,
		},
		{
			name:    "full-scale constant",
			samples: []float64{1, 1, 1, 1},
			want:    1,
		},
		{
			name:    "half amplitude",
			samples: []float64{0.5, -0.5, 0.5, -0.5},
			want:    0.5,
		},
		{
			name:    "single sample",
			samples: []float64{-0.25},
			want:    0.25,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractFeatures(tc.samples)
			if math.Abs(got.RMS-tc.want) > 1e-12 {
				t.Fatalf("RMS = %v, want %v", got.RMS, tc.want)
			}
		})
	}
}

func TestExtractFeatures_RMSBounds(t *testing.T) {
	// A sweep of sine waves at different amplitudes stays inside [0, 1] and
	// is zero only for the silent case.
	for _, amp := range []float64{0, 0.1, 0.5, 0.9, 1.0} {
		samples := make([]float64, 480)
		for i := range samples {
			samples[i] = amp * math.Sin(2*math.Pi*float64(i)/48)
		}
		f := ExtractFeatures(samples)
		if f.RMS < 0 || f.RMS > 1 {
			t.Fatalf("amp %v: RMS %v outside [0, 1]", amp, f.RMS)
		}
		if amp == 0 && f.RMS != 0 {
			t.Fatalf("silent input should have RMS 0, got %v", f.RMS)
		}
		if amp > 0 && f.RMS == 0 {
			t.Fatalf("amp %v: non-silent input should have RMS > 0", amp)
		}
	}
}

func TestExtractFeatures_ZCR(t *testing.T) {
	alternating := func(n int) []float64 {
		s := make([]float64, n)
		for i := range s {
			if i%2 == 0 {
				s[i] = 0.8
			} else {
				s[i] = -0.8
			}
		}
		return s
	}

	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{
			name:    "constant positive sign",
			samples: []float64{0.1, 0.2, 0.3, 0.4},
			want:    0,
		},
		{
			name:    "constant negative sign",
			samples: []float64{-0.1, -0.2, -0.3},
			want:    0,
		},
		{
			name:    "all zeros count as non-negative",
			samples: []float64{0, 0, 0, 0},
			want:    0,
		},
		{
			name:    "alternating signs length 4",
			samples: alternating(4),
			want:    3.0 / 4.0,
		},
		{
			name:    "alternating signs length 9",
			samples: alternating(9),
			want:    8.0 / 9.0,
		},
		{
			name:    "zero to negative counts",
			samples: []float64{0, -0.5},
			want:    1.0 / 2.0,
		},
		{
			name:    "negative to zero counts",
			samples: []float64{-0.5, 0},
			want:    1.0 / 2.0,
		},
		{
			name:    "zero to positive does not count",
			samples: []float64{0, 0.5},
			want:    0,
		},
		{
			name:    "single crossing",
			samples: []float64{0.3, 0.2, -0.1, -0.4},
			want:    1.0 / 4.0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractFeatures(tc.samples)
			if math.Abs(got.ZCR-tc.want) > 1e-12 {
				t.Fatalf("ZCR = %v, want %v", got.ZCR, tc.want)
			}
			if got.ZCR < 0 || got.ZCR >= 1 {
				t.Fatalf("ZCR %v outside [0, 1)", got.ZCR)
			}
		})
	}
}

func TestExtractFeatures_Empty(t *testing.T) {
	f := ExtractFeatures(nil)
	if f.RMS != 0 || f.ZCR != 0 {
		t.Fatalf("empty input should yield zero features, got %+v", f)
	}
}

package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WaveformPeaks reduces samples to per-bucket peak magnitudes for bar
// rendering. Peaks are normalized against the loudest bucket so quiet clips
// still draw visible bars. Returns nil when there is nothing to draw.
func WaveformPeaks(samples []float64, buckets int) []float64 {
	if buckets < 1 || len(samples) == 0 {
		return nil
	}
	if buckets > len(samples) {
		buckets = len(samples)
	}

	peaks := make([]float64, buckets)
	per := len(samples) / buckets
	window := make([]float64, 0, per+buckets)
	for i := 0; i < buckets; i++ {
		start := i * per
		end := start + per
		if i == buckets-1 {
			end = len(samples)
		}
		window = window[:0]
		for _, v := range samples[start:end] {
			window = append(window, math.Abs(v))
		}
		peaks[i] = floats.Max(window)
	}

	if max := floats.Max(peaks); max > 0 {
		floats.Scale(1/max, peaks)
	}
	return peaks
}

// MeanLevel is the average absolute amplitude of the clip, a coarse overall
// level reading reported next to the peaks.
func MeanLevel(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	abs := make([]float64, len(samples))
	for i, v := range samples {
		abs[i] = math.Abs(v)
	}
	return stat.Mean(abs, nil)
}

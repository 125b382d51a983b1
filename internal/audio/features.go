// Package audio implements clip decoding and the signal math behind the
// analysis prompts: RMS amplitude, zero-crossing rate, and the waveform
// peaks the front end renders.
package audio

import (
	"math"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

// ExtractFeatures computes RMS and zero-crossing rate over mono samples in
// a single pass. A value of exactly 0 is treated as non-negative, so a
// 0-to-negative or negative-to-0 transition counts as a crossing and 0-to-0
// does not. Zero-length input yields zero features.
func ExtractFeatures(samples []float64) domain.AudioFeatures {
	n := len(samples)
	if n == 0 {
		return domain.AudioFeatures{}
	}

	var sumSquares float64
	var crossings int
	prevNegative := samples[0] < 0
	for i, v := range samples {
		sumSquares += v * v
		if i > 0 {
			negative := v < 0
			if negative != prevNegative {
				crossings++
			}
			prevNegative = negative
		}
	}

	rms := math.Sqrt(sumSquares / float64(n))
	if rms > 1 {
		rms = 1
	}

	return domain.AudioFeatures{
		RMS: rms,
		ZCR: float64(crossings) / float64(n),
	}
}

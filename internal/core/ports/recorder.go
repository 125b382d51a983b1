package ports

import (
	"context"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

// Recorder is the device-capture port. Start acquires the input stream and
// begins buffering; Stop releases the device on every path and returns the
// finalized clip. Levels emits per-buffer RMS readings while capture is
// active, for live visualization only.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (domain.AudioClip, error)
	Levels() <-chan float64
	Active() bool
}

// Package mic captures microphone audio through PortAudio, for deployments
// where the server records on the listener's machine instead of receiving an
// uploaded clip.
package mic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/6ground-maker/TherapyTune/internal/audio"
	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

const (
	defaultSampleRate = 16000 // standard for speech
	framesPerBuffer   = 1024
	maxCaptureSeconds = 300
)

// Recorder owns the default input device. One recording at a time; samples
// accumulate between Start and Stop and are returned as a WAV clip.
type Recorder struct {
	sampleRate int
	logger     *slog.Logger
	levels     chan float64

	mu      sync.Mutex
	stream  *portaudio.Stream
	samples []float64
	active  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRecorder initializes PortAudio and prepares the recorder. Callers must
// Close it to release the audio host.
func NewRecorder(sampleRate int, logger *slog.Logger) (*Recorder, error) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("mic: failed to initialize audio host: %w", err)
	}
	return &Recorder{
		sampleRate: sampleRate,
		logger:     logger,
		levels:     make(chan float64, 16),
	}, nil
}

// Close stops any recording in progress and releases PortAudio.
func (r *Recorder) Close() error {
	if r.Active() {
		if _, err := r.Stop(); err != nil && err != domain.ErrCaptureInactive {
			r.logger.Warn("stopping recorder on close", "error", err)
		}
	}
	return portaudio.Terminate()
}

// Levels returns the live input level feed, one RMS value per buffer.
// Values are dropped when no one is listening.
func (r *Recorder) Levels() <-chan float64 {
	return r.levels
}

// Active reports whether a recording is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start opens the default input device and begins accumulating samples.
// Device and permission failures surface as ErrPermissionDenied.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return domain.ErrCaptureActive
	}

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), framesPerBuffer, buf)
	if err != nil {
		return fmt.Errorf("mic: failed to open input stream: %w: %w", domain.ErrPermissionDenied, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("mic: failed to start input stream: %w: %w", domain.ErrPermissionDenied, err)
	}

	captureCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.stream = stream
	r.samples = r.samples[:0]
	r.active = true
	r.cancel = cancel
	r.done = done

	maxSamples := r.sampleRate * maxCaptureSeconds

	go func() {
		defer close(done)
		capped := false
		for {
			select {
			case <-captureCtx.Done():
				return
			default:
			}

			if err := stream.Read(); err != nil {
				r.logger.Debug("mic read ended", "error", err)
				return
			}

			r.mu.Lock()
			if len(r.samples) < maxSamples {
				for _, v := range buf {
					r.samples = append(r.samples, float64(v))
				}
			} else if !capped {
				capped = true
				r.logger.Warn("recording length cap reached, discarding further audio",
					"max_seconds", maxCaptureSeconds)
			}
			r.mu.Unlock()

			select {
			case r.levels <- rmsLevel(buf):
			default:
			}
		}
	}()

	r.logger.Info("microphone capture started", "sample_rate", r.sampleRate)
	return nil
}

// Stop ends the recording and returns the accumulated samples as a WAV clip.
func (r *Recorder) Stop() (domain.AudioClip, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return domain.AudioClip{}, domain.ErrCaptureInactive
	}
	r.active = false
	stream := r.stream
	cancel := r.cancel
	done := r.done
	r.stream = nil
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	cancel()
	// Stopping the stream unblocks a pending Read so the goroutine can exit.
	if err := stream.Stop(); err != nil {
		r.logger.Warn("stopping input stream", "error", err)
	}
	<-done
	if err := stream.Close(); err != nil {
		r.logger.Warn("closing input stream", "error", err)
	}

	r.mu.Lock()
	samples := r.samples
	r.samples = nil
	r.mu.Unlock()

	if len(samples) == 0 {
		return domain.AudioClip{}, fmt.Errorf("mic: recording contains no samples")
	}

	r.logger.Info("microphone capture stopped",
		"samples", len(samples), "seconds", float64(len(samples))/float64(r.sampleRate))
	return domain.AudioClip{
		Data: audio.EncodeWAV(samples, r.sampleRate),
		MIME: "audio/wav",
	}, nil
}

// rmsLevel computes the RMS level of one capture buffer.
func rmsLevel(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		sumSquares += float64(s) * float64(s)
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}

// Package worker provides background processing for uploaded audio clips.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/6ground-maker/TherapyTune/internal/audio"
	"github.com/6ground-maker/TherapyTune/internal/core/ports"
)

// Job carries one clip to analyze.
type Job struct {
	SessionID string
	Data      []byte
	MIME      string
}

// Pool manages background workers for clip feature extraction. Extraction is
// advisory, a failed job leaves the session without features rather than
// failing anything user-visible.
type Pool struct {
	repo   ports.SessionRepository
	logger *slog.Logger
	jobs   chan Job
	wg     sync.WaitGroup
}

// NewPool creates a worker pool with the given queue size.
func NewPool(repo ports.SessionRepository, logger *slog.Logger, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{repo: repo, logger: logger, jobs: make(chan Job, queueSize)}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking. A full queue drops the job, the
// session simply keeps going without metrics.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	default:
		p.logger.Warn("dropping clip analysis job", "session_id", job.SessionID)
	}
}

func (p *Pool) processJob(job Job) {
	if len(job.Data) == 0 {
		p.logger.Warn("skipping empty clip", "session_id", job.SessionID)
		return
	}

	samples, _, err := audio.Decode(job.Data, job.MIME)
	if err != nil {
		p.logger.Warn("clip analysis failed", "session_id", job.SessionID, "error", err)
		return
	}
	features := audio.ExtractFeatures(samples)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.repo.UpdateFeatures(ctx, job.SessionID, features); err != nil {
		p.logger.Warn("failed to store clip features", "session_id", job.SessionID, "error", err)
		return
	}
	p.logger.Info("clip features extracted",
		"session_id", job.SessionID, "rms", features.RMS, "zcr", features.ZCR)
}

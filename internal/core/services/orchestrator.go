package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/6ground-maker/TherapyTune/internal/audio"
	"github.com/6ground-maker/TherapyTune/internal/core/domain"
	"github.com/6ground-maker/TherapyTune/internal/core/ports"
)

// Input modes accepted by Analyze.
const (
	ModeText    = "text"
	ModeVoice   = "voice"
	ModeSliders = "sliders"
)

// Options tune orchestrator behavior. Zero values fall back to defaults.
type Options struct {
	// CallTimeout bounds each AI call so a dead service cannot leave a
	// session in ANALYZING forever.
	CallTimeout time.Duration
	// StaleAfter is how long a persisted ANALYZING stage is trusted before
	// it is treated as a crash leftover.
	StaleAfter time.Duration
	Logger     *slog.Logger
}

// Orchestrator drives sessions through the input, analysis, confirmation,
// and playlist stages. It is the only writer of session state.
type Orchestrator struct {
	analyst  ports.StateAnalyst
	composer ports.JourneyComposer
	repo     ports.SessionRepository
	recorder ports.Recorder

	callTimeout time.Duration
	staleAfter  time.Duration
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is one session's submission slot plus the number of callers
// currently interested in it. The entry leaves the map once the count
// drops to zero, so the map only holds sessions with work in flight.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewOrchestrator constructs an Orchestrator. The recorder may be nil when
// no capture device is configured; every other dependency is required.
func NewOrchestrator(analyst ports.StateAnalyst, composer ports.JourneyComposer, repo ports.SessionRepository, recorder ports.Recorder, opts Options) *Orchestrator {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 2 * opts.CallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		analyst:     analyst,
		composer:    composer,
		repo:        repo,
		recorder:    recorder,
		callTimeout: opts.CallTimeout,
		staleAfter:  opts.StaleAfter,
		logger:      opts.Logger,
	}
}

// acquire takes the per-session submission slot. A session allows at most
// one in-flight mutation; a second caller is rejected, not queued.
func (o *Orchestrator) acquire(id string) (func(), error) {
	o.mu.Lock()
	l, ok := o.locks[id]
	if !ok {
		if o.locks == nil {
			o.locks = make(map[string]*sessionLock)
		}
		l = &sessionLock{}
		o.locks[id] = l
	}
	l.refs++
	o.mu.Unlock()

	if !l.mu.TryLock() {
		o.release(id, l)
		return nil, domain.ErrBusy
	}
	return func() {
		l.mu.Unlock()
		o.release(id, l)
	}, nil
}

// release drops one reference to a session's slot, deleting the map entry
// once nobody holds it.
func (o *Orchestrator) release(id string, l *sessionLock) {
	o.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(o.locks, id)
	}
	o.mu.Unlock()
}

// CreateSession starts a fresh session at INPUT.
func (o *Orchestrator) CreateSession(ctx context.Context) (domain.Session, error) {
	s := domain.NewSession(uuid.NewString())
	if err := o.repo.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("service: create session: %w", err)
	}
	return s, nil
}

// GetSession returns a snapshot. A session found in ANALYZING past the stale
// window is a crash leftover and is surfaced back at INPUT so the view can
// never hang on a dead request.
func (o *Orchestrator) GetSession(ctx context.Context, id string) (domain.Session, error) {
	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: load session: %w", err)
	}
	if s.Stage == domain.StageAnalyzing && time.Since(s.UpdatedAt) > o.staleAfter {
		o.logger.Warn("recovering session stuck in analysis", "session_id", s.ID, "updated_at", s.UpdatedAt)
		s.Revert()
		if err := o.repo.Save(ctx, s); err != nil {
			return domain.Session{}, fmt.Errorf("service: recover session: %w", err)
		}
	}
	return s, nil
}

// AttachClip stores an uploaded recording on the session. Any previously
// extracted features are discarded; the caller queues fresh extraction.
func (o *Orchestrator) AttachClip(ctx context.Context, id string, data []byte, mimeType string) (domain.Session, error) {
	release, err := o.acquire(id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: attach clip: %w", err)
	}
	defer release()

	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: load session: %w", err)
	}
	if s.Stage == domain.StageAnalyzing {
		return domain.Session{}, fmt.Errorf("service: attach clip: %w", domain.ErrBusy)
	}
	if s.Stage != domain.StageInput {
		return domain.Session{}, domain.ValidationError{Field: "stage", Reason: fmt.Sprintf("recordings are only accepted at %s", domain.StageInput)}
	}
	if len(data) == 0 {
		return domain.Session{}, domain.ValidationError{Field: "clip", Reason: "empty recording"}
	}

	s.Clip = &domain.AudioClip{Data: data, MIME: mimeType}
	s.Features = nil
	s.UpdatedAt = time.Now().UTC()
	if err := o.repo.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("service: save clip: %w", err)
	}
	return s, nil
}

// StartCapture begins recording from the configured device for a session
// sitting at INPUT.
func (o *Orchestrator) StartCapture(ctx context.Context, id string) error {
	if o.recorder == nil {
		return fmt.Errorf("service: capture device not configured")
	}
	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service: load session: %w", err)
	}
	if s.Stage != domain.StageInput {
		return domain.ValidationError{Field: "stage", Reason: fmt.Sprintf("capture is only available at %s", domain.StageInput)}
	}
	// Capture keeps running after this call returns; only StopCapture ends
	// it, so the recorder must not inherit the request's cancellation.
	if err := o.recorder.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("service: start capture: %w", err)
	}
	return nil
}

// StopCapture finalizes the device recording into the session clip and
// extracts features in place. Extraction failure degrades silently: the
// clip is kept and analysis proceeds feature-free.
func (o *Orchestrator) StopCapture(ctx context.Context, id string) (domain.Session, error) {
	if o.recorder == nil {
		return domain.Session{}, fmt.Errorf("service: capture device not configured")
	}
	release, err := o.acquire(id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: stop capture: %w", err)
	}
	defer release()

	clip, err := o.recorder.Stop()
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: stop capture: %w", err)
	}

	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: load session: %w", err)
	}
	if s.Stage != domain.StageInput {
		return domain.Session{}, domain.ValidationError{Field: "stage", Reason: fmt.Sprintf("capture is only available at %s", domain.StageInput)}
	}

	s.Clip = &clip
	s.Features = nil
	if samples, _, err := audio.Decode(clip.Data, clip.MIME); err != nil {
		o.logger.Warn("feature extraction skipped", "session_id", s.ID, "error", err)
	} else {
		f := audio.ExtractFeatures(samples)
		s.Features = &f
	}
	s.UpdatedAt = time.Now().UTC()
	if err := o.repo.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("service: save capture: %w", err)
	}
	return s, nil
}

// Waveform decodes the session clip into normalized per-bucket peaks plus a
// mean level reading.
func (o *Orchestrator) Waveform(ctx context.Context, id string, buckets int) ([]float64, float64, error) {
	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("service: load session: %w", err)
	}
	if s.Clip == nil {
		return nil, 0, fmt.Errorf("service: waveform: %w", domain.ErrNoClip)
	}
	samples, _, err := audio.Decode(s.Clip.Data, s.Clip.MIME)
	if err != nil {
		return nil, 0, fmt.Errorf("service: decode clip: %w", err)
	}
	return audio.WaveformPeaks(samples, buckets), audio.MeanLevel(samples), nil
}

// AnalyzeRequest carries one submission from the input screen.
type AnalyzeRequest struct {
	Mode     string
	Text     string
	Sliders  *domain.EmotionalState
	Genres   []string
	Excluded []string
	// Context is the optional confirmatory text accompanying a sliders
	// submission.
	Context string
}

// Analyze runs the state-analysis call for one of the three input modes.
// Text and voice feed the result straight into journey composition; sliders
// produce a suggestion that waits at CONFIRMATION. On any call failure the
// session lands back at INPUT with nothing committed.
func (o *Orchestrator) Analyze(ctx context.Context, id string, req AnalyzeRequest) (domain.Session, error) {
	release, err := o.acquire(id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: analyze: %w", err)
	}
	defer release()

	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: load session: %w", err)
	}
	if s.Stage == domain.StageAnalyzing {
		return domain.Session{}, fmt.Errorf("service: analyze: %w", domain.ErrBusy)
	}
	if s.Stage != domain.StageInput {
		return domain.Session{}, domain.ValidationError{Field: "stage", Reason: fmt.Sprintf("cannot analyze from %s", s.Stage)}
	}

	var in ports.AnalysisInput
	switch req.Mode {
	case ModeText:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return domain.Session{}, fmt.Errorf("service: analyze: %w", domain.ErrEmptyInput)
		}
		s.Text = text
		s.Genres = domain.NormalizeGenres(req.Genres)
		s.Excluded = domain.NormalizeGenres(req.Excluded)
		in.Text = text
	case ModeVoice:
		if s.Clip == nil {
			return domain.Session{}, fmt.Errorf("service: analyze: %w", domain.ErrNoClip)
		}
		s.Genres = domain.NormalizeGenres(req.Genres)
		s.Excluded = domain.NormalizeGenres(req.Excluded)
		in.Clip = s.Clip
		in.Metrics = s.Features
	case ModeSliders:
		if req.Sliders == nil {
			return domain.Session{}, domain.ValidationError{Field: "sliders", Reason: "coordinates are required"}
		}
		if err := req.Sliders.Validate(); err != nil {
			return domain.Session{}, fmt.Errorf("service: analyze: %w", err)
		}
		genres := domain.NormalizeGenres(req.Genres)
		if len(genres) == 0 {
			return domain.Session{}, domain.ValidationError{Field: "genres", Reason: "at least one genre tag is required"}
		}
		s.Sliders = req.Sliders
		s.Genres = genres
		s.Excluded = domain.NormalizeGenres(req.Excluded)
		s.Text = strings.TrimSpace(req.Context)
		in.Sliders = req.Sliders
		in.Text = s.Text
		if s.Clip != nil {
			in.Clip = s.Clip
			in.Metrics = s.Features
		}
	default:
		return domain.Session{}, domain.ValidationError{Field: "mode", Reason: "must be text, voice, or sliders"}
	}

	s.ClearDerived()
	if err := s.Transition(domain.StageAnalyzing); err != nil {
		return domain.Session{}, fmt.Errorf("service: analyze: %w", err)
	}
	s.UpdatedAt = time.Now().UTC()
	if err := o.repo.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("service: mark analyzing: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	analysis, err := o.analyst.AnalyzeState(callCtx, in)
	cancel()
	if err != nil {
		return o.failBack(s, "state analysis", err)
	}

	if in.Sliders != nil {
		// Suggestion path: present the adjusted state, commit nothing yet.
		s.Suggestion = &analysis
		if err := s.Transition(domain.StageConfirmation); err != nil {
			return o.failBack(s, "suggestion persistence", err)
		}
		s.UpdatedAt = time.Now().UTC()
		if err := o.repo.Save(ctx, s); err != nil {
			return o.failBack(s, "suggestion persistence", err)
		}
		return s, nil
	}

	st := analysis.State
	s.Current = &st
	s.Summary = analysis.Summary
	s.Voice = analysis.Voice
	return o.compose(ctx, s)
}

// Confirm resolves a pending suggestion: accept overwrites the current state
// with the suggested coordinates, reject keeps the manually set ones. Either
// choice proceeds to journey composition.
func (o *Orchestrator) Confirm(ctx context.Context, id string, accept bool) (domain.Session, error) {
	release, err := o.acquire(id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: confirm: %w", err)
	}
	defer release()

	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: load session: %w", err)
	}
	if s.Stage != domain.StageConfirmation || s.Suggestion == nil {
		return domain.Session{}, fmt.Errorf("service: confirm: %w", domain.ErrNoSuggestion)
	}

	if accept {
		st := s.Suggestion.State
		s.Current = &st
		s.Summary = s.Suggestion.Summary
		s.Voice = s.Suggestion.Voice
	} else {
		if s.Sliders == nil {
			return domain.Session{}, fmt.Errorf("service: confirm: session has no manual coordinates")
		}
		st := *s.Sliders
		s.Current = &st
		s.Summary = s.Suggestion.Summary
		s.Voice = s.Suggestion.Voice
	}
	s.Suggestion = nil
	if err := s.Transition(domain.StageAnalyzing); err != nil {
		return domain.Session{}, fmt.Errorf("service: confirm: %w", err)
	}
	s.UpdatedAt = time.Now().UTC()
	if err := o.repo.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("service: mark analyzing: %w", err)
	}

	return o.compose(ctx, s)
}

// Reset is Start Over: every piece of session-derived state is cleared and
// the session returns to INPUT.
func (o *Orchestrator) Reset(ctx context.Context, id string) (domain.Session, error) {
	release, err := o.acquire(id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: reset: %w", err)
	}
	defer release()

	s, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: load session: %w", err)
	}
	s.Reset()
	if err := o.repo.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("service: reset session: %w", err)
	}
	return s, nil
}

// compose runs the journey call against the committed state and persists the
// full result in one save.
func (o *Orchestrator) compose(ctx context.Context, s domain.Session) (domain.Session, error) {
	in := ports.JourneyInput{
		Current:  *s.Current,
		Target:   domain.HealthyTarget(),
		Genres:   s.Genres,
		Excluded: s.Excluded,
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	journey, err := o.composer.ComposeJourney(callCtx, in)
	cancel()
	if err != nil {
		return o.failBack(s, "journey composition", err)
	}

	if len(journey.Songs) != domain.JourneyLength {
		o.logger.Warn("journey song count differs from contract", "session_id", s.ID, "songs", len(journey.Songs))
	}
	if !journey.OpeningMatches(in.Current, domain.FirstSongTolerance) {
		o.logger.Warn("journey opening drifts from current state", "session_id", s.ID)
	}

	s.Journey = &journey
	if err := s.Transition(domain.StagePlaylist); err != nil {
		return o.failBack(s, "journey persistence", err)
	}
	s.UpdatedAt = time.Now().UTC()
	if err := o.repo.Save(ctx, s); err != nil {
		return o.failBack(s, "journey persistence", err)
	}
	return s, nil
}

// failBack reverts a session to INPUT after a failed step. The user sees one
// generic outcome; the precise failure kind is only distinguished here in
// the log. The revert save runs on its own context so it lands even when
// the request context is already gone.
func (o *Orchestrator) failBack(s domain.Session, step string, err error) (domain.Session, error) {
	o.logger.Warn("analysis step failed",
		"session_id", s.ID,
		"step", step,
		"kind", failureKind(err),
		"error", err)

	s.Revert()

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if saveErr := o.repo.Save(saveCtx, s); saveErr != nil {
		o.logger.Error("failed to revert session after error", "session_id", s.ID, "error", saveErr)
	}
	return domain.Session{}, fmt.Errorf("service: %s: %w", step, err)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, domain.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, domain.ErrTransportFailure):
		return "transport_failure"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unknown"
	}
}

// Package postgres provides a PostgreSQL-backed implementation of the
// session repository port, for deployments where the embedded SQLite file
// is not enough.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

// Adapter implements the session repository port on a pgx connection pool.
type Adapter struct {
	pool *pgxpool.Pool
}

// NewAdapter creates a connection pool and runs the schema migration.
func NewAdapter(ctx context.Context, databaseURL string) (*Adapter, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	adapter := &Adapter{pool: pool}
	if err := adapter.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migration: %w", err)
	}

	return adapter, nil
}

// Close closes the connection pool.
func (a *Adapter) Close() error {
	a.pool.Close()
	return nil
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Session, error) {
	query := `
		SELECT id, stage, input_text, genres, excluded_genres, sliders,
			clip, clip_mime, rms, zcr,
			current_state, summary, voice, suggestion,
			journey_narrative, iso_insight, total_shift,
			created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var (
		s          domain.Session
		stage      string
		genres     string
		excluded   string
		sliders    string
		clip       []byte
		clipMIME   string
		rms        *float64
		zcr        *float64
		current    string
		voice      string
		suggestion string
		narrative  string
		insight    string
		totalShift string
	)
	err := a.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &stage, &s.Text, &genres, &excluded, &sliders,
		&clip, &clipMIME, &rms, &zcr,
		&current, &s.Summary, &voice, &suggestion,
		&narrative, &insight, &totalShift,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("querying session: %w", err)
	}
	s.Stage = domain.Stage(stage)

	for _, col := range []struct {
		name string
		raw  string
		dest any
	}{
		{"genres", genres, &s.Genres},
		{"excluded_genres", excluded, &s.Excluded},
		{"sliders", sliders, &s.Sliders},
		{"current_state", current, &s.Current},
		{"voice", voice, &s.Voice},
		{"suggestion", suggestion, &s.Suggestion},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return domain.Session{}, fmt.Errorf("decoding %s: %w", col.name, err)
		}
	}

	if len(clip) > 0 {
		s.Clip = &domain.AudioClip{Data: clip, MIME: clipMIME}
	}
	if rms != nil && zcr != nil {
		s.Features = &domain.AudioFeatures{RMS: *rms, ZCR: *zcr}
	}

	songs, err := a.loadSongs(ctx, s.ID)
	if err != nil {
		return domain.Session{}, err
	}
	if len(songs) > 0 {
		s.Journey = &domain.Journey{Songs: songs, Narrative: narrative, ISOInsight: insight}
		if err := json.Unmarshal([]byte(totalShift), &s.Journey.TotalShift); err != nil {
			return domain.Session{}, fmt.Errorf("decoding total_shift: %w", err)
		}
	}

	return s, nil
}

func (a *Adapter) loadSongs(ctx context.Context, sessionID string) ([]domain.Song, error) {
	query := `
		SELECT title, artist, energy, reality, temporal, repetition, hedonic,
			therapeutic_note, color_hex, axis_shifts
		FROM journey_songs
		WHERE session_id = $1
		ORDER BY position ASC
	`
	rows, err := a.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying journey songs: %w", err)
	}
	defer rows.Close()

	var songs []domain.Song
	for rows.Next() {
		var song domain.Song
		var shifts string
		if err := rows.Scan(
			&song.Title,
			&song.Artist,
			&song.TargetState.Energy,
			&song.TargetState.Reality,
			&song.TargetState.Temporal,
			&song.TargetState.Repetition,
			&song.TargetState.Hedonic,
			&song.TherapeuticNote,
			&song.ColorHex,
			&shifts,
		); err != nil {
			return nil, fmt.Errorf("scanning journey song: %w", err)
		}
		if err := json.Unmarshal([]byte(shifts), &song.AxisShifts); err != nil {
			return nil, fmt.Errorf("decoding axis_shifts: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journey songs: %w", err)
	}

	return songs, nil
}

func (a *Adapter) Save(ctx context.Context, s domain.Session) error {
	genres, err := encodeJSON(s.Genres)
	if err != nil {
		return fmt.Errorf("encoding genres: %w", err)
	}
	excluded, err := encodeJSON(s.Excluded)
	if err != nil {
		return fmt.Errorf("encoding excluded genres: %w", err)
	}
	sliders, err := encodeJSON(s.Sliders)
	if err != nil {
		return fmt.Errorf("encoding sliders: %w", err)
	}
	current, err := encodeJSON(s.Current)
	if err != nil {
		return fmt.Errorf("encoding current state: %w", err)
	}
	voice, err := encodeJSON(s.Voice)
	if err != nil {
		return fmt.Errorf("encoding voice metrics: %w", err)
	}
	suggestion, err := encodeJSON(s.Suggestion)
	if err != nil {
		return fmt.Errorf("encoding suggestion: %w", err)
	}

	var clipData []byte
	var clipMIME string
	if s.Clip != nil {
		clipData = s.Clip.Data
		clipMIME = s.Clip.MIME
	}
	var rms, zcr *float64
	if s.Features != nil {
		rms = &s.Features.RMS
		zcr = &s.Features.ZCR
	}
	var narrative, insight string
	var shiftPtr *domain.EmotionalState
	if s.Journey != nil {
		narrative = s.Journey.Narrative
		insight = s.Journey.ISOInsight
		shiftPtr = s.Journey.TotalShift
	}
	totalShift, err := encodeJSON(shiftPtr)
	if err != nil {
		return fmt.Errorf("encoding total_shift: %w", err)
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sessionQuery := `
		INSERT INTO sessions (
			id, stage, input_text, genres, excluded_genres, sliders,
			clip, clip_mime, rms, zcr,
			current_state, summary, voice, suggestion,
			journey_narrative, iso_insight, total_shift,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			stage = EXCLUDED.stage,
			input_text = EXCLUDED.input_text,
			genres = EXCLUDED.genres,
			excluded_genres = EXCLUDED.excluded_genres,
			sliders = EXCLUDED.sliders,
			clip = EXCLUDED.clip,
			clip_mime = EXCLUDED.clip_mime,
			rms = EXCLUDED.rms,
			zcr = EXCLUDED.zcr,
			current_state = EXCLUDED.current_state,
			summary = EXCLUDED.summary,
			voice = EXCLUDED.voice,
			suggestion = EXCLUDED.suggestion,
			journey_narrative = EXCLUDED.journey_narrative,
			iso_insight = EXCLUDED.iso_insight,
			total_shift = EXCLUDED.total_shift,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.Exec(ctx, sessionQuery,
		s.ID, string(s.Stage), s.Text, genres, excluded, sliders,
		clipData, clipMIME, rms, zcr,
		current, s.Summary, voice, suggestion,
		narrative, insight, totalShift,
		s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journey_songs WHERE session_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clearing journey songs: %w", err)
	}

	if s.Journey != nil {
		songQuery := `
			INSERT INTO journey_songs (
				session_id, position, title, artist,
				energy, reality, temporal, repetition, hedonic,
				therapeutic_note, color_hex, axis_shifts
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		for i, song := range s.Journey.Songs {
			shifts, err := encodeJSON(song.AxisShifts)
			if err != nil {
				return fmt.Errorf("encoding axis_shifts for song %d: %w", i, err)
			}
			if _, err := tx.Exec(ctx, songQuery,
				s.ID, i, song.Title, song.Artist,
				song.TargetState.Energy,
				song.TargetState.Reality,
				song.TargetState.Temporal,
				song.TargetState.Repetition,
				song.TargetState.Hedonic,
				song.TherapeuticNote, song.ColorHex, shifts,
			); err != nil {
				return fmt.Errorf("inserting journey song %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (a *Adapter) UpdateFeatures(ctx context.Context, id string, f domain.AudioFeatures) error {
	query := `
		UPDATE sessions
		SET rms = $2, zcr = $3, updated_at = $4
		WHERE id = $1
	`
	if _, err := a.pool.Exec(ctx, query, id, f.RMS, f.ZCR, time.Now().UTC()); err != nil {
		return fmt.Errorf("updating session features: %w", err)
	}
	return nil
}

// DeleteStale removes sessions untouched since olderThan, reporting how many
// were dropped. Song rows go with them through the foreign key.
func (a *Adapter) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("deleting stale sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

// encodeJSON renders v for a JSONB column. Nil pointers and slices become
// the JSON null literal, which unmarshals back to nil on read.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *Adapter) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		input_text TEXT NOT NULL,
		genres JSONB NOT NULL,
		excluded_genres JSONB NOT NULL,
		sliders JSONB NOT NULL,
		clip BYTEA,
		clip_mime TEXT NOT NULL,
		rms DOUBLE PRECISION,
		zcr DOUBLE PRECISION,
		current_state JSONB NOT NULL,
		summary TEXT NOT NULL,
		voice JSONB NOT NULL,
		suggestion JSONB NOT NULL,
		journey_narrative TEXT NOT NULL,
		iso_insight TEXT NOT NULL,
		total_shift JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journey_songs (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		energy DOUBLE PRECISION NOT NULL,
		reality DOUBLE PRECISION NOT NULL,
		temporal DOUBLE PRECISION NOT NULL,
		repetition DOUBLE PRECISION NOT NULL,
		hedonic DOUBLE PRECISION NOT NULL,
		therapeutic_note TEXT NOT NULL,
		color_hex TEXT NOT NULL,
		axis_shifts JSONB NOT NULL,
		PRIMARY KEY (session_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`
	if _, err := a.pool.Exec(ctx, query); err != nil {
		return err
	}
	return nil
}

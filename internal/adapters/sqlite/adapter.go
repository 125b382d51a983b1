// Package sqlite provides a SQLite-backed implementation of the session
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the session repository port for SQLite.
type Adapter struct {
	db *sql.DB
}

// NewAdapter creates a connection and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup for local dev
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, stage, input_text, genres, excluded_genres, sliders,
			clip, clip_mime, rms, zcr,
			current_state, summary, voice, suggestion,
			journey_narrative, iso_insight, total_shift,
			created_at, updated_at
		FROM sessions
		WHERE id = ?
	`, id)

	var (
		s          domain.Session
		stage      string
		genres     string
		excluded   string
		sliders    string
		clip       []byte
		clipMIME   string
		rms        sql.NullFloat64
		zcr        sql.NullFloat64
		current    string
		voice      string
		suggestion string
		narrative  string
		insight    string
		totalShift string
	)
	if err := row.Scan(
		&s.ID, &stage, &s.Text, &genres, &excluded, &sliders,
		&clip, &clipMIME, &rms, &zcr,
		&current, &s.Summary, &voice, &suggestion,
		&narrative, &insight, &totalShift,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
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
			return domain.Session{}, fmt.Errorf("failed to decode %s: %w", col.name, err)
		}
	}

	if len(clip) > 0 {
		s.Clip = &domain.AudioClip{Data: clip, MIME: clipMIME}
	}
	if rms.Valid && zcr.Valid {
		s.Features = &domain.AudioFeatures{RMS: rms.Float64, ZCR: zcr.Float64}
	}

	songs, err := a.loadSongs(ctx, s.ID)
	if err != nil {
		return domain.Session{}, err
	}
	if len(songs) > 0 {
		s.Journey = &domain.Journey{Songs: songs, Narrative: narrative, ISOInsight: insight}
		if err := json.Unmarshal([]byte(totalShift), &s.Journey.TotalShift); err != nil {
			return domain.Session{}, fmt.Errorf("failed to decode total_shift: %w", err)
		}
	}

	return s, nil
}

func (a *Adapter) loadSongs(ctx context.Context, sessionID string) ([]domain.Song, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT title, artist, energy, reality, temporal, repetition, hedonic,
			therapeutic_note, color_hex, axis_shifts
		FROM journey_songs
		WHERE session_id = ?
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journey songs: %w", err)
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
			return nil, fmt.Errorf("failed to scan journey song: %w", err)
		}
		if err := json.Unmarshal([]byte(shifts), &song.AxisShifts); err != nil {
			return nil, fmt.Errorf("failed to decode axis_shifts: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journey songs: %w", err)
	}

	return songs, nil
}

func (a *Adapter) Save(ctx context.Context, s domain.Session) error {
	genres, err := encodeJSON(s.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	excluded, err := encodeJSON(s.Excluded)
	if err != nil {
		return fmt.Errorf("failed to encode excluded genres: %w", err)
	}
	sliders, err := encodeJSON(s.Sliders)
	if err != nil {
		return fmt.Errorf("failed to encode sliders: %w", err)
	}
	current, err := encodeJSON(s.Current)
	if err != nil {
		return fmt.Errorf("failed to encode current state: %w", err)
	}
	voice, err := encodeJSON(s.Voice)
	if err != nil {
		return fmt.Errorf("failed to encode voice metrics: %w", err)
	}
	suggestion, err := encodeJSON(s.Suggestion)
	if err != nil {
		return fmt.Errorf("failed to encode suggestion: %w", err)
	}

	var clipData []byte
	var clipMIME string
	if s.Clip != nil {
		clipData = s.Clip.Data
		clipMIME = s.Clip.MIME
	}
	var rms, zcr sql.NullFloat64
	if s.Features != nil {
		rms = sql.NullFloat64{Float64: s.Features.RMS, Valid: true}
		zcr = sql.NullFloat64{Float64: s.Features.ZCR, Valid: true}
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
		return fmt.Errorf("failed to encode total_shift: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error/panic before commit

	querySession := `
		INSERT INTO sessions (
			id, stage, input_text, genres, excluded_genres, sliders,
			clip, clip_mime, rms, zcr,
			current_state, summary, voice, suggestion,
			journey_narrative, iso_insight, total_shift,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stage=excluded.stage,
			input_text=excluded.input_text,
			genres=excluded.genres,
			excluded_genres=excluded.excluded_genres,
			sliders=excluded.sliders,
			clip=excluded.clip,
			clip_mime=excluded.clip_mime,
			rms=excluded.rms,
			zcr=excluded.zcr,
			current_state=excluded.current_state,
			summary=excluded.summary,
			voice=excluded.voice,
			suggestion=excluded.suggestion,
			journey_narrative=excluded.journey_narrative,
			iso_insight=excluded.iso_insight,
			total_shift=excluded.total_shift,
			updated_at=excluded.updated_at;
	`
	if _, err := tx.ExecContext(ctx, querySession,
		s.ID, string(s.Stage), s.Text, genres, excluded, sliders,
		clipData, clipMIME, rms, zcr,
		current, s.Summary, voice, suggestion,
		narrative, insight, totalShift,
		s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	// Reset song rows: the journey is always written whole, in order.
	if _, err := tx.ExecContext(ctx, "DELETE FROM journey_songs WHERE session_id = ?", s.ID); err != nil {
		return fmt.Errorf("failed to clear old journey songs: %w", err)
	}

	if s.Journey != nil {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO journey_songs (
				session_id, position, title, artist,
				energy, reality, temporal, repetition, hedonic,
				therapeutic_note, color_hex, axis_shifts
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, song := range s.Journey.Songs {
			shifts, err := encodeJSON(song.AxisShifts)
			if err != nil {
				return fmt.Errorf("failed to encode axis_shifts for song %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx,
				s.ID, i, song.Title, song.Artist,
				song.TargetState.Energy,
				song.TargetState.Reality,
				song.TargetState.Temporal,
				song.TargetState.Repetition,
				song.TargetState.Hedonic,
				song.TherapeuticNote, song.ColorHex, shifts,
			); err != nil {
				return fmt.Errorf("failed to save journey song %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}

	return nil
}

func (a *Adapter) UpdateFeatures(ctx context.Context, id string, f domain.AudioFeatures) error {
	query := `
		UPDATE sessions
		SET rms = ?, zcr = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := a.db.ExecContext(ctx, query, f.RMS, f.ZCR, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to update session features: %w", err)
	}
	return nil
}

// DeleteStale removes sessions untouched since olderThan, reporting how many
// were dropped.
func (a *Adapter) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM journey_songs
		WHERE session_id IN (SELECT id FROM sessions WHERE updated_at < ?)
	`, olderThan); err != nil {
		return 0, fmt.Errorf("failed to delete stale journey songs: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("transaction commit failed: %w", err)
	}

	return deleted, nil
}

// encodeJSON renders v for a TEXT column. Nil pointers and slices become the
// JSON null literal, which unmarshals back to nil on read.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		input_text TEXT NOT NULL,
		genres TEXT NOT NULL,
		excluded_genres TEXT NOT NULL,
		sliders TEXT NOT NULL,
		clip BLOB,
		clip_mime TEXT NOT NULL,
		rms REAL,
		zcr REAL,
		current_state TEXT NOT NULL,
		summary TEXT NOT NULL,
		voice TEXT NOT NULL,
		suggestion TEXT NOT NULL,
		journey_narrative TEXT NOT NULL,
		iso_insight TEXT NOT NULL,
		total_shift TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journey_songs (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		energy REAL NOT NULL,
		reality REAL NOT NULL,
		temporal REAL NOT NULL,
		repetition REAL NOT NULL,
		hedonic REAL NOT NULL,
		therapeutic_note TEXT NOT NULL,
		color_hex TEXT NOT NULL,
		axis_shifts TEXT NOT NULL,
		PRIMARY KEY (session_id, position),
		FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	return nil
}

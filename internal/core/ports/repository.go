package ports

import (
	"context"
	"time"

	"github.com/6ground-maker/TherapyTune/internal/core/domain"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
	// UpdateFeatures lands asynchronously extracted features on a session
	// without rewriting the rest of the row.
	UpdateFeatures(ctx context.Context, id string, f domain.AudioFeatures) error
	// DeleteStale removes sessions whose last update predates olderThan and
	// returns how many were dropped.
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

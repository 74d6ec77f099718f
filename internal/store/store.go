package store

import (
	"context"
	"errors"

	"github.com/rocknews/rocktag/internal/models"
)

// ErrNotFound is returned when the requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Store persists tagging runs: per-document tags and the feedback set.
type Store interface {
	// SaveRun stores a run with its tags and feedback set. Saving an
	// existing run ID replaces it.
	SaveRun(ctx context.Context, run models.Run, tags []models.DocumentTags, feedback []string) error

	// GetRun returns a run summary by ID.
	GetRun(ctx context.Context, id string) (*models.Run, error)

	// LatestRun returns the most recently created run.
	LatestRun(ctx context.Context) (*models.Run, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)

	// Tags returns a run's document tags ordered by document ID.
	Tags(ctx context.Context, runID string) ([]models.DocumentTags, error)

	// Feedback returns a run's feedback set in ascending order.
	Feedback(ctx context.Context, runID string) ([]string, error)

	// DeleteRun removes a run with its tags and feedback set.
	// It returns ErrNotFound for an unknown ID.
	DeleteRun(ctx context.Context, id string) error

	// Close cleans up resources.
	Close() error
}

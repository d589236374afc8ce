// Package repository defines the run-history storage interface and its
// SQLite implementation.
package repository

import (
	"context"

	"github.com/triadflow/triad/internal/domain"
)

// Store defines the interface for run-history persistence.
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error
	UpdateRunCompleted(ctx context.Context, runID string, status domain.RunStatus, errData []byte) error

	// Stage event operations
	CreateEvent(ctx context.Context, event *domain.StageEvent) error
	GetEvents(ctx context.Context, runID string, afterTs int64, limit int) ([]domain.StageEvent, error)

	// Lifecycle
	Close() error
}

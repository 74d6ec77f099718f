// Package lifecycle prunes recorded runs from the run store.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/store"
)

// Policy decides which runs are kept. Zero fields disable that rule.
type Policy struct {
	// KeepLast always keeps the newest N runs; older runs are trimmed.
	KeepLast int `json:"keep_last"`
	// MaxAge expires runs created longer ago than this.
	MaxAge time.Duration `json:"max_age"`
}

// Report summarizes the results of a prune.
type Report struct {
	Expired int      `json:"expired"`
	Trimmed int      `json:"trimmed"`
	Kept    int      `json:"kept"`
	Deleted []string `json:"deleted"`
}

// Manager applies a retention policy to a run store.
type Manager struct {
	store  store.Store
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a new lifecycle manager.
func NewManager(st store.Store, policy Policy, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Run applies the policy. With dryRun set, nothing is deleted but the
// report still lists what would be.
func (m *Manager) Run(ctx context.Context, dryRun bool) (*Report, error) {
	runs, err := m.store.ListRuns(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	report := &Report{Deleted: []string{}}
	cutoff := time.Time{}
	if m.policy.MaxAge > 0 {
		cutoff = m.now().UTC().Add(-m.policy.MaxAge)
	}

	// runs are newest first
	for i, run := range runs {
		reason := m.reason(i, run, cutoff)
		if reason == "" {
			report.Kept++
			continue
		}

		m.logger.Info("pruning run", "run_id", run.ID, "created", run.CreatedAt, "reason", reason, "dry_run", dryRun)
		if !dryRun {
			if err := m.store.DeleteRun(ctx, run.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				m.logger.Error("deleting run", "run_id", run.ID, "error", err)
				report.Kept++
				continue
			}
		}
		report.Deleted = append(report.Deleted, run.ID)
		if reason == "expired" {
			report.Expired++
		} else {
			report.Trimmed++
		}
	}

	return report, nil
}

func (m *Manager) reason(index int, run models.Run, cutoff time.Time) string {
	if !cutoff.IsZero() && run.CreatedAt.Before(cutoff) {
		return "expired"
	}
	if m.policy.KeepLast > 0 && index >= m.policy.KeepLast {
		return "trimmed"
	}
	return ""
}

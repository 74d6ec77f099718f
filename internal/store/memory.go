package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/rocknews/rocktag/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by servers running
// without a database path.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*storedRun
}

type storedRun struct {
	run      models.Run
	tags     []models.DocumentTags
	feedback []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*storedRun)}
}

// SaveRun stores deep copies of the inputs.
func (m *MemoryStore) SaveRun(_ context.Context, run models.Run, tags []models.DocumentTags, feedback []string) error {
	stored := &storedRun{
		run:      run,
		tags:     copyTags(tags),
		feedback: slices.Clone(feedback),
	}
	sort.Slice(stored.tags, func(i, j int) bool { return stored.tags[i].DocumentID < stored.tags[j].DocumentID })
	sort.Strings(stored.feedback)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = stored
	return nil
}

// GetRun returns a run summary by ID.
func (m *MemoryStore) GetRun(_ context.Context, id string) (*models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sr, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	run := sr.run
	return &run, nil
}

// LatestRun returns the most recently created run.
func (m *MemoryStore) LatestRun(ctx context.Context) (*models.Run, error) {
	runs, err := m.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

// ListRuns returns runs newest first.
func (m *MemoryStore) ListRuns(_ context.Context, limit int) ([]models.Run, error) {
	m.mu.RLock()
	runs := make([]models.Run, 0, len(m.runs))
	for _, sr := range m.runs {
		runs = append(runs, sr.run)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Tags returns a copy of the run's document tags.
func (m *MemoryStore) Tags(_ context.Context, runID string) ([]models.DocumentTags, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sr, ok := m.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTags(sr.tags), nil
}

// Feedback returns a copy of the run's feedback set.
func (m *MemoryStore) Feedback(_ context.Context, runID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sr, ok := m.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]string, len(sr.feedback))
	copy(out, sr.feedback)
	return out, nil
}

// DeleteRun removes a run.
func (m *MemoryStore) DeleteRun(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return ErrNotFound
	}
	delete(m.runs, id)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func copyTags(tags []models.DocumentTags) []models.DocumentTags {
	out := make([]models.DocumentTags, len(tags))
	for i, t := range tags {
		out[i] = models.DocumentTags{
			DocumentID:   t.DocumentID,
			CombinedTags: append([]string{}, t.CombinedTags...),
			MemberTags:   append([]string{}, t.MemberTags...),
		}
	}
	return out
}

package store_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/store"
)

func openStores(t *testing.T) map[string]store.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sq, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "runs", "rocktag.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]store.Store{
		"memory": store.NewMemoryStore(),
		"sqlite": sq,
	}
}

func sampleRun(id string, at time.Time) (models.Run, []models.DocumentTags, []string) {
	tags := []models.DocumentTags{
		{DocumentID: 2, CombinedTags: []string{}, MemberTags: []string{}},
		{DocumentID: 0, CombinedTags: []string{"Led Zeppelin", "Metallica"}, MemberTags: []string{"Robert Plant"}},
		{DocumentID: 1, CombinedTags: []string{"The Who"}, MemberTags: []string{}},
	}
	feedback := []string{"the who", "led zeppelin", "metallica", "robert plant"}
	run := models.Run{
		ID:              id,
		CreatedAt:       at,
		Documents:       len(tags),
		TaggedDocuments: 2,
		FeedbackNames:   len(feedback),
	}
	return run, tags, feedback
}

func TestStore_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			run, tags, feedback := sampleRun("run-1", at)
			require.NoError(t, s.SaveRun(ctx, run, tags, feedback))

			got, err := s.GetRun(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, run.ID, got.ID)
			assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
			assert.Equal(t, 3, got.Documents)
			assert.Equal(t, 2, got.TaggedDocuments)
			assert.Equal(t, 4, got.FeedbackNames)

			gotTags, err := s.Tags(ctx, "run-1")
			require.NoError(t, err)
			require.Len(t, gotTags, 3)
			assert.Equal(t, 0, gotTags[0].DocumentID)
			assert.Equal(t, []string{"Led Zeppelin", "Metallica"}, gotTags[0].CombinedTags)
			assert.Equal(t, []string{"Robert Plant"}, gotTags[0].MemberTags)
			assert.Equal(t, []string{}, gotTags[2].CombinedTags)

			gotFeedback, err := s.Feedback(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, []string{"led zeppelin", "metallica", "robert plant", "the who"}, gotFeedback)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetRun(ctx, "missing")
			assert.ErrorIs(t, err, store.ErrNotFound)

			_, err = s.Tags(ctx, "missing")
			assert.ErrorIs(t, err, store.ErrNotFound)

			_, err = s.Feedback(ctx, "missing")
			assert.ErrorIs(t, err, store.ErrNotFound)

			_, err = s.LatestRun(ctx)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestStore_ListAndLatest(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for i, id := range []string{"a", "b", "c"} {
				run, tags, feedback := sampleRun(id, base.Add(time.Duration(i)*time.Second+time.Duration(i)*time.Millisecond))
				require.NoError(t, s.SaveRun(ctx, run, tags, feedback))
			}

			runs, err := s.ListRuns(ctx, 0)
			require.NoError(t, err)
			require.Len(t, runs, 3)
			assert.Equal(t, "c", runs[0].ID)
			assert.Equal(t, "a", runs[2].ID)

			runs, err = s.ListRuns(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, runs, 2)

			latest, err := s.LatestRun(ctx)
			require.NoError(t, err)
			assert.Equal(t, "c", latest.ID)
		})
	}
}

func TestStore_SaveReplacesRun(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			run, tags, feedback := sampleRun("run-1", at)
			require.NoError(t, s.SaveRun(ctx, run, tags, feedback))

			run.Documents = 1
			require.NoError(t, s.SaveRun(ctx, run, tags[:1], []string{"slayer"}))

			gotTags, err := s.Tags(ctx, "run-1")
			require.NoError(t, err)
			assert.Len(t, gotTags, 1)

			gotFeedback, err := s.Feedback(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, []string{"slayer"}, gotFeedback)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	run, tags, feedback := sampleRun("run-1", time.Now())
	require.NoError(t, s.SaveRun(ctx, run, tags, feedback))

	tags[1].CombinedTags[0] = "mutated"
	got, err := s.Tags(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Led Zeppelin", got[0].CombinedTags[0])

	got[0].CombinedTags[0] = "mutated again"
	again, err := s.Tags(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Led Zeppelin", again[0].CombinedTags[0])
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rocktag.db")

	s, err := store.OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	run, tags, feedback := sampleRun("persisted", time.Now())
	require.NoError(t, s.SaveRun(ctx, run, tags, feedback))
	require.NoError(t, s.Close())

	s, err = store.OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	assert.Equal(t, path, s.Path())

	got, err := s.GetRun(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Documents)
}

func TestStore_DeleteRun(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			run, tags, feedback := sampleRun("gone", at)
			require.NoError(t, s.SaveRun(ctx, run, tags, feedback))

			require.NoError(t, s.DeleteRun(ctx, "gone"))

			_, err := s.GetRun(ctx, "gone")
			assert.ErrorIs(t, err, store.ErrNotFound)
			_, err = s.Tags(ctx, "gone")
			assert.ErrorIs(t, err, store.ErrNotFound)
			_, err = s.Feedback(ctx, "gone")
			assert.ErrorIs(t, err, store.ErrNotFound)

			assert.ErrorIs(t, s.DeleteRun(ctx, "gone"), store.ErrNotFound)
		})
	}
}

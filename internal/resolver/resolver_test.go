package resolver_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocknews/rocktag/internal/dictionary"
	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/normalize"
	"github.com/rocknews/rocktag/internal/resolver"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newResolver(t *testing.T) (*resolver.Resolver, *normalize.Normalizer) {
	t.Helper()
	n := normalize.New(normalize.Options{RawSubstitutions: normalize.DefaultRawSubstitutions})
	opts := dictionary.DefaultOptions(n)
	opts.AliasExceptions = []string{"the beatles", "the who"}
	opts.Logger = quietLogger()

	artists := []models.ArtistRow{
		{Name: "Metallica"},
		{Name: "The Who"},
		{Name: "The Doors"},
		{Name: "The Rolling Stones"},
		{Name: "Led Zeppelin"},
		{Name: "Yes"},
		{Name: "HIM"},
		{Name: "The Smashing Pumpkins"},
	}
	members := []models.MemberRow{
		{Description: "Robert Plant", Artist: "Led Zeppelin"},
		{Description: "Jimmy Page", Artist: "Led Zeppelin"},
		{Description: "James Hetfield", Artist: "Metallica"},
	}
	d, _, err := dictionary.Build(artists, members, opts)
	require.NoError(t, err)
	return resolver.New(d, quietLogger()), n
}

func TestResolve_DirectMatch(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("metallica are touring europe this summer")
	assert.Equal(t, []string{"Metallica"}, ts.CombinedTags)
	assert.Equal(t, []string{}, ts.MemberTags)
	assert.NotNil(t, ts.MemberTags)
}

func TestResolve_NoMatchYieldsEmptySets(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("local bakery wins regional award")
	for name, field := range map[string][]string{
		"direct":    ts.DirectArtistTags,
		"recovered": ts.RecoveredArtistTags,
		"members":   ts.MemberTags,
		"owners":    ts.DerivedOwnerTags,
		"combined":  ts.CombinedTags,
	} {
		assert.NotNil(t, field, name)
		assert.Empty(t, field, name)
	}
	assert.True(t, ts.IsEmpty())
}

func TestResolve_WholeWordBoundary(t *testing.T) {
	r, _ := newResolver(t)

	assert.Equal(t, []string{"The Doors"}, r.Resolve("the doors played a set").CombinedTags)
	assert.Empty(t, r.Resolve("the outdoors festival").CombinedTags)
}

func TestResolve_MultiWordTerm(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("catch the rolling stones live")
	assert.Equal(t, []string{"The Rolling Stones"}, ts.DirectArtistTags)
	assert.Empty(t, ts.RecoveredArtistTags)
}

func TestResolve_FallbackGating(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("who are playing tonight")
	assert.Equal(t, []string{"The Who"}, ts.RecoveredArtistTags)
	assert.Empty(t, ts.DirectArtistTags)
	assert.Equal(t, []string{"The Who"}, ts.CombinedTags)

	ts = r.Resolve("metallica and who are playing tonight")
	assert.Equal(t, []string{"Metallica"}, ts.DirectArtistTags)
	assert.Empty(t, ts.RecoveredArtistTags)
	assert.Equal(t, []string{"Metallica"}, ts.CombinedTags)
}

func TestResolve_RecoveredMultiWordAlias(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("smashing pumpkins announce reunion")
	assert.Equal(t, []string{"The Smashing Pumpkins"}, ts.RecoveredArtistTags)
}

func TestResolve_MemberDerivesOwner(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("robert plant discusses his new project")
	assert.Equal(t, []string{"Robert Plant"}, ts.MemberTags)
	assert.Equal(t, []string{"Led Zeppelin"}, ts.DerivedOwnerTags)
	assert.Contains(t, ts.CombinedTags, "Led Zeppelin")
	assert.Empty(t, ts.DirectArtistTags)
}

func TestResolve_MemberDoesNotSuppressFallback(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("james hetfield joins rolling stones on stage")
	assert.Equal(t, []string{"The Rolling Stones"}, ts.RecoveredArtistTags)
	assert.Equal(t, []string{"Metallica", "The Rolling Stones"}, ts.CombinedTags)
}

func TestResolve_SortedAndDeduplicated(t *testing.T) {
	r, _ := newResolver(t)

	ts := r.Resolve("led zeppelin reunion jimmy page and robert plant with metallica and led zeppelin fans")
	assert.Equal(t, []string{"Led Zeppelin", "Metallica"}, ts.CombinedTags)
	assert.Equal(t, []string{"Jimmy Page", "Robert Plant"}, ts.MemberTags)
	assert.True(t, sort.StringsAreSorted(ts.CombinedTags))
	assert.True(t, sort.StringsAreSorted(ts.MemberTags))
}

func TestResolve_NormalizerSubstitutions(t *testing.T) {
	r, n := newResolver(t)

	ts := r.Resolve(n.Text("Yes! HIM and Yes announce a joint tour"))
	assert.Equal(t, []string{"HIM"}, ts.CombinedTags)

	ts = r.Resolve(n.Text("Was it him? Yes."))
	assert.Empty(t, ts.CombinedTags)
}

func TestResolve_Idempotent(t *testing.T) {
	r, _ := newResolver(t)

	text := "robert plant and the who share a stage"
	first := r.Resolve(text)
	second := r.Resolve(text)
	assert.Equal(t, first, second)
}

func TestResolveCorpus_PreservesOrder(t *testing.T) {
	r, _ := newResolver(t)

	texts := []string{
		"metallica are touring europe this summer",
		"local bakery wins regional award",
		"robert plant discusses his new project",
		"who are playing tonight",
		"catch the rolling stones live",
	}
	var docs []models.Document
	for i := 0; i < 40; i++ {
		docs = append(docs, models.Document{ID: i * 10, NormalizedText: texts[i%len(texts)]})
	}

	got, err := r.ResolveCorpus(context.Background(), docs, 4)
	require.NoError(t, err)
	require.Len(t, got, len(docs))
	for i, dt := range got {
		assert.Equal(t, docs[i].ID, dt.DocumentID)
		want := r.Resolve(docs[i].NormalizedText)
		assert.Equal(t, want.CombinedTags, dt.CombinedTags)
		assert.Equal(t, want.MemberTags, dt.MemberTags)
	}
}

func TestResolveAll_DefaultWorkers(t *testing.T) {
	r, _ := newResolver(t)

	docs := []models.Document{{ID: 0, NormalizedText: "metallica"}}
	got, err := r.ResolveAll(context.Background(), docs, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Metallica"}, got[0].CombinedTags)
}

func TestResolveAll_EmptyCorpus(t *testing.T) {
	r, _ := newResolver(t)

	got, err := r.ResolveAll(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveAll_CanceledContext(t *testing.T) {
	r, _ := newResolver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ResolveAll(ctx, []models.Document{{NormalizedText: "metallica"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

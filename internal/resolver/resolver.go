// Package resolver turns normalized document text into canonical tag sets
// using a prebuilt dictionary.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rocknews/rocktag/internal/dictionary"
	"github.com/rocknews/rocktag/internal/matcher"
	"github.com/rocknews/rocktag/internal/metrics"
	"github.com/rocknews/rocktag/internal/models"
)

// Resolver is immutable once built and safe for concurrent use.
type Resolver struct {
	dict    *dictionary.Dictionary
	artists *matcher.Matcher
	aliases *matcher.Matcher
	members *matcher.Matcher
	logger  *slog.Logger
}

// New builds a Resolver over dict.
func New(dict *dictionary.Dictionary, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		dict:    dict,
		artists: matcher.New(dict.ArtistKeys()),
		aliases: matcher.New(dict.AliasKeys()),
		members: matcher.New(dict.MemberKeys()),
		logger:  logger,
	}
}

// Dictionary returns the dictionary the resolver was built with.
func (r *Resolver) Dictionary() *dictionary.Dictionary { return r.dict }

// Resolve computes the TagSet for one normalized text.
//
// Aliases are only consulted when no artist key matched directly.
func (r *Resolver) Resolve(text string) models.TagSet {
	direct := make([]string, 0)
	for _, k := range r.artists.MatchAny(text) {
		if name, ok := r.dict.Artist(k); ok {
			direct = append(direct, name)
		}
	}

	members := make([]string, 0)
	owners := make([]string, 0)
	for _, k := range r.members.MatchAny(text) {
		if rec, ok := r.dict.Member(k); ok {
			members = append(members, rec.CanonicalName)
			owners = append(owners, rec.OwnerArtist)
		}
	}

	recovered := make([]string, 0)
	if len(direct) == 0 {
		article := r.dict.Article()
		for _, alias := range r.aliases.MatchAny(text) {
			// an alias whose full key is gone from the lookup yields nothing
			if name, ok := r.dict.Artist(article + " " + alias); ok {
				recovered = append(recovered, name)
			}
		}
	}

	ts := models.TagSet{
		DirectArtistTags:    models.SortedSet(direct),
		RecoveredArtistTags: models.SortedSet(recovered),
		MemberTags:          models.SortedSet(members),
		DerivedOwnerTags:    models.SortedSet(owners),
	}
	ts.CombinedTags = models.SortedSet(ts.DirectArtistTags, ts.RecoveredArtistTags, ts.DerivedOwnerTags)

	metrics.Inc(metrics.DocumentsResolved)
	metrics.DirectMatches.Add(int64(len(ts.DirectArtistTags)))
	metrics.RecoveredMatches.Add(int64(len(ts.RecoveredArtistTags)))
	metrics.MemberMatches.Add(int64(len(ts.MemberTags)))
	if ts.IsEmpty() {
		metrics.Inc(metrics.EmptyDocuments)
	}
	return ts
}

// ResolveAll resolves every document on a pool of at most workers
// goroutines (GOMAXPROCS when workers <= 0). Result i belongs to docs[i].
// The context is checked between documents only.
func (r *Resolver) ResolveAll(ctx context.Context, docs []models.Document, workers int) ([]models.TagSet, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]models.TagSet, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.Resolve(docs[i].NormalizedText)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolving corpus: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolving corpus: %w", err)
	}

	r.logger.Debug("resolved corpus", "documents", len(docs), "workers", workers)
	return out, nil
}

// ResolveCorpus resolves docs and returns the downstream records in corpus
// order.
func (r *Resolver) ResolveCorpus(ctx context.Context, docs []models.Document, workers int) ([]models.DocumentTags, error) {
	sets, err := r.ResolveAll(ctx, docs, workers)
	if err != nil {
		return nil, err
	}
	out := make([]models.DocumentTags, len(docs))
	for i := range sets {
		out[i] = sets[i].ForDocument(docs[i].ID)
	}
	return out, nil
}

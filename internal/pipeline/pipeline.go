// Package pipeline runs a full tagging pass: normalize the corpus, build
// the dictionary, resolve every document and aggregate the feedback set.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocknews/rocktag/internal/dictionary"
	"github.com/rocknews/rocktag/internal/feedback"
	"github.com/rocknews/rocktag/internal/metrics"
	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/normalize"
	"github.com/rocknews/rocktag/internal/resolver"
)

// Tables are the parsed inputs of a run.
type Tables struct {
	Artists  []models.ArtistRow
	Members  []models.MemberRow
	News     []models.NewsRow
	Keywords map[string]string
}

// Config controls dictionary construction and resolution. Dictionary's
// Normalizer and Logger are filled in by the pipeline.
type Config struct {
	Dictionary       dictionary.Options
	RawSubstitutions map[string]string
	Workers          int
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Dictionary:       dictionary.DefaultOptions(nil),
		RawSubstitutions: normalize.DefaultRawSubstitutions,
	}
}

// Engine is a ready-to-use normalizer and resolver pair. It is safe for
// concurrent use.
type Engine struct {
	Normalizer *normalize.Normalizer
	Resolver   *resolver.Resolver
	Report     dictionary.Report

	now func() time.Time
}

// Tag normalizes raw text and resolves it.
func (e *Engine) Tag(raw string) models.TagSet {
	return e.Resolver.Resolve(e.Normalizer.Text(raw))
}

// Result is the outcome of Run.
type Result struct {
	Run       models.Run
	Documents []models.Document
	TagSets   []models.TagSet
	Tags      []models.DocumentTags
	Feedback  []string
	Report    dictionary.Report
	Timings   Timings
}

// Timings records how long each stage took.
type Timings struct {
	Build     time.Duration `json:"build"`
	Normalize time.Duration `json:"normalize"`
	Resolve   time.Duration `json:"resolve"`
	Aggregate time.Duration `json:"aggregate"`
}

// Total sums all stages.
func (t Timings) Total() time.Duration {
	return t.Build + t.Normalize + t.Resolve + t.Aggregate
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Pipeline.
func New(cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger, now: time.Now}
}

// Prepare builds an Engine from the gazetteer tables and keyword map. News
// is ignored.
func (p *Pipeline) Prepare(t Tables) (*Engine, error) {
	n := normalize.New(normalize.Options{
		RawSubstitutions: p.cfg.RawSubstitutions,
		Keywords:         t.Keywords,
	})
	opts := p.cfg.Dictionary
	opts.Normalizer = n
	if opts.Logger == nil {
		opts.Logger = p.logger
	}

	d, report, err := dictionary.Build(t.Artists, t.Members, opts)
	if err != nil {
		return nil, fmt.Errorf("building dictionary: %w", err)
	}
	return &Engine{
		Normalizer: n,
		Resolver:   resolver.New(d, p.logger),
		Report:     report,
	}, nil
}

// Run executes Normalize, Build, Resolve and Aggregate over t. A
// *dictionary.ConfigurationError aborts before any matching.
func (p *Pipeline) Run(ctx context.Context, t Tables) (*Result, error) {
	if len(t.News) == 0 {
		return nil, &dictionary.ConfigurationError{Table: dictionary.TableNews, Reason: "table is empty"}
	}
	started := p.now()
	engine, err := p.Prepare(t)
	if err != nil {
		return nil, err
	}
	engine.now = p.now

	res, err := engine.Run(ctx, t.News, p.cfg.Workers)
	if err != nil {
		return nil, err
	}
	res.Timings.Build = res.Run.CreatedAt.Sub(started.UTC())
	res.Run.CreatedAt = started.UTC()

	metrics.Inc(metrics.RunsCompleted)
	p.logger.Info("run complete",
		"run_id", res.Run.ID,
		"documents", res.Run.Documents,
		"tagged", res.Run.TaggedDocuments,
		"feedback", res.Run.FeedbackNames,
		"duration", res.Timings.Total(),
	)
	return res, nil
}

// Run normalizes, resolves and aggregates news with the engine's
// dictionary. Document IDs are positions in news.
func (e *Engine) Run(ctx context.Context, news []models.NewsRow, workers int) (*Result, error) {
	now := e.now
	if now == nil {
		now = time.Now
	}
	started := now()

	docs := make([]models.Document, len(news))
	for i := range news {
		docs[i] = models.Document{ID: i, NormalizedText: e.Normalizer.Text(news[i].Text())}
	}
	normalized := now()

	sets, err := e.Resolver.ResolveAll(ctx, docs, workers)
	if err != nil {
		return nil, err
	}
	resolved := now()

	tags := make([]models.DocumentTags, len(docs))
	tagged := 0
	for i := range sets {
		tags[i] = sets[i].ForDocument(docs[i].ID)
		if !sets[i].IsEmpty() {
			tagged++
		}
	}
	names := feedback.Collect(sets, e.Normalizer.Fold)
	done := now()

	return &Result{
		Run: models.Run{
			ID:              uuid.NewString(),
			CreatedAt:       started.UTC(),
			Documents:       len(docs),
			TaggedDocuments: tagged,
			FeedbackNames:   len(names),
		},
		Documents: docs,
		TagSets:   sets,
		Tags:      tags,
		Feedback:  names,
		Report:    e.Report,
		Timings: Timings{
			Normalize: normalized.Sub(started),
			Resolve:   resolved.Sub(normalized),
			Aggregate: done.Sub(resolved),
		},
	}, nil
}

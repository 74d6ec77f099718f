// Package graph exports the gazetteer and run mentions to Neo4j:
// (:Artist), (:Member)-[:MEMBER_OF]->(:Artist), and
// (:Run)-[:HAS_DOCUMENT]->(:Document)-[:MENTIONS]->(:Artist|:Member).
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocknews/rocktag/internal/dictionary"
	"github.com/rocknews/rocktag/internal/models"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement.
const DefaultBatchSize = 500

// Summary counts what a write changed.
type Summary struct {
	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
	PropertiesSet        int `json:"properties_set"`
}

func (s *Summary) add(o Summary) {
	s.NodesCreated += o.NodesCreated
	s.RelationshipsCreated += o.RelationshipsCreated
	s.PropertiesSet += o.PropertiesSet
}

// Runner executes one write statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Summary, error)
}

var schema = []string{
	"CREATE CONSTRAINT artist_name IF NOT EXISTS FOR (a:Artist) REQUIRE a.name IS UNIQUE",
	"CREATE CONSTRAINT member_key IF NOT EXISTS FOR (m:Member) REQUIRE m.key IS UNIQUE",
	"CREATE CONSTRAINT run_id IF NOT EXISTS FOR (r:Run) REQUIRE r.id IS UNIQUE",
}

const (
	artistCypher = `UNWIND $rows AS row
MERGE (a:Artist {name: row.name})
SET a.key = row.key`

	memberCypher = `UNWIND $rows AS row
MERGE (m:Member {key: row.key})
SET m.name = row.name
MERGE (a:Artist {name: row.owner})
MERGE (m)-[:MEMBER_OF]->(a)`

	runCypher = `MERGE (r:Run {id: $id})
SET r.created_at = $created_at, r.documents = $documents, r.tagged_documents = $tagged`

	documentCypher = `UNWIND $rows AS row
MATCH (r:Run {id: $run_id})
MERGE (d:Document {run_id: $run_id, id: row.id})
MERGE (r)-[:HAS_DOCUMENT]->(d)
FOREACH (name IN row.artists |
  MERGE (a:Artist {name: name})
  MERGE (d)-[:MENTIONS]->(a))
FOREACH (name IN row.members |
  MERGE (m:Member {name: name})
  MERGE (d)-[:MENTIONS]->(m))`
)

// Exporter writes to a graph through a Runner.
type Exporter struct {
	runner    Runner
	batchSize int
	logger    *slog.Logger
}

// NewExporter creates an Exporter. batchSize <= 0 selects DefaultBatchSize.
func NewExporter(runner Runner, batchSize int, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Exporter{runner: runner, batchSize: batchSize, logger: logger}
}

// EnsureSchema creates the uniqueness constraints.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := e.runner.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure graph schema: %w", err)
		}
	}
	return nil
}

// ExportDictionary writes every artist and member with its membership edge.
func (e *Exporter) ExportDictionary(ctx context.Context, d *dictionary.Dictionary) (Summary, error) {
	var total Summary

	artists := d.Artists()
	rows := make([]map[string]any, len(artists))
	for i, a := range artists {
		rows[i] = map[string]any{"name": a.CanonicalName, "key": a.NormalizedKey}
	}
	s, err := e.batched(ctx, artistCypher, nil, rows)
	if err != nil {
		return total, fmt.Errorf("export artists: %w", err)
	}
	total.add(s)

	members := d.Members()
	rows = make([]map[string]any, len(members))
	for i, m := range members {
		rows[i] = map[string]any{"key": m.DescriptionKey, "name": m.CanonicalName, "owner": m.OwnerArtist}
	}
	s, err = e.batched(ctx, memberCypher, nil, rows)
	if err != nil {
		return total, fmt.Errorf("export members: %w", err)
	}
	total.add(s)

	e.logger.Info("exported dictionary to graph",
		"artists", len(artists),
		"members", len(members),
		"nodes_created", total.NodesCreated,
		"relationships_created", total.RelationshipsCreated,
	)
	return total, nil
}

// ExportRun writes a run node and the mentions of every tagged document.
// Untagged documents are skipped.
func (e *Exporter) ExportRun(ctx context.Context, run models.Run, tags []models.DocumentTags) (Summary, error) {
	var total Summary
	s, err := e.runner.Run(ctx, runCypher, map[string]any{
		"id":         run.ID,
		"created_at": run.CreatedAt.UTC(),
		"documents":  run.Documents,
		"tagged":     run.TaggedDocuments,
	})
	if err != nil {
		return total, fmt.Errorf("export run %s: %w", run.ID, err)
	}
	total.add(s)

	rows := make([]map[string]any, 0, len(tags))
	for _, t := range tags {
		if len(t.CombinedTags) == 0 && len(t.MemberTags) == 0 {
			continue
		}
		rows = append(rows, map[string]any{
			"id":      t.DocumentID,
			"artists": t.CombinedTags,
			"members": t.MemberTags,
		})
	}
	s, err = e.batched(ctx, documentCypher, map[string]any{"run_id": run.ID}, rows)
	if err != nil {
		return total, fmt.Errorf("export run %s documents: %w", run.ID, err)
	}
	total.add(s)

	e.logger.Info("exported run to graph", "run_id", run.ID, "documents", len(rows))
	return total, nil
}

func (e *Exporter) batched(ctx context.Context, cypher string, base map[string]any, rows []map[string]any) (Summary, error) {
	var total Summary
	for start := 0; start < len(rows); start += e.batchSize {
		end := min(start+e.batchSize, len(rows))
		params := make(map[string]any, len(base)+1)
		for k, v := range base {
			params[k] = v
		}
		params["rows"] = rows[start:end]

		s, err := e.runner.Run(ctx, cypher, params)
		if err != nil {
			return total, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		total.add(s)
	}
	return total, nil
}

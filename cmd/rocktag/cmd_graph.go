package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rocknews/rocktag/internal/graph"
)

func graphCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the gazetteer, and optionally a run, to Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("graph: %w", err)
			}

			logger.Debug("connecting to neo4j", "config", cfg.Neo4j.String())
			runner, err := graph.Dial(ctx, graph.Neo4jConfig{
				URI:      cfg.Neo4j.URI,
				Username: cfg.Neo4j.Username,
				Password: cfg.Neo4j.Password,
				Database: cfg.Neo4j.Database,
			})
			if err != nil {
				return fmt.Errorf("graph: %w", err)
			}
			defer func() { _ = runner.Close(ctx) }()

			exp := graph.NewExporter(runner, cfg.Neo4j.BatchSize, logger)
			if err := exp.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("graph: %w", err)
			}

			total, err := exp.ExportDictionary(ctx, engine.Resolver.Dictionary())
			if err != nil {
				return fmt.Errorf("graph: %w", err)
			}

			if runID != "" {
				st, err := newStore(ctx, logger)
				if err != nil {
					return fmt.Errorf("graph: opening run store: %w", err)
				}
				defer func() { _ = st.Close() }()

				id, err := runIDOrLatest(cmd, st, []string{runID})
				if err != nil {
					return fmt.Errorf("graph: %w", err)
				}
				run, err := st.GetRun(ctx, id)
				if err != nil {
					return fmt.Errorf("graph: run %s: %w", id, err)
				}
				tags, err := st.Tags(ctx, id)
				if err != nil {
					return fmt.Errorf("graph: run %s tags: %w", id, err)
				}
				sum, err := exp.ExportRun(ctx, *run, tags)
				if err != nil {
					return fmt.Errorf("graph: %w", err)
				}
				total.NodesCreated += sum.NodesCreated
				total.RelationshipsCreated += sum.RelationshipsCreated
				total.PropertiesSet += sum.PropertiesSet
			}

			rows := [][]string{
				{"nodes created", strconv.Itoa(total.NodesCreated)},
				{"relationships created", strconv.Itoa(total.RelationshipsCreated)},
				{"properties set", strconv.Itoa(total.PropertiesSet)},
			}
			printTable(cmd.OutOrStdout(), []string{"metric", "value"}, rows, []columnAlignment{alignLeft, alignRight})
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "also export a recorded run's mentions (id or \"latest\")")
	return cmd
}

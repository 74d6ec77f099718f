package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func dictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Show gazetteer sizes and the build report",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("dict: %w", err)
			}
			stats := engine.Resolver.Dictionary().Stats()
			r := engine.Report

			rows := [][]string{
				{"artists", strconv.Itoa(stats.Artists)},
				{"aliases", strconv.Itoa(stats.Aliases)},
				{"members", strconv.Itoa(stats.Members)},
				{"excluded", strconv.Itoa(r.Excluded)},
				{"skipped artists", strconv.Itoa(r.SkippedArtists)},
				{"skipped members", strconv.Itoa(r.SkippedMembers)},
				{"artist collisions", strconv.Itoa(r.ArtistCollisions)},
				{"member collisions", strconv.Itoa(r.MemberCollisions)},
			}
			printTable(cmd.OutOrStdout(), []string{"metric", "value"}, rows, []columnAlignment{alignLeft, alignRight})
			return nil
		},
	}

	cmd.AddCommand(dictLookupCmd(), dictAliasesCmd())
	return cmd
}

func dictLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name>",
		Short: "Look up an artist or member name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("dict lookup: %w", err)
			}
			key := engine.Normalizer.Key(args[0])
			matches := engine.Resolver.Dictionary().Lookup(key)
			if len(matches) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No entry for %q (key %q)\n", args[0], key)
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				owner := m.OwnerArtist
				if owner == "" {
					owner = "-"
				}
				rows = append(rows, []string{string(m.Kind), m.Key, m.CanonicalName, owner})
			}
			printTable(cmd.OutOrStdout(), []string{"kind", "key", "name", "owner"}, rows, nil)
			return nil
		},
	}
}

func dictAliasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "List prefix-recovery aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("dict aliases: %w", err)
			}
			d := engine.Resolver.Dictionary()
			rows := [][]string{}
			for _, alias := range d.AliasKeys() {
				name, _ := d.Artist(d.Article() + " " + alias)
				rows = append(rows, []string{alias, name})
			}
			printTable(cmd.OutOrStdout(), []string{"alias", "artist"}, rows, nil)
			return nil
		},
	}
}

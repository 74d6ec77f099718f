package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocknews/rocktag/internal/lifecycle"
)

func pruneCmd() *cobra.Command {
	var (
		dryRun   bool
		keepLast int
		maxAge   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs from the run store",
		Long:  "Applies the retention policy (retention.keep_last, retention.max_age) to recorded runs. Flags override config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			policy := lifecycle.Policy{KeepLast: cfg.Retention.KeepLast, MaxAge: cfg.Retention.MaxAge}
			if cmd.Flags().Changed("keep-last") {
				policy.KeepLast = keepLast
			}
			if cmd.Flags().Changed("max-age") {
				policy.MaxAge = maxAge
			}

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("prune: opening run store: %w", err)
			}
			defer func() { _ = st.Close() }()

			report, err := lifecycle.NewManager(st, policy, logger).Run(ctx, dryRun)
			if err != nil {
				return fmt.Errorf("prune: %w", err)
			}

			rows := [][]string{
				{"expired", strconv.Itoa(report.Expired)},
				{"trimmed", strconv.Itoa(report.Trimmed)},
				{"kept", strconv.Itoa(report.Kept)},
			}
			printTable(cmd.OutOrStdout(), []string{"runs", "count"}, rows, []columnAlignment{alignLeft, alignRight})
			if dryRun {
				fmt.Fprintln(cmd.ErrOrStderr(), "(dry run: no runs deleted)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without deleting")
	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the newest N runs (0 = no limit)")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "delete runs older than this (0 = no limit)")
	return cmd
}

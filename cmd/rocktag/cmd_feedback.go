package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rocknews/rocktag/internal/store"
	"github.com/rocknews/rocktag/internal/tables"
)

func feedbackCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "feedback [run-id]",
		Short: "Print the feedback set of a recorded run (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("feedback: opening run store: %w", err)
			}
			defer func() { _ = st.Close() }()

			runID, err := runIDOrLatest(cmd, st, args)
			if err != nil {
				return fmt.Errorf("feedback: %w", err)
			}
			names, err := st.Feedback(ctx, runID)
			if err != nil {
				return fmt.Errorf("feedback: run %s: %w", runID, err)
			}

			if output == "" || output == "-" {
				return tables.WriteFeedback(cmd.OutOrStdout(), names)
			}
			if err := writeFile(output, func(f *os.File) error {
				return tables.WriteFeedback(f, names)
			}); err != nil {
				return fmt.Errorf("feedback: %w", err)
			}
			logger.Info("wrote feedback set", "run_id", runID, "names", len(names), "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout)")
	return cmd
}

func runIDOrLatest(cmd *cobra.Command, st store.Store, args []string) (string, error) {
	if len(args) > 0 && args[0] != "latest" {
		return args[0], nil
	}
	run, err := st.LatestRun(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("finding latest run: %w", err)
	}
	return run.ID, nil
}

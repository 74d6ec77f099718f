package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocknews/rocktag/internal/normalize"
	"github.com/rocknews/rocktag/internal/tables"
)

func maskCmd() *cobra.Command {
	var (
		feedbackPath string
		runID        string
	)

	cmd := &cobra.Command{
		Use:   "mask [text...]",
		Short: "Replace confirmed entity names with a placeholder",
		Long: `Masks every name of a feedback set in the given text, or in each line of
stdin when no argument is given. The feedback set comes from --feedback
(or input.feedback in config); otherwise from a recorded run (default latest).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			if feedbackPath == "" {
				feedbackPath = cfg.Input.Feedback
			}

			var names []string
			if feedbackPath != "" && runID == "" {
				rows, err := tables.LoadFeedback(feedbackPath)
				if err != nil {
					return fmt.Errorf("mask: %w", err)
				}
				names = rows
			} else {
				st, err := newStore(ctx, logger)
				if err != nil {
					return fmt.Errorf("mask: opening run store: %w", err)
				}
				defer func() { _ = st.Close() }()

				var idArgs []string
				if runID != "" {
					idArgs = []string{runID}
				}
				id, err := runIDOrLatest(cmd, st, idArgs)
				if err != nil {
					return fmt.Errorf("mask: %w", err)
				}
				if names, err = st.Feedback(ctx, id); err != nil {
					return fmt.Errorf("mask: run %s: %w", id, err)
				}
			}

			texts := args
			if len(texts) == 0 {
				var err error
				if texts, err = readLines(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("mask: reading stdin: %w", err)
				}
			}

			m := normalize.NewMasker(names, cfg.Normalize.MaskPlaceholder)
			logger.Debug("masker ready", "names", m.Size())
			out := cmd.OutOrStdout()
			for _, t := range texts {
				fmt.Fprintln(out, m.Mask(t))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&feedbackPath, "feedback", "", "feedback CSV to mask with")
	cmd.Flags().StringVar(&runID, "run", "", "recorded run whose feedback set to mask with")
	return cmd
}

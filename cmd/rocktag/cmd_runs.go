package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded tagging runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("runs: opening run store: %w", err)
			}
			defer func() { _ = st.Close() }()

			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					strconv.Itoa(r.Documents),
					strconv.Itoa(r.TaggedDocuments),
					strconv.Itoa(r.FeedbackNames),
				})
			}
			printTable(cmd.OutOrStdout(),
				[]string{"id", "created", "documents", "tagged", "feedback"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
			)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list (0 = all)")
	return cmd
}

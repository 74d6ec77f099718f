package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/rocknews/rocktag/internal/tables"
)

const (
	tagsFile     = "rock_artist_tags.csv"
	feedbackFile = "rock_artist_feedback.csv"
	lockFile     = ".rocktag.lock"
)

func tagCmd() *cobra.Command {
	var (
		newsPath string
		outDir   string
		noStore  bool
	)

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag a news corpus and write the tag and feedback tables",
		Long: `Runs the full pass over the news table: normalize, build the dictionary,
resolve every document and collect the feedback set.

Writes rock_artist_tags.csv and rock_artist_feedback.csv to the output directory
and records the run in the run store unless --no-store is given.
Exits with status 2 when an input table is missing, empty or lacks a column.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			if newsPath == "" {
				newsPath = cfg.Input.News
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}
			if err := os.MkdirAll(outDir, 0o750); err != nil {
				return fmt.Errorf("tag: creating output directory: %w", err)
			}

			lock := flock.New(filepath.Join(outDir, lockFile))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("tag: acquiring output lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("tag: another run is writing to %s", outDir)
			}
			defer func() { _ = lock.Unlock() }()

			p, err := newPipeline(logger)
			if err != nil {
				return fmt.Errorf("tag: %w", err)
			}
			t, err := loadTables(newsPath)
			if err != nil {
				return fmt.Errorf("tag: %w", err)
			}
			res, err := p.Run(ctx, t)
			if err != nil {
				return fmt.Errorf("tag: %w", err)
			}

			if err := writeFile(filepath.Join(outDir, tagsFile), func(f *os.File) error {
				return tables.WriteTags(f, res.Tags)
			}); err != nil {
				return fmt.Errorf("tag: %w", err)
			}
			if err := writeFile(filepath.Join(outDir, feedbackFile), func(f *os.File) error {
				return tables.WriteFeedback(f, res.Feedback)
			}); err != nil {
				return fmt.Errorf("tag: %w", err)
			}

			if !noStore {
				st, err := newStore(ctx, logger)
				if err != nil {
					return fmt.Errorf("tag: opening run store: %w", err)
				}
				defer func() { _ = st.Close() }()
				if err := st.SaveRun(ctx, res.Run, res.Tags, res.Feedback); err != nil {
					return fmt.Errorf("tag: saving run: %w", err)
				}
			}

			rows := [][]string{
				{"run", res.Run.ID},
				{"documents", strconv.Itoa(res.Run.Documents)},
				{"tagged", strconv.Itoa(res.Run.TaggedDocuments)},
				{"feedback names", strconv.Itoa(res.Run.FeedbackNames)},
				{"artists", strconv.Itoa(res.Report.Artists)},
				{"aliases", strconv.Itoa(res.Report.Aliases)},
				{"members", strconv.Itoa(res.Report.Members)},
				{"skipped rows", strconv.Itoa(res.Report.Skipped())},
				{"collisions", strconv.Itoa(res.Report.ArtistCollisions + res.Report.MemberCollisions)},
				{"duration", res.Timings.Total().String()},
			}
			printTable(cmd.OutOrStdout(), []string{"metric", "value"}, rows, []columnAlignment{alignLeft, alignRight})
			return nil
		},
	}

	cmd.Flags().StringVar(&newsPath, "news", "", "news table (default: input.news)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: output.dir)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the run in the run store")
	return cmd
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path) //nolint:gosec // output path from config/flags
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

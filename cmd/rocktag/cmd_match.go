package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rocknews/rocktag/internal/models"
)

func matchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match [text...]",
		Short: "Tag ad-hoc text against the gazetteer",
		Long:  "Tags each argument, or each line of stdin when no argument is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("match: %w", err)
			}

			texts := args
			if len(texts) == 0 {
				texts, err = readLines(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("match: reading stdin: %w", err)
				}
			}

			type result struct {
				Text string        `json:"text"`
				Tags models.TagSet `json:"tags"`
			}
			results := make([]result, 0, len(texts))
			for _, t := range texts {
				results = append(results, result{Text: t, Tags: engine.Tag(t)})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					truncate(r.Text, 60),
					joinTags(r.Tags.CombinedTags),
					joinTags(r.Tags.MemberTags),
				})
			}
			printTable(out, []string{"text", "tags", "members"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print full tag sets as JSON")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

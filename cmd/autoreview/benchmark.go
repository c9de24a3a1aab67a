package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wikimedia-suomi/pendingbot/supersede"
	"github.com/wikimedia-suomi/pendingbot/wiki"
)

func newBenchmarkCommand(ctx *commandContext) *cobra.Command {
	var (
		wikiFlag    string
		pagesFlag   string
		limit       int
		threshold   float64
		useBlocks   bool
		concurrency int
		output      string
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Compare the supersession strategies over real revisions",
		Long: `Benchmark runs both supersession strategies over the same pending
revisions and reports where they disagree. Disagreements are the point:
each one is a case worth a human look before trusting either strategy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pages, err := loadPages(pagesFlag, wikiFlag)
			if err != nil {
				return err
			}
			client, closeClient, err := ctx.newClient()
			if err != nil {
				return err
			}
			defer closeClient()

			var inputs []supersede.Input
			for _, page := range pages {
				wikiCfg, err := ctx.wikiConfig(page.Wiki)
				if err != nil {
					return err
				}
				if threshold > 0 {
					wikiCfg.SupersededThreshold = threshold
				}
				if useBlocks {
					for _, block := range wiki.GroupConsecutive(page.Pending) {
						inputs = append(inputs, supersede.InputForBlock(page, block, wikiCfg))
					}
				} else {
					for _, rev := range page.Pending {
						inputs = append(inputs, supersede.InputForRevision(page, rev, wikiCfg))
					}
				}
			}
			if limit > 0 && len(inputs) > limit {
				inputs = inputs[:limit]
			}

			if concurrency <= 0 {
				concurrency = cfg.Concurrency
			}
			comparison := &supersede.Comparison{
				Primary:     supersede.NewSimilarityStrategy(client, client),
				Secondary:   supersede.NewWordLevelStrategy(client),
				Concurrency: concurrency,
				Progress: func(done, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\rcompared %d/%d", done, total)
					if done == total {
						fmt.Fprintln(cmd.ErrOrStderr())
					}
				},
			}
			report := comparison.Run(cmd.Context(), inputs)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, summaryTable(report))
			if len(report.Discrepancies) > 0 {
				fmt.Fprintln(out, discrepancyTable(report.Discrepancies))
			}

			if output != "" {
				raw, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
				if err := os.WriteFile(output, raw, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(out, "Report written to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&wikiFlag, "wiki", "w", "", "Wiki language code for pages that do not name one")
	cmd.Flags().StringVarP(&pagesFlag, "pages", "p", "", "YAML file listing the pages to benchmark")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many inputs (0 = all)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Override the superseded similarity threshold")
	cmd.Flags().BoolVar(&useBlocks, "use-blocks", false, "Compare cumulative edit blocks instead of single revisions")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Inputs evaluated at once (0 = config default)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the full report to this JSON file")
	cmd.MarkFlagRequired("pages")

	return cmd
}

func summaryTable(report supersede.Report) string {
	rows := [][]string{
		{"Total inputs", strconv.Itoa(report.Total)},
		{"Compared", strconv.Itoa(report.Compared)},
		{"Inconclusive", strconv.Itoa(report.Inconclusive)},
		{"Agreements", strconv.Itoa(report.Agreements)},
		{"Agreement rate", strconv.FormatFloat(report.AgreementRate(), 'f', 3, 64)},
		{"Both superseded", strconv.Itoa(report.BothSuperseded)},
		{"Both not superseded", strconv.Itoa(report.BothNotSuperseded)},
		{"Similarity only", strconv.Itoa(report.PrimaryOnly)},
		{"Word-level only", strconv.Itoa(report.SecondaryOnly)},
	}
	return renderTable([]string{"Metric", "Value"}, rows, 2)
}

func discrepancyTable(discrepancies []supersede.Discrepancy) string {
	rows := make([][]string, 0, len(discrepancies))
	for _, d := range discrepancies {
		rows = append(rows, []string{
			strconv.FormatInt(d.RevisionID, 10),
			d.PageTitle,
			d.Primary,
			d.Secondary,
			d.ReviewURL,
		})
	}
	return renderTable([]string{"Revision", "Page", "Similarity", "Word-level", "Review"}, rows, 1)
}

package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wikimedia-suomi/pendingbot/autoreview"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var (
		wikiFlag  string
		pagesFlag string
		useBlocks bool
		checks    []string
		dryRun    bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate pending revisions and report the verdicts",
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

			if !dryRun {
				slog.Warn("review submission is not implemented, reporting only")
			}

			out := cmd.OutOrStdout()
			for _, page := range pages {
				wikiCfg, err := ctx.wikiConfig(page.Wiki)
				if err != nil {
					return err
				}
				decisions, err := autoreview.EvaluateBatch(cmd.Context(), client, page, wikiCfg, autoreview.BatchOptions{
					UseBlocks:   useBlocks,
					Checks:      checks,
					Concurrency: cfg.Concurrency,
					Logger:      slog.Default(),
				})
				if err != nil {
					return fmt.Errorf("evaluate %s:%s: %w", page.Wiki, page.Title, err)
				}

				fmt.Fprintf(out, "%s:%s\n", page.Wiki, page.Title)
				fmt.Fprintln(out, decisionTable(decisions))
				if verbose {
					for _, decision := range decisions {
						fmt.Fprintf(out, "rev %d\n", decision.RevisionID)
						fmt.Fprintln(out, resultTable(decision.Results))
					}
				}

				lastID, comment := autoreview.SynthesizeApproval(decisions, cfg.CommentPrefix)
				if lastID == 0 {
					fmt.Fprintf(out, "Nothing to approve: %s\n\n", comment)
					continue
				}
				fmt.Fprintf(out, "Would approve through rev %d: %s\n\n", lastID, comment)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&wikiFlag, "wiki", "w", "", "Wiki language code for pages that do not name one")
	cmd.Flags().StringVarP(&pagesFlag, "pages", "p", "", "YAML file listing the pages to evaluate")
	cmd.Flags().BoolVar(&useBlocks, "use-blocks", false, "Judge consecutive same-editor revisions as one unit")
	cmd.Flags().StringSliceVar(&checks, "checks", nil, "Run only these checks, in registry order")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Report verdicts without submitting reviews")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show every check result, not just verdicts")
	cmd.MarkFlagRequired("pages")

	return cmd
}

func decisionTable(decisions []autoreview.Decision) string {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, []string{
			strconv.FormatInt(d.RevisionID, 10),
			d.Status.String(),
			d.Reason,
		})
	}
	return renderTable([]string{"Revision", "Verdict", "Reason"}, rows, 1)
}

func resultTable(results []autoreview.CheckResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		evidence := ""
		if r.Evidence != 0 {
			evidence = strconv.FormatFloat(r.Evidence, 'f', 3, 64)
		}
		rows = append(rows, []string{r.ID, r.Status.String(), evidence, r.Message})
	}
	return renderTable([]string{"Check", "Status", "Evidence", "Message"}, rows, 3)
}

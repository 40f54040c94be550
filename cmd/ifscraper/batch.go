package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrmechko/ifscraper/internal/batch"
	"github.com/mrmechko/ifscraper/pkg/scraper"
	"github.com/mrmechko/ifscraper/pkg/ui"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Scrape every listing named in a JSON or YAML file",
	Long: `Scrape a list of listings. The file is a JSON or YAML list of entries, each
with a 'generator' that is either a listing url or a bare meme code:

  - generator: Drake-Hotline-Bling
  - generator: https://imgflip.com/meme/Two-Buttons

Each entry is scraped into <output>/<code>, with its position in the list as
shard id. Derived 'code' and 'url' fields are written back to the file.
A failing entry is reported and the batch moves on.`,
	Example: `  ifscraper batch memes.yaml --num 100
  ifscraper batch memes.json -o ./dataset --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("output", "o", "", "output root; each entry gets a subdirectory")
	batchCmd.Flags().IntP("num", "n", 0, "items to collect per entry")
	batchCmd.Flags().Int("concurrency", 0, "number of entries scraped at once (default 1)")
	batchCmd.Flags().Bool("replace", false, "re-download images that already exist locally")
	batchCmd.Flags().Bool("resume", false, "continue each entry from its checkpoint")
	batchCmd.Flags().Duration("delay", 0, "pause between items")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(changedFlags(cmd, "output", "num", "concurrency", "replace", "resume", "delay"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Batch file", args[0])
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	// Live progress lines would interleave with more than one worker
	var progress func(job batch.Job) scraper.Progress
	if cfg.Batch.Concurrency == 1 && !ui.IsQuietMode() {
		progress = func(job batch.Job) scraper.Progress {
			return ui.NewProgressDisplay(job.Entry.Code, cfg.Scrape.TargetCount)
		}
	}

	report, err := batch.NewDriver(args[0], cfg, progress, log).Run(ctx)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d entries failed", len(report.Failures), report.Entries)
	}
	return nil
}

func printReport(report *batch.Report) {
	for _, result := range report.Results {
		if result.Err != nil || result.Summary == nil {
			continue
		}
		ui.PrintInfo(result.Job.Entry.Code, fmt.Sprintf("%d items, %d pages (%s)",
			result.Summary.Accepted, result.Summary.Pages, result.Summary.OutputPath))
	}

	indexes := make([]int, 0, len(report.Failures))
	for index := range report.Failures {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		ui.PrintError(fmt.Sprintf("entry #%d", index), report.Failures[index])
	}

	ui.PrintSuccess(fmt.Sprintf("%d of %d entries scraped in %s", report.Succeeded(), report.Entries, report.Duration.Round(time.Second)))
}

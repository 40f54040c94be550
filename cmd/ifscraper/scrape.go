package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrmechko/ifscraper/pkg/scraper"
	"github.com/mrmechko/ifscraper/pkg/ui"
)

var scrapeURL string

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]",
	Short: "Scrape one paginated listing",
	Long: `Walk a listing page by page until --num items are collected or the listing
ends. Each item's image is saved under <output>/img and the records are
written to <output>/scrape.json (scrape_<shard>.json with --shard).

Progress is checkpointed to a .backup file next to the output every ten
items. If the run is interrupted, rerun with --resume to continue from it.`,
	Example: `  # Scrape 50 items from a meme listing
  ifscraper scrape https://imgflip.com/meme/Drake-Hotline-Bling --num 50

  # Write to a custom directory and re-download existing images
  ifscraper scrape --url https://imgflip.com/meme/Two-Buttons -o ./two-buttons --replace

  # Continue an interrupted run
  ifscraper scrape https://imgflip.com/meme/Two-Buttons --num 500 --resume`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&scrapeURL, "url", "u", "", "listing url to start from")
	scrapeCmd.Flags().StringP("output", "o", "", "output root directory (default ./scrape)")
	scrapeCmd.Flags().IntP("num", "n", 0, "number of items to collect (default 10)")
	scrapeCmd.Flags().Bool("replace", false, "re-download images that already exist locally")
	scrapeCmd.Flags().Bool("resume", false, "continue from the checkpoint of an interrupted run")
	scrapeCmd.Flags().String("shard", "", "shard id, used in output and checkpoint file names")
	scrapeCmd.Flags().Duration("delay", 0, "pause between items (default 2s)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	startURL := strings.TrimSpace(scrapeURL)
	if len(args) == 1 {
		startURL = strings.TrimSpace(args[0])
	}
	if startURL == "" {
		return errors.New("a listing url is required, as an argument or with --url")
	}

	cfg, log, err := loadConfig(changedFlags(cmd, "output", "num", "replace", "resume", "shard", "delay"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Listing", startURL)
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	var progress scraper.Progress
	if !ui.IsQuietMode() {
		progress = ui.NewProgressDisplay("scrape", cfg.Scrape.TargetCount)
	}

	w, err := scraper.NewFromConfig(cfg, startURL, progress, log)
	if err != nil {
		return err
	}

	summary, err := w.Run(ctx)
	if err != nil {
		if summary != nil && summary.Accepted > 0 {
			ui.PrintWarning("Progress saved to checkpoint; rerun with --resume to continue")
		}
		return fmt.Errorf("scrape failed: %w", err)
	}

	if summary.TargetReached {
		ui.PrintSuccess(fmt.Sprintf("Collected %d items into %s", summary.Accepted, summary.OutputPath))
	} else {
		ui.PrintWarning(fmt.Sprintf("Listing ended after %d of %d items", summary.Accepted, summary.Target), summary.OutputPath)
	}
	return nil
}

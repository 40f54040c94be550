package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrmechko/ifscraper/pkg/migrate"
	"github.com/mrmechko/ifscraper/pkg/ui"
)

var updateFileName string

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <path>",
	Short: "Re-parse captions of existing output files",
	Long: `Re-run the caption parser over records written by an older version.

<path> is either a single output file or a batch output root, in which case
every <path>/*/<fname> is updated in place.`,
	Example: `  ifscraper update ./scrape/scrape.json
  ifscraper update ./dataset --fname scrape_0.json`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateFileName, "fname", "", "output file name inside each subdirectory (default scrape.json)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	_, log, err := loadConfig(nil)
	if err != nil {
		return err
	}

	stats, err := migrate.Update(args[0], updateFileName, log)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Updated %d of %d records in %d files", stats.Updated, stats.Records, stats.Files))
	return nil
}

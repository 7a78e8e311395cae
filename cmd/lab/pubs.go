package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/matsen/labsite/internal/config"
	"github.com/matsen/labsite/internal/export"
	"github.com/matsen/labsite/internal/importer"
	"github.com/matsen/labsite/internal/publication"
	"github.com/matsen/labsite/internal/storage"
	"github.com/matsen/labsite/internal/watch"
	"github.com/spf13/cobra"
)

var (
	convertSource string
	convertOutput string
	convertDryRun bool
	convertWatch  bool
)

func init() {
	pubsConvertCmd.Flags().StringVar(&convertSource, "source", "", "Workbook to read (default: publications.source)")
	pubsConvertCmd.Flags().StringVar(&convertOutput, "output", "", "JSON file to write (default: publications.output)")
	pubsConvertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Parse and report without writing")
	pubsConvertCmd.Flags().BoolVar(&convertWatch, "watch", false, "Convert again whenever the workbook changes")

	pubsCmd.AddCommand(pubsConvertCmd)
	rootCmd.AddCommand(pubsCmd)
}

var pubsCmd = &cobra.Command{
	Use:   "pubs",
	Short: "Manage the publication list",
}

var pubsConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the publication spreadsheet to JSON",
	Long: `Convert the publication spreadsheet to the JSON file the website renders.

The first sheet whose name contains the configured keyword (default "논문")
is read. Rows whose type mentions "journal" go to journal_papers, rows that
mention "conference" go to proceedings, and other rows are skipped. Each
bucket is sorted newest first and numbered within each year.

Rows without a recognizable year inherit the year of the row above, so the
sheet is expected to run from newest to oldest.

If the query cache exists it is refreshed after a successful write.

Examples:
  lab pubs convert
  lab pubs convert --dry-run --human
  lab pubs convert --watch`,
	Args: cobra.NoArgs,
	RunE: runPubsConvert,
}

// ConvertResult is the response for the pubs convert command.
type ConvertResult struct {
	Status  string                `json:"status"`
	Source  string                `json:"source"`
	Output  string                `json:"output"`
	Sheet   string                `json:"sheet"`
	Counts  publication.Counts    `json:"counts"`
	Bytes   int64                 `json:"bytes,omitempty"`
	Cached  bool                  `json:"cache_refreshed,omitempty"`
	Skipped []importer.SkippedRow `json:"skipped,omitempty"`
}

// importerOptions builds importer options from the configuration.
func importerOptions(cfg *config.Config) importer.Options {
	return importer.Options{
		SheetKeyword: cfg.Publications.SheetKeyword,
		Columns:      cfg.Publications.Columns,
	}
}

// convertPublications reads source, ranks both buckets and, unless dryRun,
// writes output. The returned document is what was (or would be) written.
func convertPublications(source, output string, opts importer.Options, dryRun bool, now time.Time) (*ConvertResult, *publication.Document, error) {
	res, err := importer.ReadWorkbook(source, opts)
	if err != nil {
		return nil, nil, err
	}

	doc := publication.BuildDocument(filepath.Base(source), res.Journal, res.Proceedings, now)

	result := &ConvertResult{
		Status:  "converted",
		Source:  source,
		Output:  output,
		Sheet:   res.Sheet,
		Counts:  doc.Counts,
		Skipped: res.Skipped,
	}

	if dryRun {
		result.Status = "dry_run"
		return result, &doc, nil
	}

	if err := export.WriteDocument(output, doc); err != nil {
		return nil, nil, err
	}
	if info, err := os.Stat(output); err == nil {
		result.Bytes = info.Size()
	}

	return result, &doc, nil
}

// refreshCache rebuilds the query cache from doc when the cache already exists.
func refreshCache(root string, doc *publication.Document) (bool, error) {
	dbPath := config.DBPath(root)
	if _, err := os.Stat(dbPath); err != nil {
		return false, nil
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return false, err
	}
	defer db.Close()

	if _, err := db.RebuildFromDocument(doc); err != nil {
		return false, err
	}
	return true, nil
}

func runPubsConvert(cmd *cobra.Command, args []string) error {
	root, cfg, ok := loadSite()
	if !ok {
		return nil
	}

	source := config.Resolve(root, cfg.Publications.Source)
	if convertSource != "" {
		source = config.Resolve(root, convertSource)
	}
	output := config.Resolve(root, cfg.Publications.Output)
	if convertOutput != "" {
		output = config.Resolve(root, convertOutput)
	}
	opts := importerOptions(cfg)

	convert := func() error {
		if _, err := os.Stat(source); err != nil {
			return fmt.Errorf("workbook not found: %s", source)
		}
		result, doc, err := convertPublications(source, output, opts, convertDryRun, time.Now())
		if err != nil {
			return err
		}
		if !convertDryRun {
			cached, err := refreshCache(root, doc)
			if err != nil {
				warn("refreshing query cache: %v", err)
			}
			result.Cached = cached
		}
		printConvertResult(result)
		return nil
	}

	if !convertWatch {
		if _, err := os.Stat(source); err != nil {
			fail(ExitConfigError, "workbook not found: %s", source)
			return nil
		}
		if err := convert(); err != nil {
			fail(ExitDataError, "converting %s: %v", source, err)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := convert(); err != nil {
		warn("%v", err)
	}
	if humanOutput {
		fmt.Printf("Watching %s (Ctrl-C to stop)\n", source)
	}

	err := watch.Run(ctx, source, watch.DefaultDebounce, convert, func(err error) {
		warn("%v", err)
	})
	if err != nil {
		fail(ExitError, "watching %s: %v", source, err)
	}
	return nil
}

func printConvertResult(r *ConvertResult) {
	if !humanOutput {
		outputJSON(r)
		return
	}

	verb := "Wrote"
	if r.Status == "dry_run" {
		verb = "Would write"
	}
	fmt.Printf("%s %d journal papers and %d proceedings from sheet %q to %s",
		verb, r.Counts.Journal, r.Counts.Proceedings, r.Sheet, r.Output)
	if r.Bytes > 0 {
		fmt.Printf(" (%s)", formatBytes(r.Bytes))
	}
	fmt.Println()

	if r.Cached {
		fmt.Println("Refreshed query cache")
	}
	if len(r.Skipped) > 0 {
		fmt.Printf("Skipped %d rows:\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Printf("  row %d: %s [%s]\n", s.Row, truncateString(s.Title, ListTitleMaxLen), s.Type)
		}
	}
}

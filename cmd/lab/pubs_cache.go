package main

import (
	"fmt"
	"os"

	"github.com/matsen/labsite/internal/config"
	"github.com/matsen/labsite/internal/export"
	"github.com/matsen/labsite/internal/publication"
	"github.com/matsen/labsite/internal/storage"
	"github.com/spf13/cobra"
)

var (
	queryKind     string
	queryYear     int
	queryYearFrom int
	queryYearTo   int
	queryLimit    int
)

func init() {
	pubsSearchCmd.Flags().StringVar(&queryKind, "kind", "", "Restrict to journal or proceedings")
	pubsSearchCmd.Flags().IntVar(&queryYearFrom, "year-from", 0, "Earliest year to include")
	pubsSearchCmd.Flags().IntVar(&queryYearTo, "year-to", 0, "Latest year to include")
	pubsSearchCmd.Flags().IntVar(&queryLimit, "limit", DefaultSearchLimit, "Maximum results to return")

	pubsListCmd.Flags().StringVar(&queryKind, "kind", "", "Restrict to journal or proceedings")
	pubsListCmd.Flags().IntVar(&queryYear, "year", 0, "Only this year")
	pubsListCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum results to return (0 = all)")

	pubsCmd.AddCommand(pubsRebuildCmd)
	pubsCmd.AddCommand(pubsSearchCmd)
	pubsCmd.AddCommand(pubsListCmd)
	pubsCmd.AddCommand(pubsGetCmd)
}

var pubsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query cache from publications.json",
	Long: `Rebuild the SQLite query cache from publications.json.

The cache lives in .labsite/cache and can be deleted at any time.`,
	Args: cobra.NoArgs,
	RunE: runPubsRebuild,
}

var pubsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search publications by keyword",
	Long: `Search titles, authors and venues in the query cache.

Examples:
  lab pubs search "indoor air"
  lab pubs search Kim --kind journal --year-from 2020`,
	Args: cobra.ExactArgs(1),
	RunE: runPubsSearch,
}

var pubsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List publications in website order",
	Args:  cobra.NoArgs,
	RunE:  runPubsList,
}

var pubsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one publication by ID",
	Long: `Show one cached publication by the ID printed by list and search.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPubsGet,
}

// RebuildResult is the response for the pubs rebuild command.
type RebuildResult struct {
	Status       string             `json:"status"`
	Publications int                `json:"publications"`
	Counts       publication.Counts `json:"counts"`
}

// rebuildCache recreates the query cache at root from the JSON document at path.
func rebuildCache(root, path string) (*RebuildResult, error) {
	doc, err := export.ReadDocument(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.RebuildFromDocument(doc); err != nil {
		return nil, fmt.Errorf("rebuilding database: %w", err)
	}
	count, err := db.Count()
	if err != nil {
		return nil, fmt.Errorf("counting publications: %w", err)
	}
	counts, err := db.CountByKind()
	if err != nil {
		return nil, err
	}

	return &RebuildResult{Status: "rebuilt", Publications: count, Counts: counts}, nil
}

func runPubsRebuild(cmd *cobra.Command, args []string) error {
	root, cfg, ok := loadSite()
	if !ok {
		return nil
	}

	path := config.Resolve(root, cfg.Publications.Output)
	if _, err := os.Stat(path); err != nil {
		fail(ExitConfigError, "%s not found; run 'lab pubs convert' first", path)
		return nil
	}

	result, err := rebuildCache(root, path)
	if err != nil {
		fail(ExitDataError, "%v", err)
		return nil
	}

	if humanOutput {
		fmt.Printf("Rebuilt query cache with %d publications (%d journal, %d proceedings)\n",
			result.Publications, result.Counts.Journal, result.Counts.Proceedings)
	} else {
		outputJSON(result)
	}
	return nil
}

// openCache opens the query cache, reporting an error if it has not been built.
func openCache() (*storage.DB, bool) {
	root, err := getRoot()
	if err != nil {
		fail(ExitError, "getting current directory: %v", err)
		return nil, false
	}

	dbPath := config.DBPath(root)
	if _, err := os.Stat(dbPath); err != nil {
		fail(ExitConfigError, "query cache not found; run 'lab pubs rebuild'")
		return nil, false
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		fail(ExitError, "%v", err)
		return nil, false
	}
	return db, true
}

// parseKindFlag validates --kind. An empty value means both buckets.
func parseKindFlag(s string) (publication.Kind, bool) {
	if s == "" {
		return "", true
	}
	return publication.ParseKind(s)
}

func runPubsSearch(cmd *cobra.Command, args []string) error {
	kind, ok := parseKindFlag(queryKind)
	if !ok {
		fail(ExitError, "invalid --kind %q (want journal or proceedings)", queryKind)
		return nil
	}

	db, ok := openCache()
	if !ok {
		return nil
	}
	defer db.Close()

	filters := storage.Filters{Kind: kind, YearFrom: queryYearFrom, YearTo: queryYearTo}
	pubs, err := db.Search(args[0], filters, queryLimit)
	if err != nil {
		fail(ExitError, "%v", err)
		return nil
	}

	printPublications(pubs)
	return nil
}

func runPubsList(cmd *cobra.Command, args []string) error {
	kind, ok := parseKindFlag(queryKind)
	if !ok {
		fail(ExitError, "invalid --kind %q (want journal or proceedings)", queryKind)
		return nil
	}

	db, ok := openCache()
	if !ok {
		return nil
	}
	defer db.Close()

	filters := storage.Filters{Kind: kind, YearFrom: queryYear, YearTo: queryYear}
	pubs, err := db.List(filters, queryLimit)
	if err != nil {
		fail(ExitError, "%v", err)
		return nil
	}

	printPublications(pubs)
	return nil
}

// printPublications writes query results; an empty result is not an error.
func printPublications(pubs []storage.Publication) {
	if pubs == nil {
		pubs = []storage.Publication{}
	}

	if !humanOutput {
		outputJSON(pubs)
		return
	}

	if len(pubs) == 0 {
		fmt.Println("No publications found")
		return
	}

	fmt.Printf("Found %d publications:\n\n", len(pubs))
	for _, p := range pubs {
		year := "----"
		if p.Year != nil {
			year = fmt.Sprintf("%d", *p.Year)
		}
		fmt.Printf("%s  [%s] %s\n", year, p.Kind, truncateString(p.Title, ListTitleMaxLen))
		if line := joinNonEmpty(" | ", p.Authors, p.Venue); line != "" {
			fmt.Printf("      %s\n", line)
		}
		fmt.Printf("      id: %s\n", p.ID)
		fmt.Println()
	}
}

func runPubsGet(cmd *cobra.Command, args []string) error {
	db, ok := openCache()
	if !ok {
		return nil
	}
	defer db.Close()

	pub, err := db.GetByID(args[0])
	if err != nil {
		fail(ExitError, "%v", err)
		return nil
	}
	if pub == nil {
		fail(ExitDataError, "publication not found: %s", args[0])
		return nil
	}

	if humanOutput {
		year := "----"
		if pub.Year != nil {
			year = fmt.Sprintf("%d", *pub.Year)
		}
		fmt.Printf("ID:      %s\n", pub.ID)
		fmt.Printf("Kind:    %s\n", pub.Kind)
		fmt.Printf("Year:    %s (#%d within year)\n", year, pub.WithinYearOrder+1)
		fmt.Printf("Title:   %s\n", pub.Title)
		fmt.Printf("Authors: %s\n", pub.Authors)
		fmt.Printf("Venue:   %s\n", pub.Venue)
	} else {
		outputJSON(pub)
	}
	return nil
}

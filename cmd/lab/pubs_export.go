package main

import (
	"fmt"
	"os"

	"github.com/matsen/labsite/internal/config"
	"github.com/matsen/labsite/internal/export"
	"github.com/matsen/labsite/internal/publication"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportKind   string
	exportOutput string
)

func init() {
	pubsExportCmd.Flags().StringVar(&exportFormat, "format", "bibtex", "Output format (bibtex)")
	pubsExportCmd.Flags().StringVar(&exportKind, "kind", "", "Restrict to journal or proceedings")
	pubsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	pubsCmd.AddCommand(pubsExportCmd)
}

var pubsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export publications.json as BibTeX",
	Long: `Export the converted publication list as BibTeX.

Journal papers become @article entries and proceedings become
@inproceedings. Impact factor annotations are dropped from venues.

Examples:
  lab pubs export > publications.bib
  lab pubs export --kind journal -o journal.bib`,
	Args: cobra.NoArgs,
	RunE: runPubsExport,
}

// filterDocument keeps only the bucket named by kind. An empty kind keeps both.
func filterDocument(doc publication.Document, kind publication.Kind) publication.Document {
	switch kind {
	case publication.KindJournal:
		doc.Proceedings = nil
		doc.Counts.Proceedings = 0
	case publication.KindProceedings:
		doc.JournalPapers = nil
		doc.Counts.Journal = 0
	}
	return doc
}

func runPubsExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "bibtex" {
		fail(ExitError, "unsupported format %q", exportFormat)
		return nil
	}
	kind, ok := parseKindFlag(exportKind)
	if !ok {
		fail(ExitError, "invalid --kind %q (want journal or proceedings)", exportKind)
		return nil
	}

	root, cfg, ok := loadSite()
	if !ok {
		return nil
	}

	path := config.Resolve(root, cfg.Publications.Output)
	doc, err := export.ReadDocument(path)
	if err != nil {
		fail(ExitDataError, "%v", err)
		return nil
	}

	filtered := filterDocument(*doc, kind)
	bib := export.DocumentToBibTeX(filtered)

	if exportOutput == "" {
		fmt.Print(bib)
		return nil
	}

	out := config.Resolve(root, exportOutput)
	if err := os.WriteFile(out, []byte(bib), 0644); err != nil {
		fail(ExitError, "writing %s: %v", out, err)
		return nil
	}
	if humanOutput {
		fmt.Printf("Exported %d entries to %s\n", len(filtered.JournalPapers)+len(filtered.Proceedings), out)
	} else {
		outputJSON(StatusResponse{Status: "exported", Path: out})
	}
	return nil
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/labsite/internal/publication"
)

// impactSuffixRe matches the " (IF 6.9, Top 4.95%)" annotation on journal venues.
var impactSuffixRe = regexp.MustCompile(`\s*\((?:IF|Top) [^()]*\)$`)

// ToBibTeX converts a published entry to BibTeX format.
func ToBibTeX(key string, kind publication.Kind, e publication.Entry) string {
	entryType := "article"
	venueField := "journal"
	if kind == publication.KindProceedings {
		entryType = "inproceedings"
		venueField = "booktitle"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, key))

	if e.Authors != "" {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(formatAuthors(e.Authors))))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(e.Title)))

	if venue := StripImpact(e.Venue); venue != "" {
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", venueField, escapeLatex(venue)))
	}

	if e.Year != nil {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", *e.Year))
	}

	b.WriteString("}\n")

	return b.String()
}

// DocumentToBibTeX converts every entry of a document, journals first.
// Keys are "<kind initial><year>-<within year order>", e.g. j2024-0.
func DocumentToBibTeX(doc publication.Document) string {
	var entries []string
	for _, e := range doc.JournalPapers {
		entries = append(entries, ToBibTeX(CiteKey(publication.KindJournal, e), publication.KindJournal, e))
	}
	for _, e := range doc.Proceedings {
		entries = append(entries, ToBibTeX(CiteKey(publication.KindProceedings, e), publication.KindProceedings, e))
	}
	return strings.Join(entries, "\n")
}

// CiteKey builds a citation key that is unique within a document.
func CiteKey(kind publication.Kind, e publication.Entry) string {
	year := "nd"
	if e.Year != nil {
		year = fmt.Sprint(*e.Year)
	}
	return fmt.Sprintf("%c%s-%d", kind[0], year, e.WithinYearOrder)
}

// StripImpact removes the impact factor annotation from a venue string.
func StripImpact(venue string) string {
	return impactSuffixRe.ReplaceAllString(venue, "")
}

// formatAuthors converts the sheet's author list to BibTeX's "A and B" form.
// Lists separated by semicolons keep "Last, First" names intact; otherwise
// commas separate authors.
func formatAuthors(authors string) string {
	sep := ","
	if strings.Contains(authors, ";") {
		sep = ";"
	}

	var names []string
	for _, a := range strings.Split(authors, sep) {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return strings.Join(names, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// NewReplacer makes a single pass, so replacements are never re-escaped.
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}

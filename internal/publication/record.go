// Package publication defines the publication record and the rules that turn
// spreadsheet rows into the sorted, bucketed list shown on the lab website.
package publication

import (
	"strconv"

	"github.com/google/uuid"
)

// Kind is the bucket a publication belongs to.
type Kind string

const (
	KindJournal     Kind = "journal"
	KindProceedings Kind = "proceedings"
)

// recordNamespace scopes deterministic record IDs.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://labsite/publications"))

// Record is a single normalized row from the publication spreadsheet.
type Record struct {
	SheetPos int    // 1-based row number in the source sheet (tie-break)
	Kind     Kind   // journal or proceedings
	Year     int    // 0 if unknown
	Date     int    // YYYYMMDD, YYYY0000 if only the year is known, 0 if unknown
	Title    string
	Authors  string
	Venue    string // may end with an impact factor annotation
}

// ID returns a stable identifier derived from the record's kind, year and title.
// Re-running the converter on unchanged input yields the same IDs.
func (r Record) ID() string {
	return MakeID(r.Kind, r.Year, r.Title)
}

// MakeID derives the deterministic identifier for a publication.
func MakeID(kind Kind, year int, title string) string {
	name := string(kind) + "|" + strconv.Itoa(year) + "|" + title
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

// KindFromType classifies a spreadsheet type cell. Anything that is not a
// journal is a proceedings entry.
func KindFromType(paperType string) Kind {
	if containsFold(paperType, "journal") {
		return KindJournal
	}
	return KindProceedings
}

// IsPublicationType reports whether a type cell describes a journal or
// conference paper. Other rows (talks, patents, stray notes) are skipped.
func IsPublicationType(paperType string) bool {
	return containsFold(paperType, "journal") || containsFold(paperType, "conference")
}

// ParseKind validates a kind name given on the command line.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindJournal, KindProceedings:
		return Kind(s), true
	}
	return "", false
}

package publication

import (
	"sort"
	"time"
)

// GeneratedAtLayout is the UTC timestamp format of Document.GeneratedAt.
const GeneratedAtLayout = "2006-01-02T15:04:05Z"

// Entry is one publication as rendered in publications.json.
type Entry struct {
	Year            *int   `json:"year"` // null when the year could not be inferred
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	Venue           string `json:"venue"`
	WithinYearOrder int    `json:"within_year_order"`
}

// Counts holds the number of entries per bucket.
type Counts struct {
	Journal     int `json:"journal"`
	Proceedings int `json:"proceedings"`
}

// Document is the full publications.json payload.
type Document struct {
	GeneratedFrom string  `json:"generated_from"`
	GeneratedAt   string  `json:"generated_at"`
	Counts        Counts  `json:"counts"`
	JournalPapers []Entry `json:"journal_papers"`
	Proceedings   []Entry `json:"proceedings"`
}

// Sort orders records by year descending, date descending, then sheet
// position ascending. The input slice is not modified.
func Sort(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.SheetPos < b.SheetPos
	})
	return sorted
}

// Rank sorts one bucket and assigns each entry its 0-based position within
// its year, 0 being the most recent.
func Rank(records []Record) []Entry {
	sorted := Sort(records)
	entries := make([]Entry, 0, len(sorted))

	currentYear, within := 0, 0
	for i, r := range sorted {
		if i == 0 || r.Year != currentYear {
			currentYear = r.Year
			within = 0
		}

		var year *int
		if r.Year != 0 {
			y := r.Year
			year = &y
		}

		entries = append(entries, Entry{
			Year:            year,
			Title:           r.Title,
			Authors:         r.Authors,
			Venue:           r.Venue,
			WithinYearOrder: within,
		})
		within++
	}
	return entries
}

// BuildDocument ranks both buckets and assembles the output payload.
func BuildDocument(source string, journal, proceedings []Record, now time.Time) Document {
	j := Rank(journal)
	p := Rank(proceedings)
	return Document{
		GeneratedFrom: source,
		GeneratedAt:   now.UTC().Format(GeneratedAtLayout),
		Counts: Counts{
			Journal:     len(j),
			Proceedings: len(p),
		},
		JournalPapers: j,
		Proceedings:   p,
	}
}

// Split buckets records by kind, preserving their order.
func Split(records []Record) (journal, proceedings []Record) {
	for _, r := range records {
		if r.Kind == KindJournal {
			journal = append(journal, r)
		} else {
			proceedings = append(proceedings, r)
		}
	}
	return journal, proceedings
}

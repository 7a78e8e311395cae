// Package importer reads the lab's publication spreadsheet into publication records.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/labsite/internal/config"
	"github.com/matsen/labsite/internal/publication"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Options controls how a workbook is interpreted.
type Options struct {
	SheetKeyword string         // pick the first sheet whose name contains this
	Columns      config.Columns // 1-based column positions
}

// DefaultOptions returns the layout of the lab's publication sheet.
func DefaultOptions() Options {
	return Options{
		SheetKeyword: "논문",
		Columns:      config.DefaultColumns(),
	}
}

// SkippedRow describes a non-blank row that was left out of the output.
type SkippedRow struct {
	Row    int    `json:"row"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Result holds the records read from one sheet, already bucketed but unsorted.
type Result struct {
	Sheet       string
	Journal     []publication.Record
	Proceedings []publication.Record
	Skipped     []SkippedRow
}

// Total returns the number of records across both buckets.
func (r *Result) Total() int {
	return len(r.Journal) + len(r.Proceedings)
}

// ReadWorkbook opens an .xlsx file and parses its publication sheet.
func ReadWorkbook(path string, opts Options) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	sheet := SelectSheet(sheets, opts.SheetKeyword)

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	// Date cells render through their number format, which may drop the
	// month and day. The raw value is the Excel serial number.
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	overlayColumn(rows, raw, opts.Columns.Date)

	result := ParseRows(rows, opts)
	result.Sheet = sheet
	return result, nil
}

// SelectSheet returns the first sheet name containing keyword, else the first sheet.
func SelectSheet(names []string, keyword string) string {
	if keyword != "" {
		for _, n := range names {
			if strings.Contains(n, keyword) {
				return n
			}
		}
	}
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// ParseRows converts sheet rows (header first) into records. Rows are
// processed in sheet order so that year carry-forward sees the previous row.
func ParseRows(rows [][]string, opts Options) *Result {
	cols := opts.Columns
	result := &Result{}
	var records []publication.Record
	var years publication.YearInferrer

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		sheetPos := i + 1
		cell := func(col int) string { return cellAt(row, col) }

		title := cell(cols.Title)
		if title == "" {
			continue
		}

		paperType := cell(cols.Type)
		if !publication.IsPublicationType(paperType) {
			result.Skipped = append(result.Skipped, SkippedRow{
				Row:    sheetPos,
				Title:  title,
				Type:   paperType,
				Reason: "not_journal_or_conference",
			})
			continue
		}

		venue := cell(cols.Venue)
		date := publication.NormalizeDateCell(cell(cols.Date))
		authors := cell(cols.Authors)
		detail := cell(cols.VenueDetail)

		kind := publication.KindFromType(paperType)
		venueText := publication.JoinVenue(venue, detail)
		if kind == publication.KindJournal {
			venueText += publication.FormatImpact(cell(cols.ImpactFactor), cell(cols.TopPercent))
		}

		rec := publication.Record{
			SheetPos: sheetPos,
			Kind:     kind,
			Year:     years.Resolve(date, venue, detail, title),
			Date:     publication.ParseDate(date),
			Title:    title,
			Authors:  authors,
			Venue:    venueText,
		}

		records = append(records, rec)
	}

	result.Journal, result.Proceedings = publication.Split(records)
	return result
}

// overlayColumn replaces the 1-based column col of rows with the value from
// src wherever src holds a number, so text cells keep their display form.
func overlayColumn(rows, src [][]string, col int) {
	if col < 1 {
		return
	}
	for i := range rows {
		if i >= len(src) || col > len(src[i]) || col > len(rows[i]) {
			continue
		}
		v := strings.TrimSpace(src[i][col-1])
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			rows[i][col-1] = v
		}
	}
}

// cellAt returns the trimmed, NFC-normalized value of a 1-based column.
func cellAt(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(row[col-1]))
}

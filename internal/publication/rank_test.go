package publication

import (
	"testing"
	"time"
)

func TestRank_OrderAndWithinYear(t *testing.T) {
	records := []Record{
		{SheetPos: 2, Year: 2023, Date: 20230110, Title: "A"},
		{SheetPos: 3, Year: 2024, Date: 20240301, Title: "B"},
		{SheetPos: 4, Year: 2024, Date: 20240901, Title: "C"},
		{SheetPos: 5, Year: 2024, Date: 20240301, Title: "D"}, // ties with B, later in sheet
		{SheetPos: 6, Year: 2024, Date: 0, Title: "E"},
		{SheetPos: 7, Year: 2023, Date: 20231120, Title: "F"},
	}

	entries := Rank(records)

	wantTitles := []string{"C", "B", "D", "E", "F", "A"}
	wantWithin := []int{0, 1, 2, 3, 0, 1}
	if len(entries) != len(wantTitles) {
		t.Fatalf("Rank() returned %d entries, want %d", len(entries), len(wantTitles))
	}
	for i, e := range entries {
		if e.Title != wantTitles[i] {
			t.Errorf("entries[%d].Title = %q, want %q", i, e.Title, wantTitles[i])
		}
		if e.WithinYearOrder != wantWithin[i] {
			t.Errorf("entries[%d].WithinYearOrder = %d, want %d", i, e.WithinYearOrder, wantWithin[i])
		}
	}
}

func TestRank_UnknownYearIsNullAndLast(t *testing.T) {
	records := []Record{
		{SheetPos: 2, Year: 0, Title: "Undated"},
		{SheetPos: 3, Year: 2020, Date: 20200000, Title: "Dated"},
	}

	entries := Rank(records)
	if entries[0].Title != "Dated" || entries[0].Year == nil || *entries[0].Year != 2020 {
		t.Errorf("entries[0] = %+v, want Dated/2020", entries[0])
	}
	if entries[1].Title != "Undated" || entries[1].Year != nil {
		t.Errorf("entries[1] = %+v, want Undated with nil year", entries[1])
	}
	if entries[1].WithinYearOrder != 0 {
		t.Errorf("entries[1].WithinYearOrder = %d, want 0", entries[1].WithinYearOrder)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	records := []Record{
		{SheetPos: 2, Year: 2020, Title: "old"},
		{SheetPos: 3, Year: 2024, Title: "new"},
	}
	Rank(records)
	if records[0].Title != "old" {
		t.Errorf("Rank() reordered its input")
	}
}

func TestRank_Deterministic(t *testing.T) {
	records := []Record{
		{SheetPos: 4, Year: 2022, Date: 20220000, Title: "x"},
		{SheetPos: 2, Year: 2022, Date: 20220000, Title: "y"},
		{SheetPos: 3, Year: 2022, Date: 20220000, Title: "z"},
	}

	first := Rank(records)
	second := Rank(records)
	for i := range first {
		if first[i].Title != second[i].Title || first[i].WithinYearOrder != second[i].WithinYearOrder {
			t.Fatalf("Rank() not deterministic at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].Title != "y" || first[1].Title != "z" || first[2].Title != "x" {
		t.Errorf("ties not broken by sheet position: %q %q %q", first[0].Title, first[1].Title, first[2].Title)
	}
}

func TestBuildDocument(t *testing.T) {
	records := []Record{
		{SheetPos: 2, Kind: KindJournal, Year: 2024, Title: "J1"},
		{SheetPos: 3, Kind: KindProceedings, Year: 2024, Title: "P1"},
		{SheetPos: 4, Kind: KindProceedings, Year: 2023, Title: "P2"},
	}
	journal, proceedings := Split(records)
	now := time.Date(2026, 10, 17, 8, 30, 5, 0, time.FixedZone("KST", 9*3600))

	doc := BuildDocument("publications_source.xlsx", journal, proceedings, now)

	if doc.GeneratedFrom != "publications_source.xlsx" {
		t.Errorf("GeneratedFrom = %q", doc.GeneratedFrom)
	}
	if doc.GeneratedAt != "2026-10-16T23:30:05Z" {
		t.Errorf("GeneratedAt = %q, want UTC timestamp", doc.GeneratedAt)
	}
	if doc.Counts.Journal != 1 || doc.Counts.Proceedings != 2 {
		t.Errorf("Counts = %+v, want {1 2}", doc.Counts)
	}
	if doc.JournalPapers[0].Title != "J1" || doc.Proceedings[1].Title != "P2" {
		t.Errorf("unexpected bucket contents: %+v / %+v", doc.JournalPapers, doc.Proceedings)
	}
}

func TestBuildDocument_EmptyBucketsAreArrays(t *testing.T) {
	doc := BuildDocument("x.xlsx", nil, nil, time.Now())
	if doc.JournalPapers == nil || doc.Proceedings == nil {
		t.Errorf("empty buckets should be non-nil slices so they encode as []")
	}
}

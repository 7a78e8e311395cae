package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matsen/labsite/internal/publication"
)

func sampleDocument(now time.Time) publication.Document {
	records := []publication.Record{
		{SheetPos: 2, Kind: publication.KindJournal, Year: 2024, Date: 20240315, Title: "실내 공기질", Authors: "김, 이", Venue: "J <B> & C (IF 6.9)"},
		{SheetPos: 3, Kind: publication.KindProceedings, Title: "Undated"},
	}
	journal, proceedings := publication.Split(records)
	return publication.BuildDocument("publications_source.xlsx", journal, proceedings, now)
}

func TestEncodeDocument_Format(t *testing.T) {
	doc := sampleDocument(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	data, err := EncodeDocument(doc)
	if err != nil {
		t.Fatalf("EncodeDocument() error = %v", err)
	}
	out := string(data)

	keys := []string{`"generated_from"`, `"generated_at"`, `"counts"`, `"journal_papers"`, `"proceedings"`}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, k)
		if i < 0 || i < last {
			t.Fatalf("key %s missing or out of order in:\n%s", k, out)
		}
		last = i
	}

	if !strings.Contains(out, `"title": "실내 공기질"`) {
		t.Errorf("non-ASCII text should not be escaped:\n%s", out)
	}
	if !strings.Contains(out, `"venue": "J <B> & C (IF 6.9)"`) {
		t.Errorf("HTML characters should not be escaped:\n%s", out)
	}
	if !strings.Contains(out, `"year": null`) {
		t.Errorf("unknown year should encode as null:\n%s", out)
	}
	if !strings.Contains(out, `"generated_at": "2026-01-02T03:04:05Z"`) {
		t.Errorf("generated_at wrong:\n%s", out)
	}
	if !strings.HasPrefix(out, "{\n  \"generated_from\"") {
		t.Errorf("expected 2-space indentation:\n%s", out)
	}
}

func TestWriteDocument_CreatesDirsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "publications.json")
	doc := sampleDocument(time.Now())

	if err := WriteDocument(path, doc); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}

	got, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if got.Counts != doc.Counts {
		t.Errorf("Counts = %+v, want %+v", got.Counts, doc.Counts)
	}
	if len(got.JournalPapers) != 1 || got.JournalPapers[0].Title != "실내 공기질" {
		t.Errorf("JournalPapers = %+v", got.JournalPapers)
	}
	if got.Proceedings[0].Year != nil {
		t.Errorf("Proceedings[0].Year = %v, want nil", *got.Proceedings[0].Year)
	}
}

func TestWriteDocument_StableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")

	if err := WriteDocument(a, sampleDocument(now)); err != nil {
		t.Fatal(err)
	}
	if err := WriteDocument(b, sampleDocument(now)); err != nil {
		t.Fatal(err)
	}

	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if !bytes.Equal(da, db) {
		t.Error("two runs over the same input produced different bytes")
	}
}

func TestReadDocument_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadDocument() expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := ReadDocument(bad); err == nil {
		t.Error("ReadDocument() expected error for malformed JSON")
	}
}

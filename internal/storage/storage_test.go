package storage

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAnnotationRoundTrip(t *testing.T) {
	s := openTestStore(t)

	ann := TradeAnnotation{
		Tags:      []string{"revenge", "fomo"},
		Notes:     "Entered too early",
		SetupType: "breakout",
		Reviewed:  true,
	}
	if err := s.UpsertAnnotation("t1", ann); err != nil {
		t.Fatalf("Expected upsert to succeed, got %v", err)
	}

	got, found, err := s.Annotation("t1")
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	if !found {
		t.Fatal("Expected annotation to exist")
	}
	if got.Notes != "Entered too early" || !got.Reviewed {
		t.Errorf("Unexpected annotation: %+v", got)
	}
	if len(got.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", got.Tags)
	}
	if got.UpdatedAt == 0 {
		t.Error("Expected UpdatedAt stamped on write")
	}
}

func TestAnnotationMissing(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.Annotation("nope")
	if err != nil {
		t.Fatalf("Expected no error for missing annotation, got %v", err)
	}
	if found {
		t.Error("Expected missing annotation not found")
	}
}

func TestAnnotationRequiresTradeID(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertAnnotation("", TradeAnnotation{}); err == nil {
		t.Error("Expected error for empty trade id")
	}
}

func TestAnnotationsListsAll(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.UpsertAnnotation(id, TradeAnnotation{Notes: id}); err != nil {
			t.Fatalf("Expected upsert of %s to succeed, got %v", id, err)
		}
	}

	anns, err := s.Annotations()
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if len(anns) != 3 {
		t.Fatalf("Expected 3 annotations, got %d", len(anns))
	}
	if anns["b"].Notes != "b" {
		t.Errorf("Expected annotation keyed by trade id, got %+v", anns)
	}
}

func TestJournalEntryLifecycle(t *testing.T) {
	s := openTestStore(t)

	stored, err := s.SaveJournalEntry(JournalEntry{Title: "Overtraded the open", Outcome: "loss"})
	if err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}
	if stored.ID == "" {
		t.Error("Expected an id assigned")
	}
	if stored.Ts.IsZero() {
		t.Error("Expected a timestamp assigned")
	}

	entries, err := s.JournalEntries()
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Overtraded the open" {
		t.Errorf("Unexpected entries: %+v", entries)
	}

	if err := s.DeleteJournalEntry(stored.ID); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}
	entries, err = s.JournalEntries()
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries after delete, got %d", len(entries))
	}
}

func TestJournalEntriesNewestFirst(t *testing.T) {
	s := openTestStore(t)

	older := JournalEntry{ID: "old", Ts: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), Title: "old"}
	newer := JournalEntry{ID: "new", Ts: time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC), Title: "new"}
	if _, err := s.SaveJournalEntry(older); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveJournalEntry(newer); err != nil {
		t.Fatal(err)
	}

	entries, err := s.JournalEntries()
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "new" || entries[1].ID != "old" {
		t.Errorf("Expected newest first, got %s then %s", entries[0].ID, entries[1].ID)
	}
}

func TestSaveJournalEntryKeepsExplicitID(t *testing.T) {
	s := openTestStore(t)

	stored, err := s.SaveJournalEntry(JournalEntry{ID: "fixed", Title: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID != "fixed" {
		t.Errorf("Expected explicit id kept, got %s", stored.ID)
	}

	// Saving again under the same id overwrites, not duplicates.
	if _, err := s.SaveJournalEntry(JournalEntry{ID: "fixed", Title: "v2"}); err != nil {
		t.Fatal(err)
	}
	entries, err := s.JournalEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Title != "v2" {
		t.Errorf("Expected a single overwritten entry, got %+v", entries)
	}
}

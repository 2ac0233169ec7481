package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/storage"
)

func TestLoadDayNotExist(t *testing.T) {
	j := storage.NewJournal(t.TempDir(), "user-1")
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	df, err := j.LoadDay(day)
	if err != nil {
		t.Fatalf("LoadDay on missing file: %v", err)
	}
	if df.Date != "2026-02-27" {
		t.Errorf("LoadDay date = %q, want %q", df.Date, "2026-02-27")
	}
	if len(df.Entries) != 0 {
		t.Errorf("LoadDay entries = %d, want 0", len(df.Entries))
	}
}

func TestSaveDayAndLoadDay(t *testing.T) {
	j := storage.NewJournal(t.TempDir(), "user-1")
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	df := model.DayFile{
		Date: "2026-02-27",
		Entries: []model.Entry{
			{
				ID:        "test-id-1",
				Timestamp: day.Add(9 * time.Hour),
				Mood:      4,
				Urgency:   8,
				Smoked:    true,
				Notes:     "after coffee",
			},
		},
	}

	if err := j.SaveDay(day, df); err != nil {
		t.Fatalf("SaveDay: %v", err)
	}

	loaded, err := j.LoadDay(day)
	if err != nil {
		t.Fatalf("LoadDay after save: %v", err)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("LoadDay entries = %d, want 1", len(loaded.Entries))
	}
	got := loaded.Entries[0]
	if got.Notes != "after coffee" || !got.Smoked || got.Urgency != 8 {
		t.Errorf("LoadDay entry = %+v", got)
	}
}

func TestLoadDayCorruptIsBackedUp(t *testing.T) {
	base := t.TempDir()
	j := storage.NewJournal(base, "user-1")
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	dir := filepath.Join(j.Dir(), "2026", "02")
	path := filepath.Join(dir, "27.json")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := j.LoadDay(day); err == nil {
		t.Fatal("expected error for corrupt JSON, got nil")
	}
	if _, err := os.Stat(path + ".corrupt"); os.IsNotExist(err) {
		t.Error("expected backup file to exist after corrupt JSON")
	}
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	j := storage.NewJournal(t.TempDir(), "user-1")
	e := model.Entry{ID: "e1", Timestamp: time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC), Mood: 5, Urgency: 5}

	if err := j.Append(e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Append(e); err == nil {
		t.Fatal("expected error appending duplicate ID")
	}

	df, err := j.LoadDay(e.Timestamp)
	if err != nil {
		t.Fatalf("LoadDay: %v", err)
	}
	if len(df.Entries) != 1 {
		t.Errorf("entries = %d, want 1", len(df.Entries))
	}
}

func TestLoadRangeNewestFirst(t *testing.T) {
	j := storage.NewJournal(t.TempDir(), "user-1")
	times := []time.Time{
		time.Date(2026, 2, 26, 22, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 27, 7, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 27, 21, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 6, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		e := model.Entry{ID: string(rune('a' + i)), Timestamp: ts, Mood: 5, Urgency: 5}
		if err := j.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	from := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	got, err := j.LoadRange(from, to)
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	// LoadRange works on whole days, so the 07:00 entry on 02-27 is included.
	wantIDs := []string{"d", "c", "b"}
	if len(got) != len(wantIDs) {
		t.Fatalf("LoadRange returned %d entries, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("entry %d ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestJournalsArePartitionedByUser(t *testing.T) {
	base := t.TempDir()
	a := storage.NewJournal(base, "alice")
	b := storage.NewJournal(base, "bob")
	e := model.Entry{ID: "e1", Timestamp: time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC), Mood: 5, Urgency: 5}
	if err := a.Append(e); err != nil {
		t.Fatal(err)
	}
	df, err := b.LoadDay(e.Timestamp)
	if err != nil {
		t.Fatal(err)
	}
	if len(df.Entries) != 0 {
		t.Errorf("bob sees %d of alice's entries", len(df.Entries))
	}
}

func TestEarliest(t *testing.T) {
	j := storage.NewJournal(t.TempDir(), "user-1")
	if _, ok, err := j.Earliest(); err != nil || ok {
		t.Fatalf("Earliest on empty journal = %v, %v; want false, nil", ok, err)
	}

	for i, ts := range []time.Time{
		time.Date(2025, 11, 3, 9, 0, 0, 0, time.Local),
		time.Date(2024, 12, 30, 9, 0, 0, 0, time.Local),
		time.Date(2024, 12, 7, 9, 0, 0, 0, time.Local),
	} {
		e := model.Entry{ID: string(rune('a' + i)), Timestamp: ts, Mood: 5, Urgency: 5}
		if err := j.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, ok, err := j.Earliest()
	if err != nil || !ok {
		t.Fatalf("Earliest = %v, %v", ok, err)
	}
	want := time.Date(2024, 12, 7, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("Earliest = %v, want %v", got, want)
	}
}

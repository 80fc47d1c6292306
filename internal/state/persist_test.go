package state

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSlot_LoadAbsent(t *testing.T) {
	t.Parallel()

	slot := NewFileSlot(t.TempDir())
	data, err := slot.Load()
	if err != nil {
		t.Fatalf("absent file should not error: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil blob for absent file, got %q", data)
	}
}

func TestFileSlot_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	slot := NewFileSlot(dir)
	blob := []byte(`{"tabs":[{"id":"x"}],"activeTabId":"x"}`)
	if err := slot.Save(blob); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := slot.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("round trip mismatch: %q", got)
	}

	// Overwrites replace cleanly and leave no temp files behind.
	if err := slot.Save([]byte("second")); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	got, _ = slot.Load()
	if string(got) != "second" {
		t.Errorf("overwrite mismatch: %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileSlot_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	slot := NewFileSlot(dir)
	if err := slot.Save([]byte("x")); err != nil {
		t.Fatalf("save into missing directory failed: %v", err)
	}
}

func TestSQLiteSlot_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.db")
	slot, err := NewSQLiteSlot(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer slot.Close()

	data, err := slot.Load()
	if err != nil {
		t.Fatalf("empty load failed: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil blob from empty database, got %q", data)
	}

	blob := []byte(`{"tabs":[{"id":"x"}],"activeTabId":"x"}`)
	if err := slot.Save(blob); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := slot.Save(blob); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, err := slot.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestSQLiteSlot_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.db")
	slot, err := NewSQLiteSlot(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := slot.Save([]byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := slot.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteSlot(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.Load()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "persisted" {
		t.Errorf("blob lost across reopen: %q", got)
	}
}

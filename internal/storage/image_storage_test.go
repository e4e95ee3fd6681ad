package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStoreImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rendered")
	s := NewImageStorage(dir, "/static/rendered/")
	id := uuid.New()

	stored, err := s.StoreImage([]byte("png-bytes"), id, "dithered")
	if err != nil {
		t.Fatalf("StoreImage: %v", err)
	}
	if !strings.HasPrefix(stored.Filename, id.String()+"_dithered_") {
		t.Errorf("unexpected filename %q", stored.Filename)
	}
	if stored.URL != "/static/rendered/"+stored.Filename {
		t.Errorf("unexpected URL %q", stored.URL)
	}
	data, err := os.ReadFile(stored.Path)
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("stored content = %q, %v", data, err)
	}

	if _, err := s.StoreImage([]byte("x"), id, "../escape"); err == nil {
		t.Error("expected invalid variant to be rejected")
	}
}

func TestDeleteRender(t *testing.T) {
	dir := t.TempDir()
	s := NewImageStorage(dir, "/static")
	id := uuid.New()
	other := uuid.New()

	for _, variant := range []string{"plain", "dithered"} {
		if _, err := s.StoreImage([]byte(variant), id, variant); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.StoreImage([]byte("keep"), other, "plain"); err != nil {
		t.Fatal(err)
	}

	removed, err := s.DeleteRender(id)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected one remaining file, got %d", len(entries))
	}
}

func TestCleanupOldImages(t *testing.T) {
	s := NewImageStorage(t.TempDir(), "/static")

	old, err := s.StoreImage([]byte("old"), uuid.New(), "plain")
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := s.StoreImage([]byte("fresh"), uuid.New(), "plain")
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old.Path, past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := s.CleanupOldImages(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old.Path); !os.IsNotExist(err) {
		t.Error("old image still present")
	}
	if _, err := os.Stat(fresh.Path); err != nil {
		t.Error("fresh image was removed")
	}
}

func TestCleanupMissingDirectory(t *testing.T) {
	s := NewImageStorage(filepath.Join(t.TempDir(), "missing"), "/static")
	removed, err := s.CleanupOldImages(time.Hour)
	if err != nil || removed != 0 {
		t.Errorf("CleanupOldImages on missing dir = %d, %v", removed, err)
	}
}
